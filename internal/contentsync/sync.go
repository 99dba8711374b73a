// Package contentsync indexes Confluence pages into the vector store so
// the assistant can ground answers on internal documentation.
package contentsync

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/stuurlui/compass/internal/confluence"
	"github.com/stuurlui/compass/internal/llm"
	"github.com/stuurlui/compass/internal/pinecone"
)

const (
	defaultNamespace = "confluence"
	pageFetchLimit   = 25
	// Pinecone caps a single upsert call well above this, but smaller
	// batches keep request bodies reasonable for large spaces.
	upsertBatchSize = 50
)

type WikiSource interface {
	Spaces(ctx context.Context) ([]confluence.Space, error)
	PagesBySpace(ctx context.Context, spaceID string, limit int) ([]confluence.Page, error)
}

type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) (int, error)
}

type Syncer struct {
	wiki      WikiSource
	embedder  llm.Embedder
	store     VectorStore
	namespace string
	model     string
	log       *slog.Logger
}

type Options struct {
	Namespace  string
	EmbedModel string
	Logger     *slog.Logger
}

func NewSyncer(wiki WikiSource, embedder llm.Embedder, store VectorStore, opts Options) (*Syncer, error) {
	if wiki == nil {
		return nil, fmt.Errorf("wiki source is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	namespace := strings.TrimSpace(opts.Namespace)
	if namespace == "" {
		namespace = defaultNamespace
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		wiki:      wiki,
		embedder:  embedder,
		store:     store,
		namespace: namespace,
		model:     strings.TrimSpace(opts.EmbedModel),
		log:       log,
	}, nil
}

// Run walks every space, embeds each page and upserts the vectors in
// batches. A page that fails to embed is skipped, not fatal.
func (s *Syncer) Run(ctx context.Context) error {
	runID := uuid.NewString()
	spaces, err := s.wiki.Spaces(ctx)
	if err != nil {
		return fmt.Errorf("list spaces: %w", err)
	}
	s.log.Info("content_sync_started", "run_id", runID, "spaces", len(spaces))

	var total int
	for _, space := range spaces {
		count, err := s.syncSpace(ctx, space)
		if err != nil {
			s.log.Warn("content_sync_space_error", "run_id", runID, "space_key", space.Key, "error", err.Error())
			continue
		}
		total += count
	}
	s.log.Info("content_sync_finished", "run_id", runID, "upserted", total)
	return nil
}

func (s *Syncer) syncSpace(ctx context.Context, space confluence.Space) (int, error) {
	pages, err := s.wiki.PagesBySpace(ctx, space.ID, pageFetchLimit)
	if err != nil {
		return 0, fmt.Errorf("list pages: %w", err)
	}

	var (
		batch []pinecone.Vector
		total int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		count, err := s.store.Upsert(ctx, s.namespace, batch)
		if err != nil {
			return fmt.Errorf("upsert vectors: %w", err)
		}
		total += count
		batch = batch[:0]
		return nil
	}

	for _, page := range pages {
		text := pageText(page)
		if text == "" {
			continue
		}
		res, err := s.embedder.Embed(ctx, llm.EmbedRequest{Model: s.model, Input: text})
		if err != nil {
			s.log.Warn("content_sync_embed_error", "page_id", page.ID, "error", err.Error())
			continue
		}
		batch = append(batch, pinecone.Vector{
			ID:     "confluence-" + page.ID,
			Values: res.Vector,
			Metadata: map[string]string{
				"title": page.Title,
				"space": space.Key,
			},
		})
		if len(batch) >= upsertBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// pageText flattens the storage-format body to plain text with the title
// prepended, since the title often carries the page's only searchable term.
func pageText(page confluence.Page) string {
	body := tagPattern.ReplaceAllString(page.Body.Storage.Value, " ")
	body = strings.Join(strings.Fields(body), " ")
	return strings.TrimSpace(strings.TrimSpace(page.Title) + "\n" + body)
}
