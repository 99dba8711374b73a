package servecmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stuurlui/compass/internal/assistant"
	"github.com/stuurlui/compass/internal/confluence"
	"github.com/stuurlui/compass/internal/contentsync"
	"github.com/stuurlui/compass/internal/feedback"
	"github.com/stuurlui/compass/internal/float"
	"github.com/stuurlui/compass/internal/hubspot"
	"github.com/stuurlui/compass/internal/intent"
	"github.com/stuurlui/compass/internal/interactions"
	"github.com/stuurlui/compass/internal/mainwp"
	"github.com/stuurlui/compass/internal/pinecone"
	"github.com/stuurlui/compass/internal/promptprofile"
	"github.com/stuurlui/compass/internal/router"
	"github.com/stuurlui/compass/internal/slackapi"
	"github.com/stuurlui/compass/providers/openai"
)

type runtime struct {
	log *slog.Logger

	slack        *slackapi.Client
	botUserID    string
	assistant    *assistant.Handler
	interactions *interactions.Handler
	feedback     *feedback.Collector
	syncer       *contentsync.Syncer
}

func loggerFromViper() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(viper.GetString("log.level"))) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(viper.GetString("log.format")), "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func buildRuntime() (*runtime, error) {
	logger := loggerFromViper()
	slog.SetDefault(logger)

	botToken := strings.TrimSpace(viper.GetString("slack.bot_token"))
	if botToken == "" {
		return nil, fmt.Errorf("missing slack.bot_token (set via config or COMPASS_SLACK_BOT_TOKEN)")
	}
	appToken := strings.TrimSpace(viper.GetString("slack.app_token"))
	if appToken == "" {
		return nil, fmt.Errorf("missing slack.app_token (set via config or COMPASS_SLACK_APP_TOKEN)")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	slack := slackapi.NewClient(httpClient, "https://slack.com/api", botToken, appToken)

	llmClient, err := openai.New(openai.Config{
		APIKey:         viper.GetString("openai.api_key"),
		BaseURL:        viper.GetString("openai.base_url"),
		RequestTimeout: viper.GetDuration("openai.request_timeout"),
	})
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(viper.GetString("openai.model"))
	if model == "" {
		model = openai.DefaultModel
	}

	profile := promptprofile.Default()
	if path := strings.TrimSpace(viper.GetString("prompts.profile_path")); path != "" {
		profile, err = promptprofile.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load prompt profile: %w", err)
		}
	}

	sites := mainwp.NewClient(httpClient, viper.GetString("mainwp.base_url"), viper.GetString("mainwp.api_key"))
	classifier := intent.NewClassifier(llmClient, model, logger)
	route := router.New(sites, llmClient, model, logger)

	asst, err := assistant.New(slack, llmClient, classifier, route, assistant.Config{
		Model:        model,
		SummaryLimit: viper.GetInt("assistant.summary_limit"),
		Profile:      profile,
	}, logger)
	if err != nil {
		return nil, err
	}

	schedule := float.NewClient(httpClient, viper.GetString("float.base_url"), viper.GetString("float.api_key"))
	crm := hubspot.NewClient(httpClient, viper.GetString("hubspot.base_url"), viper.GetString("hubspot.access_token"))

	collector, err := feedback.NewCollector(slack, schedule, feedback.Config{
		Development:         viper.GetBool("feedback.development"),
		DeveloperSlackEmail: viper.GetString("feedback.developer_slack_email"),
		DeveloperFloatEmail: viper.GetString("feedback.developer_float_email"),
	}, logger)
	if err != nil {
		return nil, err
	}

	interact, err := interactions.New(interactions.Options{
		Slack:    slack,
		Schedule: schedule,
		CRM:      crm,
		Feedback: collector,
		PortalID: viper.GetString("hubspot.portal_id"),
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	var syncer *contentsync.Syncer
	if indexURL := strings.TrimSpace(viper.GetString("pinecone.index_url")); indexURL != "" {
		wiki := confluence.NewClient(httpClient,
			viper.GetString("confluence.base_url"),
			viper.GetString("confluence.email"),
			viper.GetString("confluence.api_key"))
		store := pinecone.NewClient(httpClient, indexURL, viper.GetString("pinecone.api_key"))
		syncer, err = contentsync.NewSyncer(wiki, llmClient, store, contentsync.Options{
			Namespace:  viper.GetString("pinecone.namespace"),
			EmbedModel: viper.GetString("openai.embed_model"),
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
	}

	return &runtime{
		log:          logger,
		slack:        slack,
		assistant:    asst,
		interactions: interact,
		feedback:     collector,
		syncer:       syncer,
	}, nil
}
