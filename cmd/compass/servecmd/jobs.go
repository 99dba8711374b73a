package servecmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFeedbackRound returns a command that runs one feedback round
// immediately instead of waiting for the schedule.
func NewFeedbackRound() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback",
		Short: "Run one feedback collection round now",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			return rt.feedback.Run(cmd.Context())
		},
	}
}

// NewContentSync returns a command that indexes the Confluence wiki into
// the vector store once.
func NewContentSync() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Index Confluence pages into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			if rt.syncer == nil {
				return fmt.Errorf("missing pinecone.index_url (set via config or COMPASS_PINECONE_INDEX_URL)")
			}
			return rt.syncer.Run(cmd.Context())
		},
	}
}
