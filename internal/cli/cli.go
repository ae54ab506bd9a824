// Package cli implements widgetctl, the operator tool for inspecting agent
// analytics and pruning stored interactions without going through the API.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/analytics"
	"github.com/eleven-am/agent-widget/internal/retention"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/spf13/cobra"
)

// Store is the slice of the agent store the commands need.
type Store interface {
	GetByID(ctx context.Context, id string) (*agent.Agent, error)
	GetByDeveloper(ctx context.Context, developerID string) ([]*agent.Agent, error)
	TrimInteractions(ctx context.Context, max int) (int, error)
}

// Opener connects to the store behind the given DSN.
type Opener func(dsn string) (Store, error)

type options struct {
	dsn  string
	open Opener
	now  func() time.Time
}

func (o *options) store() (Store, error) {
	if o.dsn == "" {
		return nil, errors.New("no database configured: pass --dsn or set DATABASE_DSN")
	}
	return o.open(o.dsn)
}

func NewRootCmd(open Opener, version string) *cobra.Command {
	opts := &options{open: open, now: time.Now}

	cmd := &cobra.Command{
		Use:           "widgetctl",
		Short:         "Inspect and maintain agent widget analytics",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", os.Getenv("DATABASE_DSN"), "Postgres DSN (defaults to $DATABASE_DSN)")

	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newOverviewCmd(opts))
	cmd.AddCommand(newTrimCmd(opts))
	return cmd
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "summary <agent-id>",
		Short:   "Print the analytics summary of one agent",
		Example: "  widgetctl summary agent_abc123",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			a, err := store.GetByID(cmd.Context(), args[0])
			if errors.Is(err, shared.ErrNotFound) {
				return fmt.Errorf("agent %s not found", args[0])
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), analytics.ToSummaryResponse(a.ID, analytics.Summarize(a.Analytics)))
		},
	}
}

func newOverviewCmd(opts *options) *cobra.Command {
	var developerID string

	cmd := &cobra.Command{
		Use:     "overview",
		Short:   "Print the fleet overview of a developer's agents",
		Example: "  widgetctl overview --developer user_123",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.store()
			if err != nil {
				return err
			}
			agents, err := store.GetByDeveloper(cmd.Context(), developerID)
			if err != nil {
				return err
			}
			fleet := analytics.Fleet(analytics.Histories(agents), opts.now())
			return writeJSON(cmd.OutOrStdout(), analytics.ToOverviewResponse(fleet))
		},
	}
	cmd.Flags().StringVar(&developerID, "developer", "", "Developer (owner) user ID")
	_ = cmd.MarkFlagRequired("developer")
	return cmd
}

func newTrimCmd(opts *options) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Drop the oldest interactions beyond the per-agent cap",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep <= 0 {
				return fmt.Errorf("--max must be positive, got %d", keep)
			}
			store, err := opts.store()
			if err != nil {
				return err
			}
			removed, err := store.TrimInteractions(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d interactions (cap %d per agent)\n", removed, keep)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "max", retention.DefaultMaxInteractions, "Interactions to keep per agent")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
