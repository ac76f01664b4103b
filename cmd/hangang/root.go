package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/hangang/internal/api"
	"github.com/sakif/hangang/internal/config"
	"github.com/sakif/hangang/internal/metrics"
	"github.com/sakif/hangang/internal/repository/sqlite"
	"github.com/sakif/hangang/internal/session"
)

// app holds what every command needs. It is built once in the root
// command's PersistentPreRunE.
type app struct {
	cfg     config.Client
	logger  *slog.Logger
	client  *api.Client
	prefs   *sqlite.Preferences
	session *session.Store
	out     io.Writer
}

// newRootCmd builds the command tree. The returned func releases what the
// commands opened and must be called after Execute, whatever it returned.
func newRootCmd() (*cobra.Command, func() error) {
	a := &app{}
	var verbose bool

	root := &cobra.Command{
		Use:           "hangang",
		Short:         "Hangang park community, inquiries and busking from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.init(cmd.Context(), verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newSignUpCmd(a),
		newLogoutCmd(a),
		newWhoAmICmd(a),
		newFeedCmd(a),
		newPostCmd(a),
		newCommentCmd(a),
		newLikeCmd(a),
		newInquiryCmd(a),
		newBuskingCmd(a),
		newMarkersCmd(a),
	)
	return root, a.close
}

func (a *app) init(ctx context.Context, verbose bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	a.cfg = cfg

	var handler slog.Handler = slog.NewTextHandler(io.Discard, nil)
	if verbose {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	}
	a.logger = slog.New(handler)

	a.client = api.New(cfg.BaseURL,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(a.logger),
		api.WithMetrics(metrics.NewNop()),
	)

	prefs, err := sqlite.NewPreferences(cfg.PrefsPath)
	if err != nil {
		return fmt.Errorf("hangang: opening preferences: %w", err)
	}
	a.prefs = prefs

	a.session = session.NewStore(a.client, prefs, a.logger)
	a.session.OnAuthRequired(func(action string) {
		fmt.Fprintf(os.Stderr, "You need to log in to %s. Run: hangang login <id>\n", action)
	})
	a.session.Restore(ctx)
	return nil
}

func (a *app) close() error {
	if a.prefs == nil {
		return nil
	}
	err := a.prefs.Close()
	a.prefs = nil
	return err
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
