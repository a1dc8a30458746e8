package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nkhine/itools/internal/cli/output"
	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/internal/telemetry"
	"github.com/nkhine/itools/pkg/config"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/metrics"
	"github.com/nkhine/itools/pkg/resource"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	// Import prometheus metrics to register init() functions
	_ "github.com/nkhine/itools/pkg/metrics/prometheus"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// workspace is everything a tree command needs: the loaded configuration,
// the opened store and a session rooted at the store's root container.
type workspace struct {
	cfg     *config.Config
	store   resource.Store
	session *handler.Session
	root    *handler.Folder
	printer *output.Printer

	telemetryShutdown func(context.Context) error
}

// openWorkspace loads the configuration and brings up logging, tracing,
// metrics and the store. The caller must Close the workspace.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	ctx := cmd.Context()

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(outputFmt)
	if err != nil {
		return nil, err
	}

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "itools",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	registry, err := config.NewRegistry(cfg.Formats)
	if err != nil {
		_ = telemetryShutdown(ctx)
		return nil, err
	}

	store, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		_ = telemetryShutdown(ctx)
		return nil, err
	}

	sess := handler.NewSession(
		handler.WithRegistry(registry),
		handler.WithMetrics(metrics.NewHandlerMetrics()),
	)
	logger.DebugCtx(ctx, "workspace opened",
		logger.KeyStore, store.Type(),
		logger.KeySession, sess.ID())

	return &workspace{
		cfg:               cfg,
		store:             store,
		session:           sess,
		root:              sess.OpenFolder(store.Root()),
		printer:           output.NewPrinter(cmd.OutOrStdout(), format, !noColor && isTerminal(cmd)),
		telemetryShutdown: telemetryShutdown,
	}, nil
}

// commit writes every pending change, bounded by the configured commit
// timeout.
func (w *workspace) commit(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Session.CommitTimeout)
	defer cancel()

	pending := w.session.Len()
	if err := w.session.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.InfoCtx(ctx, "session committed",
		logger.KeySession, w.session.ID(),
		logger.KeyPending, pending)
	return nil
}

// Close releases the store, flushes telemetry and dumps metrics. Uncommitted
// changes are discarded with a warning.
func (w *workspace) Close(ctx context.Context) error {
	if n := w.session.Len(); n > 0 {
		logger.WarnCtx(ctx, "discarding uncommitted changes", logger.KeyPending, n)
	}

	var errs []error
	if err := w.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if err := metrics.WriteTextfile(w.cfg.Metrics.Textfile); err != nil {
		errs = append(errs, fmt.Errorf("write metrics: %w", err))
	}
	if err := w.telemetryShutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// withWorkspace opens a workspace, runs fn and closes the workspace,
// reporting the first error.
func withWorkspace(cmd *cobra.Command, fn func(ctx context.Context, w *workspace) error) (err error) {
	w, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(context.WithoutCancel(cmd.Context())); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(cmd.Context(), w)
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
