package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nkhine/itools/internal/cli/output"
	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/internal/telemetry"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/watch"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow external changes to a directory-backed store",
	Long: `Keep a handler tree open and refresh it as files under the store
directory change. Each refreshed path is printed as it settles.

Only the fs store and the billy store on disk can be watched.

Examples:
  # Follow the configured store
  itools watch

  # Emit one JSON object per refresh
  itools watch -o json --debounce 500ms`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before a path is refreshed (default from config)")
}

// watchEvent is the structured form of a refresh.
type watchEvent struct {
	Time   time.Time `json:"time" yaml:"time"`
	Path   string    `json:"path" yaml:"path"`
	Op     string    `json:"op" yaml:"op"`
	Kind   string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Format string    `json:"format,omitempty" yaml:"format,omitempty"`
	Error  string    `json:"error,omitempty" yaml:"error,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
		dir := w.cfg.Store.LocalPath()
		if dir == "" {
			return fmt.Errorf("store type %q has no local directory to watch", w.cfg.Store.Type)
		}

		profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
			Enabled:        w.cfg.Telemetry.Profiling.Enabled,
			ServiceName:    "itools",
			ServiceVersion: Version,
			Endpoint:       w.cfg.Telemetry.Profiling.Endpoint,
			ProfileTypes:   w.cfg.Telemetry.Profiling.ProfileTypes,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize profiling: %w", err)
		}
		defer func() {
			if err := profilingShutdown(); err != nil {
				logger.Error("profiling shutdown error", logger.KeyError, err)
			}
		}()

		debounce := w.cfg.Watch.Debounce
		if watchDebounce > 0 {
			debounce = watchDebounce
		}

		wt, err := watch.New(w.root, dir,
			watch.WithDebounce(debounce),
			watch.WithNotify(func(ev watch.Event) { printWatchEvent(w.printer, ev) }))
		if err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		defer func() { _ = wt.Close() }()

		return wt.Run(ctx)
	})
}

func printWatchEvent(p *output.Printer, ev watch.Event) {
	we := watchEvent{Time: time.Now(), Path: "/" + ev.Path, Op: ev.Op.String()}
	if ev.Err != nil {
		we.Error = ev.Err.Error()
	}
	if ev.Node != nil {
		we.Kind = ev.Node.Kind().String()
		if f, ok := ev.Node.(*handler.File); ok {
			we.Format = f.Format().Name()
		}
	}

	switch p.Format() {
	case output.FormatJSON:
		_ = output.PrintJSONLine(p.Writer(), we)
	case output.FormatYAML:
		p.Println("---")
		_ = output.PrintYAML(p.Writer(), we)
	default:
		switch {
		case we.Error != "":
			p.Warning(fmt.Sprintf("%s %s: %s", we.Op, we.Path, we.Error))
		case ev.Node == nil:
			p.Println(we.Op, we.Path, "(gone)")
		default:
			p.Println(we.Op, we.Path, we.Format)
		}
	}
}
