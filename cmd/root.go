package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/martin/scriptctl/internal/controller"
	"github.com/martin/scriptctl/internal/execution"
	"github.com/martin/scriptctl/internal/state"
	"github.com/martin/scriptctl/internal/tui"
)

func SetVersionInfo(version, commit string) {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
}

var rootCmd = &cobra.Command{
	Use:   "scriptctl [script]",
	Short: "Run and watch scripts on a script server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listScripts(cmd)
		}
		return runScriptTUI(cmd.Context(), args[0])
	},
}

func runScriptTUI(ctx context.Context, name string) error {
	client, logger, err := newClient(false)
	if err != nil {
		return err
	}

	sc, err := client.ScriptInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("fetching script %q: %w", name, err)
	}

	store, err := state.Open()
	if err != nil {
		logger.Warn("state store unavailable, reattachment disabled", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	// The surface needs the program to send messages and the program needs
	// the model, which needs the surface. Late-bind the sink.
	var p *tea.Program
	surface := tui.NewSurface(func(msg tea.Msg) { p.Send(msg) })
	p = tea.NewProgram(tui.NewModel(name, surface), tea.WithAltScreen())

	// Program.Send blocks until Run starts consuming, so the coordinator is
	// built concurrently: its constructor already renders into the surface.
	coordc := make(chan *controller.Coordinator, 1)
	go func() {
		c := controller.New(sc, surface,
			func() controller.Handle { return execution.NewHandle(client, name) },
			logger,
			controller.WithStartCallback(recordStart(store, name)))

		if store != nil {
			if id, err := store.ActiveExecution(name); err == nil && id != "" {
				if h, err := execution.Attach(ctx, client, name, id); err == nil {
					c.Attach(h)
					watchFinish(store, h)
				} else {
					logger.Info("recorded execution is gone", "id", id, "error", err)
					_ = store.MarkFinished(id)
				}
			}
		}
		coordc <- c
	}()

	_, runErr := p.Run()

	// Quitting the TUI detaches locally; a running execution keeps running
	// and the next invocation reattaches to it.
	select {
	case c := <-coordc:
		c.Dispose()
	default:
	}

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

// recordStart persists freshly started executions so they can be reattached
// and marks them finished when they stop.
func recordStart(store *state.Store, name string) func(controller.Handle) {
	return func(h controller.Handle) {
		hd, ok := h.(*execution.Handle)
		if !ok || store == nil {
			return
		}
		_ = store.RecordStarted(hd.ID(), name, hd.Parameters())
		watchFinish(store, hd)
	}
}

func watchFinish(store *state.Store, h *execution.Handle) {
	if store == nil {
		return
	}
	id := h.ID()
	h.AddListener(&execution.Listener{
		OnExecutionStop: func() { _ = store.MarkFinished(id) },
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
