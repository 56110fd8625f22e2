package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/martin/scriptctl/internal/api"
	"github.com/martin/scriptctl/internal/config"
)

// newClient builds an API client from the user's config. The logger sink
// depends on the command: TUI commands log to a file so slog output does not
// corrupt the alternate screen, headless commands log to stderr.
func newClient(headless bool) (*api.Client, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg, headless)
	return api.NewClient(cfg.Server.URL, cfg.Server.Token, logger), logger, nil
}

func newLogger(cfg *config.Config, headless bool) *slog.Logger {
	var sink io.Writer
	if headless {
		sink = os.Stderr
	} else {
		sink = openLogFile(cfg.LogFile)
	}
	return slog.New(slog.NewTextHandler(sink, nil))
}

// openLogFile opens the configured log file, falling back to the state
// directory and finally to discarding.
func openLogFile(path string) io.Writer {
	if path == "" {
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return io.Discard
			}
			stateHome = filepath.Join(home, ".local", "state")
		}
		path = filepath.Join(stateHome, "scriptctl", "scriptctl.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return io.Discard
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard
	}
	return f
}

// parseParamFlags splits repeated "-p key=value" flags into a value map.
func parseParamFlags(flags []string) (map[string]string, error) {
	values := map[string]string{}
	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", flag)
		}
		values[key] = value
	}
	return values, nil
}
