package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/reason3/internal/bootstrap"
	"github.com/bryanwahyu/reason3/internal/config"
	"github.com/bryanwahyu/reason3/internal/logging"
)

// loadApp reads the configuration named by --config and wires the services.
// format overrides the configured log format when not empty.
func loadApp(ctx context.Context, cmd *cobra.Command, format string) (*bootstrap.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = cfg.Log.Format
	}
	logger, err := logging.New(cfg.Log.Level, format)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
