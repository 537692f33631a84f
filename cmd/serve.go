package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/report-studio/internal/config"
	"github.com/sells-group/report-studio/internal/review"
	"github.com/sells-group/report-studio/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review UI and PDF endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := newServer(cfg, resolvePort(servePort, cfg.Server.Port))
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

func newServer(c *config.Config, port int) (*server.Server, error) {
	r, err := newRendering(c)
	if err != nil {
		return nil, err
	}

	return server.New(server.Config{
		Addr:            fmt.Sprintf("%s:%d", c.Server.Host, port),
		MaxBodyBytes:    c.Server.MaxBodyBytes,
		RateLimit:       c.Server.RateLimit,
		RateBurst:       c.Server.RateBurst,
		ShutdownTimeout: c.Server.ShutdownTimeout(),
	}, server.Dependencies{
		Renderer:  r.Renderer,
		Converter: r.Chrome,
		Native:    r.Native,
		Exporter:  r.exporter(c.PDF.Engine),
		Store:     review.NewStore(),
		Upload:    uploadOptions(c),
	})
}
