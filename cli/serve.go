package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digitorus/pdfstamp/server"
	"github.com/digitorus/pdfstamp/storage"
)

func newServeCommand(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the signing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, addr, err := a.server(listen)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, overrides the configuration")
	return cmd
}

// server builds the HTTP server from the loaded configuration.
func (a *app) server(listen string) (*server.Server, string, error) {
	var store *storage.Store
	if dir := a.cfg.Storage.Dir; dir != "" {
		var err error
		if store, err = storage.New(dir); err != nil {
			return nil, "", err
		}
		a.logger.Info("document storage enabled", zap.String("dir", dir))
	}

	if listen == "" {
		listen = a.cfg.Server.Listen
	}

	srv := server.New(a.stamper, store, a.logger, server.Config{
		MaxUploadBytes: a.cfg.MaxUploadBytes(),
		AllowOrigin:    a.cfg.Server.AllowOrigin,
	})
	return srv, listen, nil
}
