package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitsync/fitsync/internal/controllers"
	"github.com/fitsync/fitsync/internal/initialization"
	"github.com/fitsync/fitsync/internal/server"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the connector service",
		Long:  `Start the HTTP service exposing the sync endpoint for each configured data source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	}

	return cmd
}

func runStart() error {
	ctx := context.Background()

	config, err := initialization.LoadConfig()
	if err != nil {
		return err
	}

	connectorSelector, err := initialization.BuildConnectorSelector(config)
	if err != nil {
		return err
	}

	connectorController := controllers.NewConnectorController(controllers.ConnectorControllerDependencies{
		ConnectorSelector: connectorSelector,
	})

	app := server.NewHTTPServer(ctx, server.HTTPServerDependencies{
		ConnectorController: connectorController,
	})

	go func() {
		if err := app.Listen(config.HTTPAddress); err != nil {
			log.Fatal().Err(err).Msg("HTTP server stopped")
		}
	}()

	log.Info().Str("address", config.HTTPAddress).Msg("Connector service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return app.ShutdownWithContext(shutdownCtx)
}
