package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/school-finder/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that exposes per-tab search sessions, the school list and advice requests.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	addLLMFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	requester, client, err := newRequester(ctx, appConfig)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	srv, err := server.New(server.Config{
		Port:        appConfig.Port,
		LoadTimeout: appConfig.LoadTimeout.Std(),
		SessionTTL:  appConfig.SessionTTL.Std(),
	}, server.Deps{
		Loader:  newProvider(appConfig),
		Advisor: requester,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("serving",
		zap.Int("port", appConfig.Port),
		zap.String("model", client.GetModel(requesterTier)))
	return srv.Start(ctx)
}
