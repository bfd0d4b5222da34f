// Package main provides the Sports-See server binary.
// The server answers natural-language sports questions over HTTP by routing
// them to SQL over the stats database, vector retrieval, or both.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/config"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sportssee-server",
		Short: "Sports-See Server - hybrid sports question answering",
		Long: `Sports-See Server exposes the answer pipeline over HTTP.

Statistical questions run as SQL against the read-only stats database,
discussion questions as vector retrieval against the indexed corpus, and
hybrid questions as both. Requires a reachable Qdrant instance and an
Ollama endpoint.

Examples:
  sportssee-server                           # Start with defaults
  sportssee-server --port 9090               # Custom HTTP port
  sportssee-server -c config.yaml            # Load a config file
  sportssee-server --qdrant http://q:6333    # Override the Qdrant URL`,
		RunE:         runServer,
		SilenceUsage: true,
	}

	// Server flags
	rootCmd.Flags().StringP("config", "c", "", "config file path")
	rootCmd.Flags().BoolP("verbose", "v", false, "verbose logging")
	rootCmd.Flags().Int("port", 8080, "HTTP server port")
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().String("qdrant", "", "Qdrant URL (overrides config)")
	rootCmd.Flags().String("db", "", "stats database path (overrides config)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sportssee-server %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	qdrantURL, _ := cmd.Flags().GetString("qdrant")
	dbPath, _ := cmd.Flags().GetString("db")

	// Load config
	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override from flags
	if cmd.Flags().Changed("port") {
		appCfg.Port = port
	}
	if cmd.Flags().Changed("host") {
		appCfg.Host = host
	}
	if qdrantURL != "" {
		appCfg.Qdrant.URL = qdrantURL
	}
	if dbPath != "" {
		appCfg.Database.Path = dbPath
	}

	// Setup logger
	logLevel := appCfg.Log.Level
	if verbose {
		logLevel = "debug"
	}
	log := logger.New(logLevel, appCfg.Log.Format)

	log.Info("Starting Sports-See server",
		"version", version,
		"host", appCfg.Host,
		"port", appCfg.Port,
		"qdrant", appCfg.Qdrant.URL,
		"database", appCfg.Database.Path,
	)

	srvCfg := server.DefaultConfig()
	srvCfg.Host = appCfg.Host
	srvCfg.Port = appCfg.Port
	srvCfg.Version = version

	srv, err := server.New(srvCfg, *appCfg, log)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Stop(ctx)
}
