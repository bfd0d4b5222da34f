package main

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/config"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/ingest"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/provider"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/qdrant"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [corpus.jsonl]",
		Short: "Embed and index a discussion corpus",
		Long: `Ingest reads a JSONL corpus of discussion posts, chunks and embeds the
text, and upserts the vectors into Qdrant. It talks to Qdrant and Ollama
directly instead of the API server, so a corpus can be indexed before
the server starts. Re-ingesting the same corpus overwrites existing
points rather than duplicating them.

Connection settings come from the config file and SPORTSSEE_* / QDRANT_*
environment variables.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().String("collection", retrieval.DefaultCollection, "target collection (prefix applied from config)")
	cmd.Flags().Int("chunk-chars", 0, "chunk size in characters")
	cmd.Flags().Int("chunk-overlap", 0, "chunk overlap in characters")
	cmd.Flags().Int("workers", 0, "concurrent embed workers")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	collection, _ := cmd.Flags().GetString("collection")
	chunkChars, _ := cmd.Flags().GetInt("chunk-chars")
	chunkOverlap, _ := cmd.Flags().GetInt("chunk-overlap")
	workers, _ := cmd.Flags().GetInt("workers")

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := appCfg.Log.Level
	if verbose {
		logLevel = "debug"
	}
	log := logger.New(logLevel, appCfg.Log.Format)

	// Connect to Qdrant
	qdrantCfg := qdrant.DefaultClientConfig()
	if appCfg.Qdrant.URL != "" {
		host, port, err := parseQdrantURL(appCfg.Qdrant.URL)
		if err != nil {
			return fmt.Errorf("invalid Qdrant URL: %w", err)
		}
		qdrantCfg.Host = host
		qdrantCfg.Port = port
	}
	if appCfg.Qdrant.APIKey != "" {
		qdrantCfg.APIKey = appCfg.Qdrant.APIKey
	}
	if appCfg.Qdrant.CollectionPrefix != "" {
		qdrantCfg.CollectionPrefix = appCfg.Qdrant.CollectionPrefix
	}

	qc, err := qdrant.NewClient(qdrantCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer func() { _ = qc.Close() }()

	// Embeddings go through the caching layer so duplicate chunks in a
	// corpus cost one provider call
	ollama := provider.NewOllama(appCfg.Ollama, log)
	embedder := provider.NewCachedEmbedder(ollama, appCfg.Ollama.EmbedModel, appCfg.Ollama.CacheSize)

	cfg := ingest.DefaultConfig()
	cfg.Collection = collection
	cfg.VectorDim = appCfg.Qdrant.VectorDim
	if chunkChars > 0 {
		cfg.ChunkChars = chunkChars
	}
	if chunkOverlap > 0 {
		cfg.ChunkOverlap = chunkOverlap
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	pipeline := ingest.NewPipeline(cfg, embedder, qc, log, nil)

	result, err := pipeline.IngestFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ingested %d posts into %s: %d chunks in %d batches, %d skipped, took %s\n",
		result.Posts, collection, result.Chunks, result.Batches, result.Skipped,
		result.Duration.Round(time.Millisecond))
	return nil
}

// parseQdrantURL extracts host and gRPC port from a Qdrant URL.
// Example: http://localhost:6333 -> localhost, 6334 (gRPC port)
func parseQdrantURL(rawURL string) (string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}

	// Get port from URL, default to 6333 (HTTP)
	portStr := u.Port()
	httpPort := 6333
	if portStr != "" {
		httpPort, err = strconv.Atoi(portStr)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port: %s", portStr)
		}
	}

	// Qdrant gRPC port is typically HTTP port + 1
	grpcPort := httpPort + 1

	return host, grpcPort, nil
}
