package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/embedding"
	"github.com/Rrens/rag-chatbot/internal/repository/qdrant"
	"github.com/Rrens/rag-chatbot/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Ingester is satisfied by service.RAGService
type Ingester interface {
	Ingest(ctx context.Context, docs []domain.Document) (*domain.IngestResult, error)
}

func main() {
	file := flag.String("file", "", "JSON array of documents to ingest (- for stdin)")
	batchSize := flag.Int("batch", 64, "documents per upsert")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -file docs.json [-batch 64]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	docs, err := readDocuments(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read documents")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index, err := qdrant.New(cfg.Qdrant)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Qdrant client")
	}
	defer index.Close()

	if err := index.EnsureCollection(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize vector collection")
	}

	rag := service.NewRAGService(embedding.NewHashEmbedder(cfg.Qdrant.Dimension), index, cfg.RAG)

	total, err := ingestBatches(ctx, rag, docs, *batchSize)
	if err != nil {
		log.Fatal().Err(err).Int("ingested", total.Ingested).Msg("Ingestion aborted")
	}

	log.Info().
		Int("documents", len(docs)).
		Int("ingested", total.Ingested).
		Int("failed", total.Failed).
		Msg("Ingestion finished")
}

func readDocuments(path string) ([]domain.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var docs []domain.Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return docs, nil
}

// ingestBatches feeds docs to the ingester in chunks of size and sums the results.
// Failure indexes are reported relative to the whole input.
func ingestBatches(ctx context.Context, ingester Ingester, docs []domain.Document, size int) (*domain.IngestResult, error) {
	if size <= 0 {
		size = len(docs)
	}

	total := &domain.IngestResult{}
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))

		result, err := ingester.Ingest(ctx, docs[start:end])
		if err != nil {
			return total, fmt.Errorf("batch %d-%d: %w", start, end-1, err)
		}

		total.Ingested += result.Ingested
		total.Failed += result.Failed
		total.IDs = append(total.IDs, result.IDs...)
		for _, f := range result.Failures {
			f.Index += start
			total.Failures = append(total.Failures, f)
			log.Warn().Int("index", f.Index).Str("id", f.ID).Str("error", f.Error).Msg("Document skipped")
		}

		log.Info().
			Int("from", start).
			Int("to", end-1).
			Int("ingested", result.Ingested).
			Int("failed", result.Failed).
			Msg("Batch ingested")
	}
	return total, nil
}
