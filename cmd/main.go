package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"clause-summarizer/internal/config"
	"clause-summarizer/internal/embedding"
	"clause-summarizer/internal/helper"
	"clause-summarizer/internal/index"
	"clause-summarizer/internal/llmservice"
	"clause-summarizer/internal/models"
	"clause-summarizer/internal/parser"
	"clause-summarizer/internal/rag"
	"clause-summarizer/internal/summarize"
)

const configFilePath = "./configs/config.yaml"

// clauseFlags collects repeated -clause values.
type clauseFlags []string

func (c *clauseFlags) String() string { return strings.Join(*c, ", ") }

func (c *clauseFlags) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	var clauses clauseFlags
	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file")
	flag.Var(&clauses, "clause", "Clause to summarize (repeatable)")
	dryRun := flag.Bool("dry-run", false, "Print the tagged document and exit")
	asJSON := flag.Bool("json", false, "Print results as JSON")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Please provide a document file using the -file flag")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setLogLevel(cfg.LogLevel)
	log.Debug().Str("llm", cfg.LLM.Provider).Str("embed_llm", cfg.EmbedLLM.Provider).Str("vector_store", cfg.VectorStore.Type).Msg("Loaded config")

	ctx := context.Background()

	if *dryRun {
		printTagged(*filePath, cfg)
		return
	}

	if len(clauses) == 0 {
		log.Fatal().Msg("Please provide at least one clause using the -clause flag")
	}

	result, err := summarizeDocument(ctx, cfg, *filePath, clauses)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			log.Fatal().Err(err).Msg("Invalid input")
		case errors.Is(err, models.ErrExtraction):
			log.Fatal().Err(err).Msg("Error extracting document")
		default:
			log.Fatal().Err(err).Msg("Error summarizing clauses")
		}
	}

	if *asJSON {
		printJSON(result)
		return
	}
	printResults(result)
}

func summarizeDocument(ctx context.Context, cfg *config.Config, filePath string, clauses []string) (*models.SummaryResult, error) {
	embedder, err := embedding.NewEmbedder(ctx, &cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	defer helper.CloseAll(embedder)

	generator, err := llmservice.NewGenerator(ctx, &cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}
	defer helper.CloseAll(generator)

	idx, err := index.New(ctx, cfg, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	defer helper.CloseAll(idx)

	pipeline := rag.NewRAG(idx, summarize.NewEngine(generator), cfg)
	return pipeline.Process(ctx, filePath, clauses)
}

func printTagged(filePath string, cfg *config.Config) {
	pages, err := parser.Extract(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error extracting document")
	}
	groups := parser.Tag(pages, cfg)
	log.Info().Int("groups", len(groups)).Msg("Parsed content")
	helper.PrettyPrint(os.Stdout, groups)
}

func printResults(result *models.SummaryResult) {
	for _, r := range result.Results() {
		log.Info().Msg("Clause: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", r.Clause)

		log.Info().Msg("Summary: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", r.Summary)
	}
	if failed := result.Failed(); len(failed) > 0 {
		log.Warn().Strs("clauses", failed).Msg("Some clauses could not be summarized")
	}
}

type jsonResult struct {
	Clause   string `json:"clause"`
	Summary  string `json:"summary"`
	NotFound bool   `json:"not_found"`
	Error    string `json:"error,omitempty"`
}

func printJSON(result *models.SummaryResult) {
	out := make([]jsonResult, 0, result.Len())
	for _, r := range result.Results() {
		jr := jsonResult{Clause: r.Clause, Summary: r.Summary, NotFound: r.NotFound()}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		out = append(out, jr)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("Error encoding results")
	}
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
