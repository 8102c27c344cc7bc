package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/vetsearch/internal/logger"
	"github.com/kailas-cloud/vetsearch/internal/transport/response"
)

const methodAll = "all"

type queryFlags struct {
	method  string
	filters map[string]string
	topK    int
}

func newQueryCmd(root *rootFlags) *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run one search against the configured backends and print JSON",
		Example: `  vetsearch query "canine parvovirus vaccination"
  vetsearch query --method dense --filter strand=clinical --top-k 5 "equine colic"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, root, flags, args[0])
		},
	}
	cmd.Flags().StringVarP(&flags.method, "method", "m", methodAll, "bm25, unicoil, dense, multivector or all")
	cmd.Flags().StringToStringVarP(&flags.filters, "filter", "f", nil, "equality filter field=value (repeatable)")
	cmd.Flags().IntVarP(&flags.topK, "top-k", "k", 0, "number of results (default from config)")
	return cmd
}

func runQuery(cmd *cobra.Command, root *rootFlags, flags *queryFlags, text string) error {
	cfg, err := root.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// One-shot runs log quietly unless configured otherwise.
	level := cfg.Logging.Level
	if level == "" {
		level = "warn"
	}
	logger, err := logpkg.NewLogger(root.env, level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var b backend.Backend
	if flags.method != methodAll {
		if b, err = backend.FromMethod(flags.method); err != nil {
			return err //nolint:wrapcheck // already names the method
		}
	}

	f, err := filter.Parse(flags.filters)
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	topK := flags.topK
	if topK == 0 {
		topK = cfg.Search.DefaultTopK
	}
	q, err := query.New(text, f, topK, cfg.Search.MaxTopK)
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var payload any
	if flags.method == methodAll {
		outcome, err := a.search.ExecuteAll(ctx, &q)
		if err != nil {
			return err //nolint:wrapcheck // already descriptive
		}
		payload = response.NewCombined(outcome)
	} else {
		rs, err := a.search.Execute(ctx, &q, b)
		if err != nil {
			return err //nolint:wrapcheck // already descriptive
		}
		payload = response.NewSingle(&q, &rs)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		logger.Error("Failed to write results", zap.Error(err))
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}
