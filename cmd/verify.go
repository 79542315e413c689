package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/qwex/breedcheck/internal/config"
	"github.com/qwex/breedcheck/internal/model"
	"github.com/qwex/breedcheck/internal/store"
	"github.com/qwex/breedcheck/internal/verify"
	"github.com/qwex/breedcheck/pkg/ollama"
)

var (
	verifyInput          string
	verifyVerifiedOutput string
	verifyFailedOutput   string
	verifyEndpoint       string
	verifyModel          string
	verifyConcurrency    int
	verifyLimit          int
	verifySheet          string
	verifyEncoding       string
	verifyReprocess      bool
	verifyDryRun         bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify breed records against an Ollama model",
	Long: `Reads breed records from a CSV or XLSX file, asks the model to review each
one, and writes verified_breeds.csv and failed_breeds.csv.

Examples:
  # Default paths, model and endpoint
  breedcheck verify

  # Parse the input only
  breedcheck verify --input breeds.xlsx --sheet Submissions --dry-run

  # Re-run the failures of a previous run
  breedcheck verify --input failed_breeds.csv --reprocess --failed-output failed_again.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		vcfg := buildVerifyConfig(cmd, cfg)

		if verifyDryRun {
			p := verify.NewPipeline(vcfg, nil)
			recs, err := p.LoadRecords()
			if err != nil {
				return err
			}
			return printRecordsJSON(os.Stdout, recs)
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		var opts []verify.Option
		if rps := cfg.Ollama.RequestsPerSecond; rps > 0 {
			opts = append(opts, verify.WithLimiter(rate.NewLimiter(rate.Limit(rps), 1)))
		}

		var clientOpts []ollama.Option
		if cfg.Ollama.TimeoutSecs > 0 {
			clientOpts = append(clientOpts, ollama.WithTimeout(time.Duration(cfg.Ollama.TimeoutSecs)*time.Second))
		}

		p := verify.NewPipeline(vcfg, vcfg.Client(clientOpts...), opts...)
		return runVerify(ctx, p, vcfg)
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyInput, "input", "", "input CSV or XLSX (default from verify.input_path)")
	verifyCmd.Flags().StringVar(&verifyVerifiedOutput, "verified-output", "", "verified records CSV (default from verify.verified_output_path)")
	verifyCmd.Flags().StringVar(&verifyFailedOutput, "failed-output", "", "failed records CSV (default from verify.failed_output_path)")
	verifyCmd.Flags().StringVar(&verifyEndpoint, "endpoint", "", "Ollama base URL (default from ollama.base_url)")
	verifyCmd.Flags().StringVar(&verifyModel, "model", "", "Ollama model name (default from ollama.model)")
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", 0, "max records in flight (default from verify.concurrency)")
	verifyCmd.Flags().IntVar(&verifyLimit, "limit", 0, "max records to process (0 = all)")
	verifyCmd.Flags().StringVar(&verifySheet, "sheet", "", "worksheet name for XLSX input (default: first sheet)")
	verifyCmd.Flags().StringVar(&verifyEncoding, "encoding", "", "character encoding of CSV input, e.g. windows-1252")
	verifyCmd.Flags().BoolVar(&verifyReprocess, "reprocess", false, "drop verdict and diagnostic columns from a previous run's output")
	verifyCmd.Flags().BoolVar(&verifyDryRun, "dry-run", false, "parse input and print records, skip the model")
	rootCmd.AddCommand(verifyCmd)
}

// buildVerifyConfig merges command flags over loaded configuration. Flags
// win only when set on the command line.
func buildVerifyConfig(cmd *cobra.Command, c *config.Config) verify.Config {
	// Flags override config in place so Validate sees the effective values.
	if cmd.Flags().Changed("endpoint") {
		c.Ollama.BaseURL = verifyEndpoint
	}
	if cmd.Flags().Changed("model") {
		c.Ollama.Model = verifyModel
	}
	if cmd.Flags().Changed("input") {
		c.Verify.InputPath = verifyInput
	}
	if cmd.Flags().Changed("verified-output") {
		c.Verify.VerifiedOutputPath = verifyVerifiedOutput
	}
	if cmd.Flags().Changed("failed-output") {
		c.Verify.FailedOutputPath = verifyFailedOutput
	}
	if cmd.Flags().Changed("concurrency") {
		c.Verify.Concurrency = verifyConcurrency
	}
	if cmd.Flags().Changed("sheet") {
		c.Verify.SheetName = verifySheet
	}
	if cmd.Flags().Changed("encoding") {
		c.Verify.InputEncoding = verifyEncoding
	}

	return verify.Config{
		EndpointURL:        c.Ollama.BaseURL,
		ModelName:          c.Ollama.Model,
		InputPath:          c.Verify.InputPath,
		VerifiedOutputPath: c.Verify.VerifiedOutputPath,
		FailedOutputPath:   c.Verify.FailedOutputPath,
		Concurrency:        c.Verify.Concurrency,
		Limit:              verifyLimit,
		SheetName:          c.Verify.SheetName,
		InputEncoding:      c.Verify.InputEncoding,
		Reprocess:          verifyReprocess,
	}
}

// runVerify runs the pipeline and records the run in history when a
// database is configured.
func runVerify(ctx context.Context, p *verify.Pipeline, vcfg verify.Config) error {
	var (
		st  store.Store
		run *model.Run
	)
	if cfg.Store.DatabaseURL != "" {
		var err error
		st, err = initStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err = st.CreateRun(ctx, vcfg.InputPath, vcfg.ModelName)
		if err != nil {
			return eris.Wrap(err, "verify: create run")
		}
	}

	summary, err := p.Run(ctx)
	if err != nil {
		if run != nil {
			if ferr := st.FailRun(ctx, run.ID, err.Error()); ferr != nil {
				zap.L().Warn("verify: record failed run", zap.Error(ferr))
			}
		}
		return err
	}

	logSummary(summary)

	if run != nil {
		recordRun(ctx, st, run.ID, summary)
	}
	return nil
}

// recordRun stores outcomes and counts. History is best effort: the output
// files are already written.
func recordRun(ctx context.Context, st store.Store, runID string, s *verify.Summary) {
	if err := st.SaveOutcomes(ctx, runID, s.Outcomes); err != nil {
		zap.L().Warn("verify: save outcomes", zap.String("run_id", runID), zap.Error(err))
	}
	result := &model.RunResult{
		Total:      s.Total,
		Verified:   s.Verified,
		Failed:     s.Failed,
		ErrorKinds: s.ErrorKinds,
	}
	if err := st.CompleteRun(ctx, runID, result); err != nil {
		zap.L().Warn("verify: complete run", zap.String("run_id", runID), zap.Error(err))
		return
	}
	zap.L().Info("verify: run recorded", zap.String("run_id", runID))
}

func logSummary(s *verify.Summary) {
	fields := []zap.Field{
		zap.Int("total", s.Total),
		zap.Int("verified", s.Verified),
		zap.Int("failed", s.Failed),
		zap.Bool("verified_written", s.VerifiedWritten),
		zap.Bool("failed_written", s.FailedWritten),
	}
	for kind, n := range s.ErrorKinds {
		fields = append(fields, zap.Int(string(kind), n))
	}
	zap.L().Info("verify: run complete", fields...)
}

// printRecordsJSON prints parsed records as indented JSON, keeping column
// order.
func printRecordsJSON(w io.Writer, recs []model.BreedRecord) error {
	rows := make([]*model.Row, len(recs))
	for i, r := range recs {
		rows[i] = r.Fields
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
