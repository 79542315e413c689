// Package verify asks a local language model to review breed submissions
// and sorts them into verified and failed tables.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/qwex/breedcheck/internal/model"
	"github.com/qwex/breedcheck/internal/resilience"
	"github.com/qwex/breedcheck/internal/tabular"
	"github.com/qwex/breedcheck/pkg/ollama"
)

// Config is the explicit configuration for one verification run.
type Config struct {
	EndpointURL        string // Ollama base URL, e.g. http://localhost:11434
	ModelName          string
	InputPath          string
	VerifiedOutputPath string
	FailedOutputPath   string

	// Concurrency bounds in-flight requests. Values <= 1 process records
	// strictly one at a time.
	Concurrency int
	// Limit caps the number of records read (0 = all).
	Limit int
	// SheetName selects the worksheet of an .xlsx input.
	SheetName string
	// InputEncoding is the character encoding of a CSV input.
	InputEncoding string
	// Reprocess drops verdict and diagnostic columns left by a previous
	// run so a failed artifact can be fed back in.
	Reprocess bool
}

// Validate checks that the paths and model needed for a run are set.
func (c Config) Validate() error {
	var missing []string
	if c.EndpointURL == "" {
		missing = append(missing, "endpoint url")
	}
	if c.ModelName == "" {
		missing = append(missing, "model name")
	}
	if c.InputPath == "" {
		missing = append(missing, "input path")
	}
	if c.VerifiedOutputPath == "" {
		missing = append(missing, "verified output path")
	}
	if c.FailedOutputPath == "" {
		missing = append(missing, "failed output path")
	}
	if len(missing) > 0 {
		return eris.Errorf("verify: missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Client builds an Ollama client for the configured endpoint and model.
func (c Config) Client(opts ...ollama.Option) ollama.Client {
	base := []ollama.Option{ollama.WithBaseURL(c.EndpointURL), ollama.WithModel(c.ModelName)}
	return ollama.NewClient(append(base, opts...)...)
}

// Summary reports the result of a run.
type Summary struct {
	Total           int
	Verified        int
	Failed          int
	ErrorKinds      map[model.ErrorKind]int
	VerifiedWritten bool
	FailedWritten   bool
	Outcomes        []model.Outcome
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLimiter paces requests to the model endpoint.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Pipeline) {
		p.limiter = l
	}
}

// Pipeline verifies breed records against a model endpoint.
type Pipeline struct {
	cfg     Config
	client  ollama.Client
	limiter *rate.Limiter
}

// NewPipeline creates a pipeline that sends prompts through client.
func NewPipeline(cfg Config, client ollama.Client, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, client: client}
	for _, o := range opts {
		o(p)
	}
	return p
}

// LoadRecords reads the configured input, applying Reprocess and Limit.
func (p *Pipeline) LoadRecords() ([]model.BreedRecord, error) {
	opts := tabular.ReadOptions{
		Encoding:  p.cfg.InputEncoding,
		SheetName: p.cfg.SheetName,
	}
	if p.cfg.Reprocess {
		opts.DropColumns = model.OutputOnlyColumns
	}

	recs, err := tabular.ReadRecords(p.cfg.InputPath, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "verify: read input %s", p.cfg.InputPath)
	}
	if p.cfg.Limit > 0 && p.cfg.Limit < len(recs) {
		recs = recs[:p.cfg.Limit]
	}
	return recs, nil
}

// Run reads the input, verifies every record and writes both output
// tables. A missing or unreadable input is the only error; per-record
// failures are reported as error rows in the failed table.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	recs, err := p.LoadRecords()
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded breed records",
		zap.String("input", p.cfg.InputPath),
		zap.Int("records", len(recs)),
	)

	outcomes := p.VerifyAll(ctx, recs)
	verified, failed := Partition(outcomes)

	summary := &Summary{
		Total:      len(outcomes),
		Verified:   len(verified),
		Failed:     len(failed),
		ErrorKinds: make(map[model.ErrorKind]int),
		Outcomes:   outcomes,
	}
	for _, o := range failed {
		if e, ok := o.(*model.ErrorRecord); ok {
			summary.ErrorKinds[e.Kind]++
		}
	}

	if len(outcomes) == 0 {
		zap.L().Info("no results to save")
		return summary, nil
	}

	if summary.VerifiedWritten, err = WriteGroup(p.cfg.VerifiedOutputPath, "verified", verified); err != nil {
		return summary, eris.Wrap(err, "verify: write verified output")
	}
	if summary.FailedWritten, err = WriteGroup(p.cfg.FailedOutputPath, "failed", failed); err != nil {
		return summary, eris.Wrap(err, "verify: write failed output")
	}

	return summary, nil
}

// VerifyAll verifies records and returns one outcome per record in input
// order.
func (p *Pipeline) VerifyAll(ctx context.Context, recs []model.BreedRecord) []model.Outcome {
	outcomes := make([]model.Outcome, len(recs))

	if p.cfg.Concurrency <= 1 {
		for i, rec := range recs {
			logRecordBanner(i, len(recs), rec)
			outcomes[i] = p.VerifyRecord(ctx, rec)
		}
		return outcomes
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, rec := range recs {
		g.Go(func() error {
			logRecordBanner(i, len(recs), rec)
			outcomes[i] = p.VerifyRecord(gCtx, rec)
			return nil // a failed record never aborts the batch
		})
	}
	_ = g.Wait()

	return outcomes
}

// VerifyRecord runs one record through prompt, model, extraction and
// reconciliation. It always returns an outcome.
func (p *Pipeline) VerifyRecord(ctx context.Context, rec model.BreedRecord) model.Outcome {
	log := zap.L().With(zap.Int("row", rec.Index), zap.String("name", rec.Name()))

	prompt, err := BuildPrompt(rec)
	if err != nil {
		log.Error("build prompt", zap.Error(err))
		return model.NewErrorRecord(rec, model.ErrorKindAPICall, model.NoResponseText, "")
	}

	text, err := p.generate(ctx, prompt)
	if err != nil {
		fields := []zap.Field{
			zap.String("url", p.client.URL()),
			zap.String("error_class", string(resilience.ClassifyError(err))),
			zap.Error(err),
		}
		var se *ollama.StatusError
		if errors.As(err, &se) {
			fields = append(fields, zap.Int("status", se.StatusCode), zap.String("body", se.Body))
		}
		log.Error("ollama request failed", fields...)
		return model.NewErrorRecord(rec, model.ErrorKindAPICall, model.NoResponseText, "")
	}
	log.Debug("raw model response", zap.String("response", text))

	verdict, xerr := ExtractVerdict(text)
	if xerr != nil {
		log.Warn("could not extract verdict",
			zap.String("failure", xerr.Failure.String()),
			zap.String("extracted", xerr.Extracted),
			zap.String("raw", xerr.Raw),
			zap.NamedError("parse_error", xerr.Err),
		)
		return Degrade(rec, xerr)
	}

	out := Reconcile(rec, verdict)
	log.Info("verdict",
		zap.Bool(model.KeyIsRealBreed, out.IsRealBreed),
		zap.Bool(model.KeyIsAppropriate, out.IsAppropriate),
		zap.Float64(model.KeyConfidenceScore, out.ConfidenceScore),
	)
	return out
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "verify: wait for rate limiter")
		}
	}
	resp, err := p.client.Generate(ctx, ollama.GenerateRequest{
		Model:  p.cfg.ModelName,
		Prompt: prompt,
	})
	if err != nil {
		return "", err
	}
	return resp.Response, nil
}

// logRecordBanner logs progress for the current record.
func logRecordBanner(idx, total int, rec model.BreedRecord) {
	zap.L().Info(fmt.Sprintf("======== breed %d/%d ========", idx+1, total),
		zap.String("name", rec.Name()),
	)
}
