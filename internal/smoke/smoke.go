// Package smoke runs the end-to-end exercise against a live ingress service:
// a health check, an ingest of synthesized sample data, and an optional
// verification against the Iceberg REST catalog.
package smoke

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/datapassage/icefeed/pkg/catalog"
	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/errors"
	"github.com/datapassage/icefeed/pkg/ingest"
	"github.com/datapassage/icefeed/pkg/logger"
)

// StepResult records the outcome of one smoke step.
type StepResult struct {
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Duration time.Duration `json:"duration"`
	Detail   string        `json:"detail,omitempty"`
	Err      error         `json:"-"`
}

// Report is the outcome of a full smoke run. Steps appear in execution
// order; the run stops at the first failure.
type Report struct {
	Steps   []StepResult `json:"steps"`
	Records uint64       `json:"records_ingested"`
}

// OK reports whether every executed step passed.
func (r *Report) OK() bool {
	for _, s := range r.Steps {
		if !s.OK {
			return false
		}
	}
	return len(r.Steps) > 0
}

// FirstError returns the error of the first failed step, or nil.
func (r *Report) FirstError() error {
	for _, s := range r.Steps {
		if !s.OK {
			return s.Err
		}
	}
	return nil
}

// Runner drives a smoke run against one service.
type Runner struct {
	ingress   *ingest.Client
	catalog   *catalog.Client // nil disables verification
	table     string
	namespace string
	dataset   *dataset.Dataset
	logger    *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCatalog enables post-ingest verification against the REST catalog.
func WithCatalog(c *catalog.Client) Option {
	return func(r *Runner) { r.catalog = c }
}

// WithDataset overrides the sample data used for the ingest step.
func WithDataset(ds *dataset.Dataset) Option {
	return func(r *Runner) { r.dataset = ds }
}

// NewRunner creates a smoke runner targeting the given table.
func NewRunner(client *ingest.Client, table, namespace string, log *zap.Logger, opts ...Option) *Runner {
	if log == nil {
		log = logger.Get()
	}
	r := &Runner{
		ingress:   client,
		table:     table,
		namespace: namespace,
		dataset:   dataset.SampleUsers(),
		logger:    log.With(zap.String("component", "smoke")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the smoke steps in order, aborting at the first failure.
func (r *Runner) Run(ctx context.Context) *Report {
	report := &Report{}

	if !r.step(ctx, report, "health", r.runHealth) {
		return report
	}
	if !r.step(ctx, report, "ingest", r.runIngest(report)) {
		return report
	}
	if r.catalog != nil {
		r.step(ctx, report, "verify", r.runVerify)
	}
	return report
}

func (r *Runner) step(ctx context.Context, report *Report, name string, fn func(context.Context) (string, error)) bool {
	start := time.Now()
	detail, err := fn(ctx)
	res := StepResult{
		Name:     name,
		OK:       err == nil,
		Duration: time.Since(start),
		Detail:   detail,
		Err:      err,
	}
	report.Steps = append(report.Steps, res)

	if err != nil {
		fields := []zap.Field{
			zap.String("step", name),
			zap.Duration("duration", res.Duration),
			zap.Error(err),
		}
		if hint, ok := errors.DetailIn(err, ingest.HintDetailKey); ok {
			fields = append(fields, zap.Any("hint", hint))
		}
		r.logger.Error("smoke step failed", fields...)
		return false
	}

	r.logger.Info("smoke step passed",
		zap.String("step", name),
		zap.Duration("duration", res.Duration),
		zap.String("detail", detail))
	return true
}

func (r *Runner) runHealth(ctx context.Context) (string, error) {
	status, err := r.ingress.Health(ctx)
	if err != nil {
		return "", err
	}
	if !status.Healthy() {
		return "", errors.Newf(errors.ErrorTypeHealth, "service reported status %q", status.Status).
			WithDetail("service", status.Service)
	}
	return "service " + status.Service + " is " + status.Status, nil
}

func (r *Runner) runIngest(report *Report) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		resp, err := r.ingress.IngestDataset(ctx, r.table, r.namespace, r.dataset)
		if err != nil {
			return "", err
		}
		if !resp.Success {
			return "", errors.Newf(errors.ErrorTypeData, "service rejected the batch: %s", resp.Message)
		}
		if resp.RecordsIngested != nil {
			report.Records = *resp.RecordsIngested
			if want := uint64(r.dataset.NumRows()); *resp.RecordsIngested != want {
				return "", errors.Newf(errors.ErrorTypeData,
					"service acknowledged %d records, sent %d", *resp.RecordsIngested, want)
			}
		}
		return resp.Message, nil
	}
}

func (r *Runner) runVerify(ctx context.Context) (string, error) {
	if err := r.catalog.Probe(ctx); err != nil {
		return "", err
	}
	exists, err := r.catalog.TableExists(ctx, r.namespace, r.table)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", errors.Newf(errors.ErrorTypeData,
			"table %s.%s not found in the catalog", r.namespace, r.table)
	}
	return "table " + r.namespace + "." + r.table + " present in catalog", nil
}
