// Package importer runs a format descriptor over a data file in one of three
// modes and builds the report shown to the caller.
package importer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/importusers/import-service/config"
	"github.com/importusers/import-service/internal/extract"
	"github.com/importusers/import-service/internal/format"
	"github.com/importusers/import-service/internal/password"
	"github.com/importusers/import-service/internal/reconcile"
	"github.com/importusers/import-service/internal/spreadsheet"
	"github.com/importusers/import-service/internal/storage"
	"github.com/importusers/import-service/internal/store"
	"github.com/importusers/import-service/internal/template"
)

var tracer = otel.Tracer("github.com/importusers/import-service/internal/importer")

// ErrInvalidRequest wraps failures caused by the caller's files or choices
var ErrInvalidRequest = errors.New("invalid import request")

// Mode selects what a run does with the data file
type Mode string

const (
	// ModePreview shows raw cells of the data rows
	ModePreview Mode = "preview"
	// ModeReview shows templated records without touching the store
	ModeReview Mode = "review"
	// ModeImport templates and reconciles every record
	ModeImport Mode = "import"
)

// ParseMode accepts a mode name; empty means preview
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModePreview, nil
	case ModePreview, ModeReview, ModeImport:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q", s)
	}
}

// Request describes one run over in-memory files
type Request struct {
	// RunID identifies the run in the report, logs and traces. A new one
	// is generated when empty.
	RunID        string
	Mode         Mode
	DataFileName string
	Data         []byte
	Format       []byte
	// Overrides are explicit caller choices, keyed like the import config
	Overrides map[string]string
}

// StagedRequest describes one run over files previously put in storage
type StagedRequest struct {
	RunID     string
	Mode      Mode
	DataKey   string
	FormatKey string
	Overrides map[string]string
}

// Importer runs imports against a store
type Importer struct {
	store      store.Store
	storage    storage.Storage
	hasher     *password.Hasher
	notifier   Notifier
	defaults   map[string]string
	engineOpts []template.Option
	now        func() time.Time
	logger     *zerolog.Logger
}

// Option configures an Importer
type Option func(*Importer)

// WithDefaults sets the configured option layer
func WithDefaults(cfg config.ImportConfig) Option {
	return func(i *Importer) { i.defaults = ConfigLayer(cfg) }
}

// WithStorage enables RunStaged
func WithStorage(s storage.Storage) Option {
	return func(i *Importer) { i.storage = s }
}

// WithHasher replaces the default password hasher
func WithHasher(h *password.Hasher) Option {
	return func(i *Importer) { i.hasher = h }
}

// WithNotifier replaces the log notifier used for sendPassword
func WithNotifier(n Notifier) Option {
	return func(i *Importer) { i.notifier = n }
}

// WithEngineOptions passes options to the template engine of every run
func WithEngineOptions(opts ...template.Option) Option {
	return func(i *Importer) { i.engineOpts = append(i.engineOpts, opts...) }
}

// WithClock sets the time source for enrolments
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// New creates an Importer. A nil logger discards output.
func New(s store.Store, logger *zerolog.Logger, opts ...Option) *Importer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	i := &Importer{
		store:  s,
		hasher: password.NewHasher(password.DefaultParams),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.notifier == nil {
		i.notifier = NewLogNotifier(logger)
	}
	return i
}

// run carries the state of a single import
type run struct {
	*Importer
	model  *format.Model
	wb     spreadsheet.Workbook
	opts   Options
	engine *template.Engine
	report *Report
	logger *zerolog.Logger
}

type populateFunc func(r *run, ctx context.Context) error

var populators = map[Mode]populateFunc{
	ModePreview: (*run).populatePreview,
	ModeReview:  (*run).populateReview,
	ModeImport:  (*run).populateImport,
}

// Run parses the format, opens the data file and populates a report for
// req.Mode. Only format, data file and store errors fail the run; row-level
// problems are part of the report.
func (i *Importer) Run(ctx context.Context, req Request) (report *Report, err error) {
	start := time.Now()
	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	ctx, span := tracer.Start(ctx, "importer.Run")
	span.SetAttributes(
		attribute.String("import.run_id", runID),
		attribute.String("import.mode", string(req.Mode)),
		attribute.String("import.file", req.DataFileName),
	)
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		runsTotal.WithLabelValues(string(req.Mode), outcome).Inc()
		runDuration.WithLabelValues(string(req.Mode)).Observe(time.Since(start).Seconds())
		span.End()
	}()

	populate, ok := populators[req.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: mode %q", ErrInvalidRequest, req.Mode)
	}

	model, err := format.Parse(req.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: format file: %w", ErrInvalidRequest, err)
	}

	opts, err := ResolveOptions(i.defaults, model.Settings, req.Overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	opts.Reconcile.Now = i.now
	model.ApplyPasswordAction(opts.PasswordAction, opts.PasswordText)

	wb, err := spreadsheet.OpenBytes(req.DataFileName, req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data file: %w", ErrInvalidRequest, err)
	}
	defer wb.Close()

	logger := i.logger.With().Str("run_id", runID).Str("mode", string(req.Mode)).Logger()
	r := &run{
		Importer: i,
		model:    model,
		wb:       wb,
		opts:     opts,
		engine:   template.New(append([]template.Option{template.WithLanguage(template.ParseLanguage(opts.Reconcile.Language))}, i.engineOpts...)...),
		report: &Report{
			RunID:   runID,
			Mode:    req.Mode,
			File:    req.DataFileName,
			Caption: Caption(req.DataFileName, wb.SheetCount(), spreadsheet.TotalRows(wb)),
		},
		logger: &logger,
	}

	logger.Info().Str("file", req.DataFileName).Str("format", model.Type).Msg("Starting import run")
	if err := populate(r, ctx); err != nil {
		return nil, err
	}
	rowsTotal.WithLabelValues(string(req.Mode)).Add(float64(len(r.report.Rows)))
	span.SetAttributes(attribute.Int("import.rows", len(r.report.Rows)))
	logger.Info().
		Int("rows", len(r.report.Rows)).
		Dur("duration", time.Since(start)).
		Msg("Import run finished")
	return r.report, nil
}

// RunStaged loads both files from storage, runs them and deletes them
// afterwards whatever the outcome.
func (i *Importer) RunStaged(ctx context.Context, req StagedRequest) (*Report, error) {
	if i.storage == nil {
		return nil, errors.New("no storage configured")
	}
	defer i.discard(req.DataKey, req.FormatKey)

	data, meta, err := storage.Load(ctx, i.storage, req.DataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load data file: %w", err)
	}
	formatXML, _, err := storage.Load(ctx, i.storage, req.FormatKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load format file: %w", err)
	}

	name := meta.OriginalName
	if name == "" {
		name = path.Base(req.DataKey)
	}

	return i.Run(ctx, Request{
		RunID:        req.RunID,
		Mode:         req.Mode,
		DataFileName: name,
		Data:         data,
		Format:       formatXML,
		Overrides:    req.Overrides,
	})
}

func (i *Importer) discard(keys ...string) {
	// the request context may already be cancelled
	ctx := context.Background()
	for _, key := range keys {
		if err := i.storage.Delete(ctx, key); err != nil {
			i.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete staged file")
		}
	}
}

func (r *run) populatePreview(_ context.Context) error {
	r.report.Grid = extract.Preview(r.wb, r.model, r.opts.PreviewRows)
	return nil
}

func (r *run) populateReview(ctx context.Context) error {
	x := extract.New(r.wb, r.model, r.engine, extract.Options{PreviewLimit: r.opts.PreviewRows}, r.logger)
	for rec, err := range x.Records(ctx) {
		if err != nil {
			return err
		}
		templateDiagnostics.Add(float64(len(rec.Diagnostics)))
		if r.report.Columns == nil {
			r.report.Columns = rec.Names()
		}
		r.report.Rows = append(r.report.Rows, Row{Sheet: rec.SheetName, Row: rec.Row, Record: rec})
	}
	return nil
}

func (r *run) populateImport(ctx context.Context) error {
	x := extract.New(r.wb, r.model, r.engine, extract.Options{IncludeUnresolved: true}, r.logger)
	reconciler := reconcile.New(r.store, r.opts.Reconcile, r.logger)
	logins := newLoginTables()
	summary := &Summary{}
	r.report.Summary = summary

	for rec, err := range x.Records(ctx) {
		if err != nil {
			return err
		}
		templateDiagnostics.Add(float64(len(rec.Diagnostics)))
		if r.report.Columns == nil {
			r.report.Columns = rec.Names()
		}

		rawPassword := rec.Get("password")
		var hash string
		if rawPassword != "" && rec.Username() != "" {
			if hash, err = r.hasher.Hash(rawPassword); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
		}

		res := reconciler.Reconcile(ctx, rec, hash)
		summary.add(res)
		for _, e := range res.Events {
			eventsTotal.WithLabelValues(string(e.Kind)).Inc()
		}

		if res.User != nil {
			if rawPassword != "" && r.opts.SendPassword.Applies(res.Created) {
				if err := r.notifier.SendPassword(ctx, res.User, rawPassword); err != nil {
					r.logger.Warn().Err(err).Str("username", res.User.Username).Msg("Failed to send password")
				}
			}
			logins.add(res, rawPassword)
		}

		status := reconcile.Status(res.Events)
		r.report.Rows = append(r.report.Rows, Row{
			Sheet:  rec.SheetName,
			Row:    rec.Row,
			Record: rec,
			Status: status,
			Events: res.Events,
		})
		r.logger.Info().
			Str("sheet", rec.SheetName).
			Int("row", rec.Row).
			Str("username", rec.Username()).
			Bool("failed", res.Failed()).
			Msg(strings.ReplaceAll(status, "\n", "; "))
	}

	if r.opts.ResourceType == ResourceNone {
		return nil
	}
	return r.writeLoginResources(ctx, logins)
}
