package services

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

var importRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "buildgrid_import_rows_total",
	Help: "Rows processed by the import executor, by entity and outcome.",
}, []string{"entity", "outcome"})

type ExecutorService struct {
	targets target.Registry
}

func NewExecutorService(targets target.Registry) *ExecutorService {
	return &ExecutorService{targets: targets}
}

// Execute resolves lookup fields and writes the batches. Every row commits
// independently: the executor runs without an ambient transaction, so one
// row's constraint violation cannot roll back its neighbours. Failing rows
// land in the result's error list with their original import index;
// succeeding rows stay committed.
func (s *ExecutorService) Execute(
	ctx context.Context,
	tmpl template.FieldTemplate,
	batches record.Batches,
) (record.ImportResult, error) {
	store, err := s.targets.Store(tmpl.Entity())
	if err != nil {
		return record.ImportResult{}, err
	}

	entity := string(tmpl.Entity())
	result := record.ImportResult{Skipped: batches.Skipped}
	importRows.WithLabelValues(entity, "skipped").Add(float64(batches.Skipped))

	log, hasLog := composables.TryUseLogger(ctx)

	for _, rec := range batches.ToInsert {
		resolved, rowErrs := s.resolveLookups(ctx, tmpl, rec)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			importRows.WithLabelValues(entity, "failed").Inc()
			continue
		}
		if _, err := store.Insert(ctx, resolved); err != nil {
			result.Errors = append(result.Errors, record.RowError{
				Row:     rec.Index,
				Message: writeErrorMessage(err),
			})
			importRows.WithLabelValues(entity, "failed").Inc()
			continue
		}
		result.Inserted++
		importRows.WithLabelValues(entity, "inserted").Inc()
	}

	for _, upd := range batches.ToUpdate {
		resolved, rowErrs := s.resolveLookups(ctx, tmpl, upd.Record)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			importRows.WithLabelValues(entity, "failed").Inc()
			continue
		}
		if err := store.Merge(ctx, upd.ExistingID, resolved); err != nil {
			result.Errors = append(result.Errors, record.RowError{
				Row:     upd.Record.Index,
				Message: writeErrorMessage(err),
			})
			importRows.WithLabelValues(entity, "failed").Inc()
			continue
		}
		result.Updated++
		importRows.WithLabelValues(entity, "updated").Inc()
	}

	if hasLog {
		log.WithField("entity", entity).
			WithField("inserted", result.Inserted).
			WithField("updated", result.Updated).
			WithField("skipped", result.Skipped).
			WithField("errors", len(result.Errors)).
			Info("import executed")
	}
	return result, nil
}

// resolveLookups replaces lookup field text with the referenced entity's
// id. An unresolvable lookup is a row error and excludes the row from the
// write — it is never silently nulled.
func (s *ExecutorService) resolveLookups(
	ctx context.Context,
	tmpl template.FieldTemplate,
	rec record.ValidatedRecord,
) (record.ValidatedRecord, []record.RowError) {
	resolved := record.ValidatedRecord{Index: rec.Index, Fields: make(map[string]record.Value, len(rec.Fields))}
	for label, value := range rec.Fields {
		resolved.Fields[label] = value
	}

	var rowErrs []record.RowError
	for _, f := range tmpl.Fields() {
		if f.Type != template.FieldLookup {
			continue
		}
		value, ok := resolved.Fields[f.Label]
		if !ok {
			continue
		}
		lookupStore, err := s.targets.Store(f.LookupEntity)
		if err != nil {
			rowErrs = append(rowErrs, record.RowError{
				Row:     rec.Index,
				Field:   f.Label,
				Value:   value.Str,
				Message: err.Error(),
			})
			continue
		}
		id, err := lookupStore.FindByName(ctx, value.Str)
		if err != nil {
			rowErrs = append(rowErrs, record.RowError{
				Row:     rec.Index,
				Field:   f.Label,
				Value:   value.Str,
				Message: fmt.Sprintf("%q does not match any existing %s", value.Str, f.LookupEntity),
			})
			continue
		}
		value.Ref = id
		resolved.Fields[f.Label] = value
	}
	return resolved, rowErrs
}

// writeErrorMessage keeps per-row persistence failures readable without
// leaking driver internals to the operator.
func writeErrorMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "a record with the same unique value already exists"
		case "23503":
			return "the record references data that does not exist"
		}
	}
	return err.Error()
}
