// Package sink loads extracted record sets into BigQuery. The first
// successful load of a run replaces each table; every later load
// appends, so one table accumulates the whole account fan-out without
// a merge step.
package sink

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/adsync-io/adsync/pkg/errors"
	"github.com/adsync-io/adsync/pkg/logger"
	"github.com/adsync-io/adsync/pkg/records"
)

// TableWriter loads one record set into a named table. truncate
// replaces the table contents; otherwise rows append and new columns
// are allowed to extend the schema.
type TableWriter interface {
	Write(ctx context.Context, table string, set *records.RecordSet, truncate bool) error
}

// BigQueryWriter is the production TableWriter backed by load jobs.
type BigQueryWriter struct {
	client  *bigquery.Client
	dataset string
	logger  *zap.Logger
}

// NewBigQueryWriter connects to BigQuery and ensures the target
// dataset exists. keyFile may be empty, in which case application
// default credentials apply.
func NewBigQueryWriter(ctx context.Context, projectID, datasetID, keyFile string) (*BigQueryWriter, error) {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create BigQuery client")
	}

	w := &BigQueryWriter{
		client:  client,
		dataset: datasetID,
		logger: logger.With(zap.String("component", "bigquery_sink"),
			zap.String("project_id", projectID),
			zap.String("dataset_id", datasetID)),
	}
	if err := w.ensureDataset(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return w, nil
}

func (w *BigQueryWriter) ensureDataset(ctx context.Context) error {
	err := w.client.Dataset(w.dataset).Create(ctx, &bigquery.DatasetMetadata{})
	if err == nil {
		w.logger.Info("created dataset")
		return nil
	}
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) && apiErr.Code == 409 {
		return nil
	}
	return errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("failed to ensure dataset %s", w.dataset))
}

// Write runs a load job from an in-memory newline-delimited JSON
// buffer. Truncating loads create the table when missing; appending
// loads may add new nullable columns.
func (w *BigQueryWriter) Write(ctx context.Context, table string, set *records.RecordSet, truncate bool) error {
	buf, err := encodeRows(set)
	if err != nil {
		return err
	}

	loader := w.client.Dataset(w.dataset).Table(table).LoaderFrom(newLoadSource(buf, set))
	configureLoader(loader, truncate)

	job, err := loader.Run(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("failed to start load job for %s", table))
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("load job for %s did not complete", table))
	}
	if status.Err() != nil {
		return errors.Wrap(status.Err(), errors.ErrorTypeData, fmt.Sprintf("load job for %s failed", table))
	}

	w.logger.Info("loaded rows",
		zap.String("table", table),
		zap.Int("rows", set.Len()),
		zap.Bool("truncate", truncate))
	return nil
}

// Close releases the underlying client.
func (w *BigQueryWriter) Close() error {
	return w.client.Close()
}

// newLoadSource wraps an NDJSON buffer for a load job with the
// record set's inferred schema.
func newLoadSource(buf []byte, set *records.RecordSet) *bigquery.ReaderSource {
	source := bigquery.NewReaderSource(bytes.NewReader(buf))
	source.SourceFormat = bigquery.JSON
	source.Schema = InferSchema(set)
	return source
}

// configureLoader sets the dispositions for the write mode. A replace
// creates the table when missing; an append may add new nullable
// columns.
func configureLoader(loader *bigquery.Loader, truncate bool) {
	loader.CreateDisposition = bigquery.CreateIfNeeded
	if truncate {
		loader.WriteDisposition = bigquery.WriteTruncate
	} else {
		loader.WriteDisposition = bigquery.WriteAppend
		loader.SchemaUpdateOptions = []string{"ALLOW_FIELD_ADDITION"}
	}
}

func encodeRows(set *records.RecordSet) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range set.Rows() {
		if err := enc.Encode(row); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to encode row")
		}
	}
	return buf.Bytes(), nil
}
