package sink

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsync-io/adsync/pkg/records"
)

func TestConfigureLoader_Dispositions(t *testing.T) {
	tests := []struct {
		name           string
		truncate       bool
		wantWrite      bigquery.TableWriteDisposition
		wantSchemaOpts []string
	}{
		{
			name:      "replace write",
			truncate:  true,
			wantWrite: bigquery.WriteTruncate,
		},
		{
			name:           "append write allows new columns",
			truncate:       false,
			wantWrite:      bigquery.WriteAppend,
			wantSchemaOpts: []string{"ALLOW_FIELD_ADDITION"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &bigquery.Loader{}
			configureLoader(loader, tt.truncate)

			assert.Equal(t, tt.wantWrite, loader.WriteDisposition)
			assert.Equal(t, bigquery.CreateIfNeeded, loader.CreateDisposition)
			assert.Equal(t, tt.wantSchemaOpts, loader.SchemaUpdateOptions)
		})
	}
}

func TestNewLoadSource_FormatAndSchema(t *testing.T) {
	set := records.New()
	set.Append(records.Row{"campaign_id": int64(1), "date": "2026-08-01", "cost": 1.25})

	buf, err := encodeRows(set)
	require.NoError(t, err)

	source := newLoadSource(buf, set)
	assert.Equal(t, bigquery.JSON, source.SourceFormat)

	types := map[string]bigquery.FieldType{}
	for _, f := range source.Schema {
		types[f.Name] = f.Type
	}
	assert.Equal(t, bigquery.IntegerFieldType, types["campaign_id"])
	assert.Equal(t, bigquery.DateFieldType, types["date"])
	assert.Equal(t, bigquery.FloatFieldType, types["cost"])
}
