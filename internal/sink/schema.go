package sink

import (
	"cloud.google.com/go/bigquery"

	"github.com/adsync-io/adsync/pkg/records"
)

// InferSchema derives a BigQuery schema from a record set. The type of
// each column comes from its first present value; the date segment
// column loads as DATE so partition-style queries work downstream.
// Every field is nullable, which lets later runs append rows that
// predate a column's first appearance.
func InferSchema(set *records.RecordSet) bigquery.Schema {
	schema := make(bigquery.Schema, 0, len(set.Columns()))
	for _, col := range set.Columns() {
		schema = append(schema, &bigquery.FieldSchema{
			Name: col,
			Type: fieldType(col, set),
		})
	}
	return schema
}

func fieldType(col string, set *records.RecordSet) bigquery.FieldType {
	if col == "date" {
		return bigquery.DateFieldType
	}
	for _, row := range set.Rows() {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		switch v.(type) {
		case int64, int, int32:
			return bigquery.IntegerFieldType
		case float64, float32:
			return bigquery.FloatFieldType
		case bool:
			return bigquery.BooleanFieldType
		default:
			return bigquery.StringFieldType
		}
	}
	return bigquery.StringFieldType
}
