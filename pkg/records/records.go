// Package records provides the tabular record model shared by the
// extraction and sink layers. A RecordSet is an ordered collection of
// rows sharing one schema, destined for exactly one warehouse table.
//
// Query output is treated as immutable once produced; combining
// operations (OuterJoin, Concat) always allocate a new set with fresh
// rows. In-place mutators (FillZero, SetConst, FillMissing) are meant
// for the combined set an extractor is finalizing, never for raw query
// output.
package records

// Row is a single record keyed by column name.
type Row map[string]interface{}

// RecordSet is an ordered collection of rows. Columns keep the order of
// first appearance so warehouse schemas stay stable across runs.
type RecordSet struct {
	columns []string
	seen    map[string]struct{}
	rows    []Row
}

// New creates an empty RecordSet with the given leading columns.
func New(columns ...string) *RecordSet {
	rs := &RecordSet{seen: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		rs.addColumn(c)
	}
	return rs
}

func (rs *RecordSet) addColumn(name string) {
	if _, ok := rs.seen[name]; ok {
		return
	}
	rs.seen[name] = struct{}{}
	rs.columns = append(rs.columns, name)
}

// Append adds a row, registering any columns not seen before.
func (rs *RecordSet) Append(row Row) {
	for col := range row {
		rs.addColumn(col)
	}
	rs.rows = append(rs.rows, row)
}

// Len returns the number of rows.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rows)
}

// Empty reports whether the set has no rows. A nil set is empty.
func (rs *RecordSet) Empty() bool {
	return rs.Len() == 0
}

// Columns returns the column names in order of first appearance.
func (rs *RecordSet) Columns() []string {
	out := make([]string, len(rs.columns))
	copy(out, rs.columns)
	return out
}

// Rows returns the underlying rows. Callers must treat them as read-only.
func (rs *RecordSet) Rows() []Row {
	if rs == nil {
		return nil
	}
	return rs.rows
}

// HasColumn reports whether the column is part of the set's schema.
func (rs *RecordSet) HasColumn(name string) bool {
	if rs == nil {
		return false
	}
	_, ok := rs.seen[name]
	return ok
}

// SetConst sets a column to the same value on every row.
func (rs *RecordSet) SetConst(column string, value interface{}) *RecordSet {
	rs.addColumn(column)
	for _, row := range rs.rows {
		row[column] = value
	}
	return rs
}

// FillMissing sets the column only on rows where it is absent or nil.
func (rs *RecordSet) FillMissing(column string, value interface{}) *RecordSet {
	rs.addColumn(column)
	for _, row := range rs.rows {
		if v, ok := row[column]; !ok || v == nil {
			row[column] = value
		}
	}
	return rs
}

// FillZero replaces absent or nil values in the given measure columns
// with a typed zero. The zero's type follows the first present value in
// the column; a column with no values at all fills with float64 zero.
func (rs *RecordSet) FillZero(columns ...string) *RecordSet {
	for _, col := range columns {
		rs.addColumn(col)
		zero := zeroFor(rs, col)
		for _, row := range rs.rows {
			if v, ok := row[col]; !ok || v == nil {
				row[col] = zero
			}
		}
	}
	return rs
}

func zeroFor(rs *RecordSet, column string) interface{} {
	for _, row := range rs.rows {
		switch row[column].(type) {
		case int64:
			return int64(0)
		case int:
			return 0
		case float64:
			return float64(0)
		}
	}
	return float64(0)
}

// Concat returns a new set holding copies of every row of the given
// sets, with the union of their columns. Nil and empty sets are skipped.
func Concat(sets ...*RecordSet) *RecordSet {
	out := New()
	for _, set := range sets {
		if set == nil {
			continue
		}
		for _, c := range set.columns {
			out.addColumn(c)
		}
		for _, row := range set.rows {
			out.rows = append(out.rows, cloneRow(row))
		}
	}
	return out
}

func cloneRow(row Row) Row {
	dst := make(Row, len(row))
	for k, v := range row {
		dst[k] = v
	}
	return dst
}
