package records

import (
	"fmt"
	"strings"
)

// OuterJoin performs a full outer join of left and right on the given
// key columns. The result carries the union of both schemas and the
// union of both key sets: a key present on only one side still produces
// a row, with the other side's columns absent (zero-fill is the
// caller's decision). Rows are emitted left-first in left order, then
// right-only rows in right order. Multiple right rows matching one left
// key each produce a result row, which is how per-conversion-action
// rows multiply a campaign/date key.
func OuterJoin(left, right *RecordSet, keys []string) *RecordSet {
	if left.Empty() && right.Empty() {
		return New()
	}
	if left.Empty() {
		return Concat(right)
	}
	if right.Empty() {
		return Concat(left)
	}

	out := New()
	for _, c := range left.columns {
		out.addColumn(c)
	}
	for _, c := range right.columns {
		out.addColumn(c)
	}

	rightByKey := make(map[string][]int, right.Len())
	for i, row := range right.rows {
		k := keyOf(row, keys)
		rightByKey[k] = append(rightByKey[k], i)
	}

	matched := make([]bool, right.Len())
	for _, lrow := range left.rows {
		k := keyOf(lrow, keys)
		idxs := rightByKey[k]
		if len(idxs) == 0 {
			out.rows = append(out.rows, cloneRow(lrow))
			continue
		}
		for _, i := range idxs {
			matched[i] = true
			merged := cloneRow(lrow)
			for col, v := range right.rows[i] {
				if _, isKey := find(keys, col); isKey {
					continue
				}
				merged[col] = v
			}
			out.rows = append(out.rows, merged)
		}
	}

	for i, rrow := range right.rows {
		if !matched[i] {
			out.rows = append(out.rows, cloneRow(rrow))
		}
	}

	return out
}

// keyOf builds a canonical composite key. Values are rendered with
// fmt.Sprint so an int64 id and its string form compare equal, matching
// how the source reports ids across different query shapes.
func keyOf(row Row, keys []string) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if v, ok := row[k]; ok && v != nil {
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

func find(list []string, s string) (int, bool) {
	for i, v := range list {
		if v == s {
			return i, true
		}
	}
	return -1, false
}
