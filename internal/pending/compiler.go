// Package pending compiles queued dbmirror2 row mutations into literal SQL
// statements and loads/retires them from their staging tables, mirroring
// the statement-building style of the teacher's sink (strings.Builder +
// fmt.Fprintf) but inlining literals instead of binding placeholders,
// since the upstream pending-data payload arrives as already-serialized
// text rather than typed Go values.
package pending

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/oknozor/Musicbrainz-pg-light/internal/mberr"
	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

// Compiler turns a PendingData row into an executable SQL statement.
type Compiler struct{}

// NewCompiler returns a ready-to-use Compiler. It carries no state.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile builds the literal-inlined SQL statement for row, using keys to
// build the WHERE predicate for UPDATE and DELETE.
func (c *Compiler) Compile(row types.PendingData, keys types.PendingKeys) (string, error) {
	switch row.Op {
	case types.OpInsert:
		return c.compileInsert(row)
	case types.OpUpdate:
		return c.compileUpdate(row, keys)
	case types.OpDelete:
		return c.compileDelete(row, keys)
	default:
		return "", errors.Errorf("unknown pending data op %q", row.Op)
	}
}

func (c *Compiler) compileInsert(row types.PendingData) (string, error) {
	if !row.NewData.Valid {
		return "", mberr.NewMissingPendingData("new_data")
	}
	cols, err := parseColumnValues(row.NewData.String)
	if err != nil {
		return "", err
	}

	var stmt strings.Builder
	stmt.WriteString("INSERT INTO ")
	stmt.WriteString(row.Schema())
	stmt.WriteString(".")
	stmt.WriteString(row.TableName())
	stmt.WriteString(" (")
	for i, kv := range cols {
		if i > 0 {
			stmt.WriteString(", ")
		}
		stmt.WriteString(kv.column)
	}
	stmt.WriteString(") VALUES (")
	for i, kv := range cols {
		if i > 0 {
			stmt.WriteString(", ")
		}
		stmt.WriteString(kv.literal)
	}
	stmt.WriteString(")")
	return stmt.String(), nil
}

func (c *Compiler) compileUpdate(row types.PendingData, keys types.PendingKeys) (string, error) {
	if !row.NewData.Valid {
		return "", mberr.NewMissingPendingData("new_data")
	}
	if !row.OldData.Valid {
		return "", mberr.NewMissingPendingData("old_data")
	}
	cols, err := parseColumnValues(row.NewData.String)
	if err != nil {
		return "", err
	}
	oldCols, err := parseColumnValues(row.OldData.String)
	if err != nil {
		return "", err
	}
	byName := make(map[string]string, len(oldCols))
	for _, kv := range oldCols {
		byName[kv.column] = kv.literal
	}

	var stmt strings.Builder
	stmt.WriteString("UPDATE ")
	stmt.WriteString(row.Schema())
	stmt.WriteString(".")
	stmt.WriteString(row.TableName())
	stmt.WriteString(" SET ")
	first := true
	for _, kv := range cols {
		if isKey(kv.column, keys.Keys) {
			continue
		}
		if !first {
			stmt.WriteString(", ")
		}
		first = false
		stmt.WriteString(kv.column)
		stmt.WriteString(" = ")
		stmt.WriteString(kv.literal)
	}

	where, err := keyPredicate(keys, byName)
	if err != nil {
		return "", err
	}
	stmt.WriteString(" WHERE ")
	stmt.WriteString(where)
	return stmt.String(), nil
}

func (c *Compiler) compileDelete(row types.PendingData, keys types.PendingKeys) (string, error) {
	if !row.OldData.Valid {
		return "", mberr.NewMissingPendingData("old_data")
	}
	cols, err := parseColumnValues(row.OldData.String)
	if err != nil {
		return "", err
	}
	byName := make(map[string]string, len(cols))
	for _, kv := range cols {
		byName[kv.column] = kv.literal
	}

	where, err := keyPredicate(keys, byName)
	if err != nil {
		return "", err
	}

	var stmt strings.Builder
	stmt.WriteString("DELETE FROM ")
	stmt.WriteString(row.Schema())
	stmt.WriteString(".")
	stmt.WriteString(row.TableName())
	stmt.WriteString(" WHERE ")
	stmt.WriteString(where)
	return stmt.String(), nil
}

func keyPredicate(keys types.PendingKeys, byName map[string]string) (string, error) {
	if len(keys.Keys) == 0 {
		return "", errors.Errorf("no primary key columns known for %s.%s", keys.Schema, keys.Table)
	}
	var b strings.Builder
	for i, k := range keys.Keys {
		literal, ok := byName[k]
		if !ok {
			return "", mberr.NewMissingPendingData(k)
		}
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(k)
		b.WriteString(" = ")
		b.WriteString(literal)
	}
	return b.String(), nil
}

func isKey(column string, keys []string) bool {
	for _, k := range keys {
		if k == column {
			return true
		}
	}
	return false
}

type columnValue struct {
	column  string
	literal string
}

// parseColumnValues splits a dbmirror2 pending-data payload — tab
// separated "column=value" pairs — into column/literal pairs, quoting the
// value per Postgres literal syntax.
func parseColumnValues(payload string) ([]columnValue, error) {
	fields := strings.Split(payload, "\t")
	out := make([]columnValue, 0, len(fields))
	for _, field := range fields {
		if field == "" {
			continue
		}
		eq := strings.IndexByte(field, '=')
		if eq < 0 {
			return nil, mberr.NewMalformedPendingData(field)
		}
		col, raw := field[:eq], field[eq+1:]
		out = append(out, columnValue{column: col, literal: quoteLiteral(raw)})
	}
	return out, nil
}

// quoteLiteral renders a dbmirror2 raw value as a Postgres SQL literal.
// NULL is the sentinel dbmirror2 uses for an absent value; booleans and
// numerics pass through verbatim; everything else is single-quoted with
// embedded quotes doubled.
func quoteLiteral(raw string) string {
	switch raw {
	case "NULL":
		return "NULL"
	case "TRUE", "FALSE":
		return raw
	}
	if isNumeric(raw) {
		return raw
	}
	return "'" + strings.ReplaceAll(raw, "'", "''") + "'"
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}
