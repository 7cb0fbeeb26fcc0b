package repository

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Filters maps column names to equality constraints, combined with AND.
// A nil value (or nil pointer) leaves the column unconstrained.
type Filters map[string]any

// Fields maps column names to values for create and update.
// Presence of a key is what makes it written; a nil value writes NULL.
type Fields map[string]any

// ListParams holds the filter, sort and pagination input of List.
type ListParams struct {
	Filters  Filters
	SortBy   string
	SortDesc bool
	Skip     int
	Limit    int
}

// statement is one SQL statement with its positional arguments.
type statement struct {
	sql  string
	args []any
}

// queryBuilder accumulates predicates and positional arguments.
type queryBuilder struct {
	where []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

// fromClause joins every table of the chain to the root on the shared uuid.
func (s *schema) fromClause() string {
	root := pgx.Identifier{s.root()}.Sanitize()
	var sb strings.Builder
	sb.WriteString(" FROM ")
	sb.WriteString(root)
	for _, tbl := range s.tables[1:] {
		child := pgx.Identifier{tbl.name}.Sanitize()
		fmt.Fprintf(&sb, " JOIN %s ON %s.%s = %s.%s", child,
			child, pgx.Identifier{columnUUID}.Sanitize(),
			root, pgx.Identifier{columnUUID}.Sanitize())
	}
	return sb.String()
}

func (s *schema) selectClause() string {
	cols := make([]string, len(s.selectColumns))
	for i, c := range s.selectColumns {
		cols[i] = s.qualified(c)
	}
	return "SELECT " + strings.Join(cols, ", ")
}

// applyFilters adds one equality predicate per known, set filter.
// Unknown column names are returned so the caller can report them.
func (s *schema) applyFilters(b *queryBuilder, filters Filters) (ignored []string) {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := filters[k]
		if !s.has(k) {
			ignored = append(ignored, k)
			continue
		}
		if isUnset(v) {
			continue
		}
		b.where = append(b.where, fmt.Sprintf("%s = %s", s.qualified(k), b.arg(v)))
	}
	return ignored
}

func (s *schema) applySoftDelete(b *queryBuilder, hide bool) {
	if hide && s.softDeletable() {
		b.where = append(b.where, s.qualified(columnDeleteAt)+" IS NULL")
	}
}

// orderClause sorts by the requested column, else newest first when the entity is timestamped.
// uuid is always the final key so pages never overlap.
func (s *schema) orderClause(sortBy string, desc bool) (clause string, ignored bool) {
	var keys []string
	switch {
	case sortBy != "" && s.has(sortBy):
		dir := "ASC"
		if desc {
			dir = "DESC"
		}
		keys = append(keys, s.qualified(sortBy)+" "+dir)
	case s.timestamped():
		ignored = sortBy != ""
		keys = append(keys, s.qualified(columnCreatedAt)+" DESC")
	default:
		ignored = sortBy != ""
	}
	if sortBy != columnUUID {
		keys = append(keys, s.qualified(columnUUID))
	}
	return " ORDER BY " + strings.Join(keys, ", "), ignored
}

func (s *schema) byIDQuery(id uuid.UUID, hideDeleted bool) statement {
	b := &queryBuilder{}
	b.where = append(b.where, fmt.Sprintf("%s = %s", s.qualified(columnUUID), b.arg(id)))
	s.applySoftDelete(b, hideDeleted)
	// Two rows are enough to detect a duplicate identifier.
	return statement{sql: s.selectClause() + s.fromClause() + b.whereClause() + " LIMIT 2", args: b.args}
}

func (s *schema) listQuery(p ListParams, hideDeleted bool) (st statement, ignored []string) {
	b := &queryBuilder{}
	ignored = s.applyFilters(b, p.Filters)
	s.applySoftDelete(b, hideDeleted)

	order, sortIgnored := s.orderClause(p.SortBy, p.SortDesc)
	if sortIgnored {
		ignored = append(ignored, p.SortBy)
	}

	sql := s.selectClause() + s.fromClause() + b.whereClause() + order
	sql += " LIMIT " + b.arg(p.Limit) + " OFFSET " + b.arg(p.Skip)
	return statement{sql: sql, args: b.args}, ignored
}

func (s *schema) countQuery(filters Filters, hideDeleted bool) (st statement, ignored []string) {
	b := &queryBuilder{}
	ignored = s.applyFilters(b, filters)
	s.applySoftDelete(b, hideDeleted)
	return statement{sql: "SELECT count(*)" + s.fromClause() + b.whereClause(), args: b.args}, ignored
}

// whereQuery selects rows matching a fixed predicate written by a specialized repository.
// The predicate uses positional placeholders starting at $1.
func (s *schema) whereQuery(cond string, args []any, hideDeleted bool) statement {
	b := &queryBuilder{args: append([]any(nil), args...)}
	if cond != "" {
		b.where = append(b.where, "("+cond+")")
	}
	s.applySoftDelete(b, hideDeleted)
	return statement{sql: s.selectClause() + s.fromClause() + b.whereClause(), args: b.args}
}

// insertStatements writes one row per table of the chain, root first.
// Read-only and unknown fields are skipped and reported.
func (s *schema) insertStatements(id uuid.UUID, fields Fields) (stmts []statement, ignored []string) {
	keys := sortedKeys(fields)
	perTable := make(map[string][]string)
	for _, k := range keys {
		if !s.has(k) || s.readOnly(k) {
			ignored = append(ignored, k)
			continue
		}
		perTable[s.owner[k]] = append(perTable[s.owner[k]], k)
	}

	for _, tbl := range s.tables {
		b := &queryBuilder{}
		cols := []string{pgx.Identifier{columnUUID}.Sanitize()}
		vals := []string{b.arg(id)}

		if tbl.name == s.root() && s.discriminator != "" && s.identity != "" {
			cols = append(cols, pgx.Identifier{s.discriminator}.Sanitize())
			vals = append(vals, b.arg(s.identity))
		}
		for _, k := range perTable[tbl.name] {
			cols = append(cols, pgx.Identifier{k}.Sanitize())
			vals = append(vals, b.arg(fields[k]))
		}

		stmts = append(stmts, statement{
			sql: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
				pgx.Identifier{tbl.name}.Sanitize(), strings.Join(cols, ", "), strings.Join(vals, ", ")),
			args: b.args,
		})
	}
	return stmts, ignored
}

// updateStatements overwrites only the given fields, one statement per touched table.
// The table owning updated_at always gets it refreshed.
func (s *schema) updateStatements(id uuid.UUID, fields Fields) (stmts []statement, ignored []string) {
	keys := sortedKeys(fields)
	perTable := make(map[string][]string)
	for _, k := range keys {
		if !s.has(k) || s.readOnly(k) {
			ignored = append(ignored, k)
			continue
		}
		perTable[s.owner[k]] = append(perTable[s.owner[k]], k)
	}

	stampTable := ""
	if s.has(columnUpdatedAt) {
		stampTable = s.owner[columnUpdatedAt]
	}

	for _, tbl := range s.tables {
		b := &queryBuilder{}
		var sets []string
		for _, k := range perTable[tbl.name] {
			sets = append(sets, fmt.Sprintf("%s = %s", pgx.Identifier{k}.Sanitize(), b.arg(fields[k])))
		}
		if tbl.name == stampTable {
			sets = append(sets, pgx.Identifier{columnUpdatedAt}.Sanitize()+" = now()")
		}
		if len(sets) == 0 {
			continue
		}
		stmts = append(stmts, statement{
			sql: fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
				pgx.Identifier{tbl.name}.Sanitize(), strings.Join(sets, ", "),
				pgx.Identifier{columnUUID}.Sanitize(), b.arg(id)),
			args: b.args,
		})
	}
	return stmts, ignored
}

// deleteStatements removes the entity's rows leaf first so no subtype row is orphaned.
func (s *schema) deleteStatements(id uuid.UUID) []statement {
	stmts := make([]statement, 0, len(s.tables))
	for i := len(s.tables) - 1; i >= 0; i-- {
		stmts = append(stmts, statement{
			sql: fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
				pgx.Identifier{s.tables[i].name}.Sanitize(), pgx.Identifier{columnUUID}.Sanitize()),
			args: []any{id},
		})
	}
	return stmts
}

func (s *schema) softDeleteStatement(id uuid.UUID) statement {
	tbl := pgx.Identifier{s.owner[columnDeleteAt]}.Sanitize()
	sets := pgx.Identifier{columnDeleteAt}.Sanitize() + " = COALESCE(" + pgx.Identifier{columnDeleteAt}.Sanitize() + ", now())"
	if s.has(columnUpdatedAt) && s.owner[columnUpdatedAt] == s.owner[columnDeleteAt] {
		sets += ", " + pgx.Identifier{columnUpdatedAt}.Sanitize() + " = now()"
	}
	return statement{
		sql:  fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", tbl, sets, pgx.Identifier{columnUUID}.Sanitize()),
		args: []any{id},
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isUnset reports whether a filter value is the "no constraint" sentinel.
func isUnset(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
