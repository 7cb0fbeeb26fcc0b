package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/relief/internal/config"
	"github.com/stwalsh4118/relief/internal/logger"
	"github.com/stwalsh4118/relief/internal/models"
)

// Pagination bounds.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// CRUD is the data access contract every entity repository provides.
type CRUD[T any] interface {
	// GetByID returns the entity with the given identifier.
	// Returns nil, nil if no row matches (not an error).
	// Returns ErrIntegrityViolation if more than one row matches.
	GetByID(ctx context.Context, db Session, id uuid.UUID) (*T, error)

	// List returns one page of entities matching all filters, in sort order.
	List(ctx context.Context, db Session, params ListParams) ([]T, error)

	// Count returns the number of entities matching all filters.
	Count(ctx context.Context, db Session, filters Filters) (int64, error)

	// Create inserts a new entity and returns it as stored.
	Create(ctx context.Context, db Session, fields Fields) (*T, error)

	// Update overwrites the given fields of row and returns it as stored.
	Update(ctx context.Context, db Session, row *T, fields Fields) (*T, error)

	// Remove deletes the entity and returns its last stored state.
	// Returns ErrNotFound if no row matches.
	Remove(ctx context.Context, db Session, id uuid.UUID) (*T, error)
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	log          *logger.Logger
	defaultLimit int
	maxLimit     int
	hideDeleted  bool
}

// WithLogger reports ignored fields through log.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithDefaultLimit sets the page size used when a caller passes no limit.
func WithDefaultLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.defaultLimit = n
		}
	}
}

// WithMaxLimit sets the hard cap on page size.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithSoftDeleteFilter hides rows carrying a delete_at marker from reads.
// Without it soft-deleted rows stay visible.
func WithSoftDeleteFilter() Option {
	return func(o *options) { o.hideDeleted = true }
}

// OptionsFromConfig translates the repository section of the application config.
func OptionsFromConfig(cfg config.RepositoryConfig, log *logger.Logger) []Option {
	opts := []Option{
		WithLogger(log),
		WithDefaultLimit(cfg.DefaultLimit),
		WithMaxLimit(cfg.MaxLimit),
	}
	if cfg.HideSoftDeleted {
		opts = append(opts, WithSoftDeleteFilter())
	}
	return opts
}

// Repository is the generic data access engine for entity type T.
// It is safe for concurrent use; all state is fixed at construction.
type Repository[T any] struct {
	schema *schema
	opts   options
}

var _ CRUD[models.Station] = (*Repository[models.Station])(nil)

// New builds a repository for T. The column registry is derived from T's db tags once, here.
func New[T any](opts ...Option) (*Repository[T], error) {
	s, err := newSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}

	o := options{defaultLimit: DefaultLimit, maxLimit: MaxLimit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaultLimit > o.maxLimit {
		o.defaultLimit = o.maxLimit
	}

	return &Repository[T]{schema: s, opts: o}, nil
}

// MustNew is New for package-level wiring where a schema error is a programming error.
func MustNew[T any](opts ...Option) *Repository[T] {
	r, err := New[T](opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Table returns the leaf table of T.
func (r *Repository[T]) Table() string {
	return r.schema.leaf()
}

// Has reports whether T declares the field.
func (r *Repository[T]) Has(field string) bool {
	return r.schema.has(field)
}

// Column returns the qualified column reference for use in FindWhere predicates.
func (r *Repository[T]) Column(field string) (string, error) {
	if !r.schema.has(field) {
		return "", &InvalidFieldError{Entity: r.schema.entity, Field: field, Op: "column"}
	}
	return r.schema.qualified(field), nil
}

// GetByID returns the entity with the given identifier, or nil, nil when none exists.
func (r *Repository[T]) GetByID(ctx context.Context, db Session, id uuid.UUID) (*T, error) {
	return r.getByID(ctx, db, id, r.opts.hideDeleted)
}

func (r *Repository[T]) getByID(ctx context.Context, db Session, id uuid.UUID, hideDeleted bool) (*T, error) {
	st := r.schema.byIDQuery(id, hideDeleted)
	rows, err := r.collect(ctx, db, st)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s %s: %w", r.schema.entity, id, err)
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("%w: %d %s rows share uuid %s",
			ErrIntegrityViolation, len(rows), r.schema.entity, id)
	}
}

// List returns one page of entities. Filters combine with AND; unknown filter
// and sort fields are logged and ignored. Without SortBy, timestamped entities
// are returned newest first.
func (r *Repository[T]) List(ctx context.Context, db Session, params ListParams) ([]T, error) {
	params.Limit = r.clampLimit(params.Limit)
	if params.Skip < 0 {
		params.Skip = 0
	}

	st, ignored := r.schema.listQuery(params, r.opts.hideDeleted)
	r.reportIgnored("list", ignored)

	rows, err := r.collect(ctx, db, st)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.schema.entity, err)
	}
	return rows, nil
}

// Count returns the number of entities matching the same predicates List would apply.
func (r *Repository[T]) Count(ctx context.Context, db Session, filters Filters) (int64, error) {
	st, ignored := r.schema.countQuery(filters, r.opts.hideDeleted)
	r.reportIgnored("count", ignored)

	var n int64
	if err := db.QueryRow(ctx, st.sql, st.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.schema.entity, classify(err))
	}
	return n, nil
}

// Create inserts every table row of the new entity in one transaction, commits,
// and returns the entity re-read from the store.
func (r *Repository[T]) Create(ctx context.Context, db Session, fields Fields) (*T, error) {
	id := uuid.New()
	stmts, ignored := r.schema.insertStatements(id, fields)
	r.reportIgnored("create", ignored)

	if err := r.inTx(ctx, db, func(tx pgx.Tx) error {
		for _, st := range stmts {
			if _, err := tx.Exec(ctx, st.sql, st.args...); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.schema.entity, err)
	}

	return r.refresh(ctx, db, id)
}

// Update overwrites the fields present in the map and leaves the rest untouched.
// Returns ErrNotFound if the row no longer exists.
func (r *Repository[T]) Update(ctx context.Context, db Session, row *T, fields Fields) (*T, error) {
	if row == nil {
		return nil, fmt.Errorf("failed to update %s: %w: nil row", r.schema.entity, ErrNotFound)
	}
	id, err := identify(row)
	if err != nil {
		return nil, err
	}

	stmts, ignored := r.schema.updateStatements(id, fields)
	r.reportIgnored("update", ignored)

	if err := r.inTx(ctx, db, func(tx pgx.Tx) error {
		if err := r.mustExist(ctx, tx, id); err != nil {
			return err
		}
		for _, st := range stmts {
			tag, err := tx.Exec(ctx, st.sql, st.args...)
			if err != nil {
				return err
			}
			if err := exactlyOne(tag.RowsAffected()); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to update %s %s: %w", r.schema.entity, id, err)
	}

	return r.refresh(ctx, db, id)
}

// Remove deletes every table row of the entity in one transaction and returns
// the entity as it was immediately before deletion.
func (r *Repository[T]) Remove(ctx context.Context, db Session, id uuid.UUID) (*T, error) {
	var prior *T
	if err := r.inTx(ctx, db, func(tx pgx.Tx) error {
		var err error
		prior, err = r.getByID(ctx, tx, id, false)
		if err != nil {
			return err
		}
		if prior == nil {
			return ErrNotFound
		}
		for _, st := range r.schema.deleteStatements(id) {
			tag, err := tx.Exec(ctx, st.sql, st.args...)
			if err != nil {
				return err
			}
			if err := exactlyOne(tag.RowsAffected()); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to remove %s %s: %w", r.schema.entity, id, err)
	}
	return prior, nil
}

// SoftRemove stamps delete_at on the entity and returns it as stored.
// Entities without the timestamp mixin cannot be soft removed.
func (r *Repository[T]) SoftRemove(ctx context.Context, db Session, id uuid.UUID) (*T, error) {
	if !r.schema.softDeletable() {
		return nil, &InvalidFieldError{Entity: r.schema.entity, Field: columnDeleteAt, Op: "soft remove"}
	}

	st := r.schema.softDeleteStatement(id)
	if err := r.inTx(ctx, db, func(tx pgx.Tx) error {
		if err := r.mustExist(ctx, tx, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, st.sql, st.args...)
		if err != nil {
			return err
		}
		return exactlyOne(tag.RowsAffected())
	}); err != nil {
		return nil, fmt.Errorf("failed to soft remove %s %s: %w", r.schema.entity, id, err)
	}

	return r.refresh(ctx, db, id)
}

// FindWhere returns entities matching a fixed predicate in natural order.
// It is the extension point for specialized repositories; cond references
// columns obtained from Column and uses placeholders starting at $1.
func (r *Repository[T]) FindWhere(ctx context.Context, db Session, cond string, args ...any) ([]T, error) {
	rows, err := r.collect(ctx, db, r.schema.whereQuery(cond, args, r.opts.hideDeleted))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.schema.entity, err)
	}
	return rows, nil
}

// mustExist fails with ErrNotFound unless id names a row of T. Root-owned
// columns are shared by every subtype, so writes check this before touching them.
func (r *Repository[T]) mustExist(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	row, err := r.getByID(ctx, tx, id, false)
	if err != nil {
		return err
	}
	if row == nil {
		return ErrNotFound
	}
	return nil
}

// refresh re-reads a row just written, soft-deleted or not.
func (r *Repository[T]) refresh(ctx context.Context, db Session, id uuid.UUID) (*T, error) {
	row, err := r.getByID(ctx, db, id, false)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh %s %s: %w", r.schema.entity, id, err)
	}
	if row == nil {
		return nil, fmt.Errorf("failed to refresh %s %s: %w", r.schema.entity, id, ErrNotFound)
	}
	return row, nil
}

func (r *Repository[T]) collect(ctx context.Context, db Session, st statement) ([]T, error) {
	rows, err := db.Query(ctx, st.sql, st.args...)
	if err != nil {
		return nil, classify(err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, classify(err)
	}
	if result == nil {
		result = []T{}
	}
	return result, nil
}

// inTx runs fn in a transaction of its own and commits it before returning.
func (r *Repository[T]) inTx(ctx context.Context, db Session, fn func(pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		return classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// PageSize returns the page size List uses for a requested limit.
func (r *Repository[T]) PageSize(limit int) int {
	return r.clampLimit(limit)
}

func (r *Repository[T]) clampLimit(limit int) int {
	if limit <= 0 {
		return r.opts.defaultLimit
	}
	if limit > r.opts.maxLimit {
		return r.opts.maxLimit
	}
	return limit
}

// reportIgnored logs fields that were dropped instead of failing the call.
func (r *Repository[T]) reportIgnored(op string, fields []string) {
	if r.opts.log == nil || len(fields) == 0 {
		return
	}
	for _, f := range fields {
		invalid := &InvalidFieldError{Entity: r.schema.entity, Field: f, Op: op}
		r.opts.log.Warn("Ignoring field", map[string]interface{}{
			"entity": invalid.Entity,
			"field":  invalid.Field,
			"op":     invalid.Op,
			"reason": invalid.Error(),
		})
	}
}

func identify(row any) (uuid.UUID, error) {
	ident, ok := row.(models.Identifiable)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: row has no identity", ErrNotFound)
	}
	id := ident.GetUUID()
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: row has nil uuid", ErrNotFound)
	}
	return id, nil
}

// exactlyOne enforces that a point write touched a single row.
func exactlyOne(affected int64) error {
	switch {
	case affected == 0:
		return ErrNotFound
	case affected > 1:
		return fmt.Errorf("%w: %d rows affected", ErrIntegrityViolation, affected)
	}
	return nil
}
