package repository

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/relief/internal/config"
	"github.com/stwalsh4118/relief/internal/logger"
	"github.com/stwalsh4118/relief/internal/models"
)

// failingSession rejects every call with err and records the SQL it was handed.
type failingSession struct {
	err     error
	queries []string
	begun   int
}

func (s *failingSession) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	s.queries = append(s.queries, sql)
	return pgconn.CommandTag{}, s.err
}

func (s *failingSession) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	s.queries = append(s.queries, sql)
	return nil, s.err
}

func (s *failingSession) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	s.queries = append(s.queries, sql)
	return errRow{s.err}
}

func (s *failingSession) Begin(context.Context) (pgx.Tx, error) {
	s.begun++
	return nil, s.err
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// scriptedSession answers every query with matches rows and accepts every write.
type scriptedSession struct {
	columns    []string
	matches    int
	writes     []string
	committed  bool
	rolledBack bool
}

func newScriptedSession[T any](matches int) *scriptedSession {
	return &scriptedSession{columns: MustNew[T]().schema.selectColumns, matches: matches}
}

func (s *scriptedSession) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	s.writes = append(s.writes, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (s *scriptedSession) Query(context.Context, string, ...any) (pgx.Rows, error) {
	fields := make([]pgconn.FieldDescription, len(s.columns))
	for i, c := range s.columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return &stubRows{fields: fields, left: s.matches}, nil
}

func (s *scriptedSession) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{pgx.ErrNoRows}
}

func (s *scriptedSession) Begin(context.Context) (pgx.Tx, error) {
	return &stubTx{s: s}, nil
}

type stubTx struct {
	pgx.Tx
	s *scriptedSession
}

func (tx *stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.s.Exec(ctx, sql, args...)
}

func (tx *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return tx.s.Query(ctx, sql, args...)
}

func (tx *stubTx) Commit(context.Context) error {
	tx.s.committed = true
	return nil
}

func (tx *stubTx) Rollback(context.Context) error {
	tx.s.rolledBack = true
	return nil
}

// stubRows yields left rows whose values are never filled in.
type stubRows struct {
	fields []pgconn.FieldDescription
	left   int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *stubRows) Scan(...any) error                            { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	if r.left == 0 {
		return false
	}
	r.left--
	return true
}

func unreachable() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestNew_Defaults(t *testing.T) {
	r, err := New[models.Station]()
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, r.opts.defaultLimit)
	assert.Equal(t, MaxLimit, r.opts.maxLimit)
	assert.False(t, r.opts.hideDeleted)
	assert.Equal(t, "stations", r.Table())
}

func TestNew_RejectsInvalidEntity(t *testing.T) {
	_, err := New[noIdentity]()
	assert.ErrorContains(t, err, "failed to build schema")

	assert.Panics(t, func() { MustNew[untabled]() })
}

func TestNew_DefaultLimitNeverExceedsMax(t *testing.T) {
	r, err := New[models.Station](WithDefaultLimit(500), WithMaxLimit(50))
	require.NoError(t, err)

	assert.Equal(t, 50, r.opts.defaultLimit)
	assert.Equal(t, 50, r.opts.maxLimit)
}

func TestOptions_IgnoreNonPositiveLimits(t *testing.T) {
	r, err := New[models.Station](WithDefaultLimit(0), WithMaxLimit(-3))
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, r.opts.defaultLimit)
	assert.Equal(t, MaxLimit, r.opts.maxLimit)
}

func TestOptionsFromConfig(t *testing.T) {
	log := logger.Nop()

	r, err := New[models.Station](OptionsFromConfig(config.RepositoryConfig{
		DefaultLimit:    25,
		MaxLimit:        200,
		HideSoftDeleted: true,
	}, log)...)
	require.NoError(t, err)

	assert.Same(t, log, r.opts.log)
	assert.Equal(t, 25, r.opts.defaultLimit)
	assert.Equal(t, 200, r.opts.maxLimit)
	assert.True(t, r.opts.hideDeleted)

	visible, err := New[models.Station](OptionsFromConfig(config.RepositoryConfig{}, log)...)
	require.NoError(t, err)
	assert.False(t, visible.opts.hideDeleted)
}

func TestClampLimit(t *testing.T) {
	r := MustNew[models.Station]()

	assert.Equal(t, DefaultLimit, r.clampLimit(0))
	assert.Equal(t, DefaultLimit, r.clampLimit(-5))
	assert.Equal(t, 7, r.clampLimit(7))
	assert.Equal(t, MaxLimit, r.clampLimit(MaxLimit))
	assert.Equal(t, MaxLimit, r.clampLimit(MaxLimit+1))
}

func TestColumnAndHas(t *testing.T) {
	r := MustNew[models.Station]()

	col, err := r.Column("level")
	require.NoError(t, err)
	assert.Equal(t, `"stations"."level"`, col)

	col, err = r.Column("city")
	require.NoError(t, err)
	assert.Equal(t, `"base_geometries"."city"`, col)

	_, err = r.Column("colour")
	var invalid *InvalidFieldError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "colour", invalid.Field)

	assert.True(t, r.Has("op_hour"))
	assert.False(t, r.Has("properties"))
}

func TestIdentify(t *testing.T) {
	station := &models.Station{}
	_, err := identify(station)
	assert.ErrorIs(t, err, ErrNotFound, "nil uuid")

	station.UUID = uuid.New()
	id, err := identify(station)
	require.NoError(t, err)
	assert.Equal(t, station.UUID, id)

	_, err = identify(struct{}{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExactlyOne(t *testing.T) {
	assert.NoError(t, exactlyOne(1))
	assert.ErrorIs(t, exactlyOne(0), ErrNotFound)
	assert.ErrorIs(t, exactlyOne(2), ErrIntegrityViolation)
}

func TestUpdate_NilRowIsNotFound(t *testing.T) {
	r := MustNew[models.Station]()
	db := &failingSession{}

	_, err := r.Update(context.Background(), db, nil, Fields{"level": 1})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, db.queries, "nothing is sent to the store")
	assert.Zero(t, db.begun)
}

func TestSoftRemove_RequiresTimestamps(t *testing.T) {
	r := MustNew[models.Group]()
	db := &failingSession{}

	_, err := r.SoftRemove(context.Background(), db, uuid.New())

	var invalid *InvalidFieldError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "delete_at", invalid.Field)
	assert.Zero(t, db.begun)
}

func TestOperations_ClassifyUnreachableStore(t *testing.T) {
	r := MustNew[models.Station]()
	ctx := context.Background()
	id := uuid.New()

	station := &models.Station{}
	station.UUID = id

	ops := map[string]func(Session) error{
		"get": func(db Session) error {
			_, err := r.GetByID(ctx, db, id)
			return err
		},
		"list": func(db Session) error {
			_, err := r.List(ctx, db, ListParams{})
			return err
		},
		"count": func(db Session) error {
			_, err := r.Count(ctx, db, nil)
			return err
		},
		"create": func(db Session) error {
			_, err := r.Create(ctx, db, Fields{"level": 1})
			return err
		},
		"update": func(db Session) error {
			_, err := r.Update(ctx, db, station, Fields{"level": 2})
			return err
		},
		"remove": func(db Session) error {
			_, err := r.Remove(ctx, db, id)
			return err
		},
		"soft remove": func(db Session) error {
			_, err := r.SoftRemove(ctx, db, id)
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op(&failingSession{err: unreachable()})
			assert.ErrorIs(t, err, ErrStoreUnavailable)
		})
	}
}

func TestList_ClampsLimitAndLogsIgnoredFields(t *testing.T) {
	var buf bytes.Buffer
	r := MustNew[models.Station](WithLogger(logger.NewWithWriter(&buf, zerolog.DebugLevel)))
	db := &failingSession{err: unreachable()}

	_, err := r.List(context.Background(), db, ListParams{
		Filters: Filters{"colour": "red"},
		Skip:    -4,
		Limit:   5000,
	})

	require.Error(t, err)
	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], "LIMIT $1 OFFSET $2")
	assert.Contains(t, buf.String(), `"field":"colour"`)
	assert.Contains(t, buf.String(), `"op":"list"`)
	assert.Contains(t, buf.String(), "Ignoring field")
}

func TestCount_SameQueryShapeAsList(t *testing.T) {
	r := MustNew[models.Station](WithSoftDeleteFilter())
	db := &failingSession{err: unreachable()}

	_, _ = r.Count(context.Background(), db, Filters{"level": 3})

	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], `SELECT count(*) FROM "base_geometries" JOIN "stations"`)
	assert.Contains(t, db.queries[0], `WHERE "stations"."level" = $1 AND "base_geometries"."delete_at" IS NULL`)
}

func TestGetByID_RowCounts(t *testing.T) {
	r := MustNew[models.Station]()
	ctx := context.Background()

	got, err := r.GetByID(ctx, newScriptedSession[models.Station](0), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.GetByID(ctx, newScriptedSession[models.Station](1), uuid.New())
	assert.NoError(t, err)
	assert.NotNil(t, got)

	got, err = r.GetByID(ctx, newScriptedSession[models.Station](2), uuid.New())
	assert.ErrorIs(t, err, ErrIntegrityViolation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
}

func TestWrites_RowOfAnotherSubtypeIsUntouched(t *testing.T) {
	r := MustNew[models.Station]()
	ctx := context.Background()

	// A closure area id: the root row exists but the stations join finds nothing.
	id := uuid.New()
	other := &models.Station{}
	other.UUID = id

	ops := map[string]func(Session) error{
		"update root column": func(db Session) error {
			_, err := r.Update(ctx, db, other, Fields{"city": "Hualien"})
			return err
		},
		"soft remove": func(db Session) error {
			_, err := r.SoftRemove(ctx, db, id)
			return err
		},
		"remove": func(db Session) error {
			_, err := r.Remove(ctx, db, id)
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			db := newScriptedSession[models.Station](0)

			err := op(db)

			assert.ErrorIs(t, err, ErrNotFound)
			assert.Empty(t, db.writes, "no statement reaches another entity's rows")
			assert.False(t, db.committed)
			assert.True(t, db.rolledBack)
		})
	}
}

func TestSoftRemove_ExistingRowCommits(t *testing.T) {
	r := MustNew[models.Station]()
	db := newScriptedSession[models.Station](1)

	got, err := r.SoftRemove(context.Background(), db, uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, got)
	require.Len(t, db.writes, 1)
	assert.Contains(t, db.writes[0], `UPDATE "base_geometries" SET "delete_at" = COALESCE("delete_at", now())`)
	assert.True(t, db.committed)
}
