package pending

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/actionlink/internal/cache"
)

func TestCacheBackend_ScopedByContext(t *testing.T) {
	ctx := context.Background()
	b := NewCacheBackend(cache.NewMemory("test"))

	a := ForContext(b, "ctx-a")
	other := ForContext(b, "ctx-b")

	_, ok, err := a.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, a.Set(ctx, "user@example.com"))
	email, ok, err := a.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "user@example.com", email)

	// Otro browsing context no lo ve.
	_, ok, err = other.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, a.Set(ctx, "second@example.com"))
	email, _, _ = a.Get(ctx)
	require.Equal(t, "second@example.com", email)

	require.NoError(t, a.Clear(ctx))
	_, ok, _ = a.Get(ctx)
	require.False(t, ok)
}

func TestScoped_EmptyContext(t *testing.T) {
	ctx := context.Background()
	s := ForContext(NewCacheBackend(cache.NewMemory("")), " ")

	require.ErrorIs(t, s.Set(ctx, "u@example.com"), ErrNoContext)
	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, s.Clear(ctx))
}

func TestKey(t *testing.T) {
	require.Equal(t, "abc:pendingSignInEmail", Key("abc"))
}

// fakeDB emula la tabla pending_signin_email.
type fakeDB struct {
	mu   sync.Mutex
	rows map[string]string
	err  error
}

type fakeRow struct {
	val string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.val
	return nil
}

func (d *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return pgconn.CommandTag{}, d.err
	}
	id := args[0].(string)
	if strings.HasPrefix(sql, "INSERT") {
		d.rows[id] = args[1].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	delete(d.rows, id)
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (d *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return fakeRow{err: d.err}
	}
	v, ok := d.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{val: v}
}

func (d *fakeDB) Ping(context.Context) error { return d.err }

func TestPostgresBackend(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{rows: map[string]string{}}
	s := ForContext(NewPostgresBackend(db), "ctx-1")

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "user@example.com"))
	require.Equal(t, "user@example.com", db.rows["ctx-1"])

	email, ok, err := s.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "user@example.com", email)

	require.NoError(t, s.Clear(ctx))
	require.Empty(t, db.rows)

	db.err = errors.New("conn refused")
	_, _, err = s.Get(ctx)
	require.ErrorContains(t, err, "conn refused")
}
