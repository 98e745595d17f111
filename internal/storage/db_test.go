package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/hotel-lister/internal/storage"
)

// ---- mock MigrationPool ----

type mockMigrationPool struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
	execFn  func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockMigrationPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.beginFn(ctx)
}

func (m *mockMigrationPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFn == nil {
		return pgconn.CommandTag{}, nil
	}
	return m.execFn(ctx, sql, args...)
}

// mockTx is a minimal pgx.Tx implementation for testing migrations.
type mockTx struct {
	applied  map[string]bool
	execFn   func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	commitFn func(ctx context.Context) error

	executed  []string
	recorded  []string
	committed int
	rollbacks int
}

func (t *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if len(args) == 1 {
		t.recorded = append(t.recorded, args[0].(string))
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	t.executed = append(t.executed, sql)
	if t.execFn != nil {
		return t.execFn(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (t *mockTx) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	version := args[0].(string)
	return &fakeRow{scanFn: func(dest ...any) error {
		*dest[0].(*bool) = t.applied[version]
		return nil
	}}
}

func (t *mockTx) Commit(ctx context.Context) error {
	t.committed++
	if t.commitFn != nil {
		return t.commitFn(ctx)
	}
	return nil
}

func (t *mockTx) Rollback(_ context.Context) error {
	t.rollbacks++
	return nil
}

// pgx.Tx has many more methods, all unused by migrations.
func (t *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (t *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *mockTx) Conn() *pgx.Conn { return nil }

// ---- helpers ----

func writeSQLFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func poolFor(tx *mockTx) *mockMigrationPool {
	return &mockMigrationPool{beginFn: func(_ context.Context) (pgx.Tx, error) { return tx, nil }}
}

// ---- RunMigrations ----

func TestRunMigrations_MissingDir(t *testing.T) {
	_, err := storage.RunMigrations(context.Background(), nil, "/nonexistent/dir")
	require.Error(t, err)
}

func TestRunMigrations_EmptyDir(t *testing.T) {
	applied, err := storage.RunMigrations(context.Background(), nil, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestRunMigrations_AppliesInOrderAndRecords(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "003_c.sql", "SELECT 3;")
	writeSQLFile(t, dir, "001_a.sql", "SELECT 1;")
	writeSQLFile(t, dir, "002_b.sql", "SELECT 2;")
	writeSQLFile(t, dir, "README.md", "not a migration")

	var bootstrap string
	tx := &mockTx{applied: map[string]bool{}}
	pool := poolFor(tx)
	pool.execFn = func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
		bootstrap = sql
		return pgconn.CommandTag{}, nil
	}

	applied, err := storage.RunMigrations(context.Background(), pool, dir)
	require.NoError(t, err)

	assert.Contains(t, bootstrap, "schema_migrations")
	assert.Equal(t, []string{"001_a.sql", "002_b.sql", "003_c.sql"}, applied)
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2;", "SELECT 3;"}, tx.executed)
	assert.Equal(t, applied, tx.recorded)
	assert.Equal(t, 3, tx.committed)
}

func TestRunMigrations_SkipsApplied(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "001_users.sql", "CREATE TABLE users ();")
	writeSQLFile(t, dir, "002_bookmarks.sql", "CREATE TABLE bookmarks ();")

	tx := &mockTx{applied: map[string]bool{"001_users.sql": true}}

	applied, err := storage.RunMigrations(context.Background(), poolFor(tx), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"002_bookmarks.sql"}, applied)
	assert.Equal(t, []string{"CREATE TABLE bookmarks ();"}, tx.executed)
}

func TestRunMigrations_BootstrapError(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "001_test.sql", "SELECT 1;")

	pool := &mockMigrationPool{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("permission denied")
		},
	}

	_, err := storage.RunMigrations(context.Background(), pool, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_migrations")
}

func TestRunMigrations_BeginError(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "001_test.sql", "SELECT 1;")

	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return nil, errors.New("cannot begin") },
	}

	_, err := storage.RunMigrations(context.Background(), pool, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing migration")
}

func TestRunMigrations_ExecErrorRollsBack(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "001_ok.sql", "SELECT 1;")
	writeSQLFile(t, dir, "002_bad.sql", "INVALID SQL;")

	tx := &mockTx{
		applied: map[string]bool{},
		execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			if sql == "INVALID SQL;" {
				return pgconn.CommandTag{}, errors.New("syntax error")
			}
			return pgconn.CommandTag{}, nil
		},
	}

	applied, err := storage.RunMigrations(context.Background(), poolFor(tx), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_bad.sql")
	assert.Equal(t, []string{"001_ok.sql"}, applied)
	assert.Equal(t, 1, tx.committed)
	assert.Equal(t, 2, tx.rollbacks)
}

func TestRunMigrations_CommitError(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "001_test.sql", "SELECT 1;")

	tx := &mockTx{
		applied:  map[string]bool{},
		commitFn: func(_ context.Context) error { return errors.New("commit failed") },
	}

	applied, err := storage.RunMigrations(context.Background(), poolFor(tx), dir)
	require.Error(t, err)
	assert.Empty(t, applied)
}

func TestRunMigrations_ShippedMigrations(t *testing.T) {
	tx := &mockTx{applied: map[string]bool{}}

	applied, err := storage.RunMigrations(context.Background(), poolFor(tx), filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)

	assert.Equal(t, []string{"001_users.sql", "002_bookmarks.sql"}, applied)
	require.Len(t, tx.executed, 2)
	assert.Contains(t, tx.executed[0], "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, tx.executed[1], "UNIQUE (user_id, hotel_code)")
	assert.Contains(t, tx.executed[1], "ON DELETE CASCADE")
}

// ---- Connect ----

func TestConnect_BadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := storage.Connect(ctx, "postgres://invalid-host-xyz:5432/db?sslmode=disable")
	require.Error(t, err)
}

func TestConnect_UnparsableURL(t *testing.T) {
	_, err := storage.Connect(context.Background(), "://not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing database URL")
}
