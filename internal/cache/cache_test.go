package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/codegraph/internal/extract"
	"github.com/kestrelworks/codegraph/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult() *extract.Result {
	return &extract.Result{
		Declarations: []model.Declaration{{
			ID:            "a.py:foo:1",
			Kind:          model.Function,
			Name:          "foo",
			QualifiedName: "foo",
			Signature:     "foo()",
			File:          "a.py",
			StartLine:     1,
			EndLine:       2,
		}},
		Calls: []model.CallReference{{
			CallerID: "a.py:foo:1",
			File:     "a.py",
			Callee:   "bar",
			Line:     2,
		}},
	}
}

func TestGetMiss(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	res, ok, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	want := sampleResult()
	require.NoError(t, store.Put(ctx, "id-1", "a.py", want))

	got, ok, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Declarations, got.Declarations)
	assert.Equal(t, want.Calls, got.Calls)
	assert.False(t, got.Partial)
}

func TestGetSurvivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "id-1", "a.py", sampleResult()))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, ok, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.Declarations, 1)
}

func TestPutOverwrites(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "id-1", "a.py", sampleResult()))

	updated := sampleResult()
	updated.Partial = true
	require.NoError(t, store.Put(ctx, "id-1", "a.py", updated))

	got, ok, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Partial)
}

func TestCorruptPayloadIsMiss(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		"INSERT INTO entries (identity, path, payload) VALUES (?, ?, ?)",
		"bad", "a.py", []byte("{not json"))
	require.NoError(t, err)

	res, ok, err := store.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)

	// The corrupt entry is evicted, not left to fail again.
	var count int
	require.NoError(t, store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE identity = 'bad'").Scan(&count))
	assert.Zero(t, count)
}

func TestPrune(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "keep-1", "a.py", sampleResult()))
	require.NoError(t, store.Put(ctx, "keep-2", "b.py", sampleResult()))
	require.NoError(t, store.Put(ctx, "stale", "c.py", sampleResult()))

	pruned, err := store.Prune(ctx, map[string]struct{}{
		"keep-1": {},
		"keep-2": {},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, ok, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(ctx, "keep-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPruneNothingStale(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "keep", "a.py", sampleResult()))
	pruned, err := store.Prune(ctx, map[string]struct{}{"keep": {}})
	require.NoError(t, err)
	assert.Zero(t, pruned)
}

func TestOpenCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(context.Background(), "id", "a.py", sampleResult()))
}

func TestDisabledStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var store Store = Disabled{}

	require.NoError(t, store.Put(ctx, "id", "a.py", sampleResult()))
	_, ok, err := store.Get(ctx, "id")
	require.NoError(t, err)
	assert.False(t, ok)

	pruned, err := store.Prune(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, pruned)
	require.NoError(t, store.Close())
}
