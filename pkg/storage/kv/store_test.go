package kv

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/oneconcern/configsvc/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func setupStore(t testing.TB) *Store {
	t.Helper()

	s, err := New("", InMemory())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "sixteentons", strings.NewReader("this is the text"), storage.NoOverWrite))
	require.NoError(t, s.Put(ctx, "seventeentons", strings.NewReader("this is the text for another thing"), storage.NoOverWrite))
	return s
}

func TestHasGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	has, err := s.Has(ctx, "sixteentons")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.Has(ctx, "fifteentons")
	require.NoError(t, err)
	assert.False(t, has)

	rdr, err := s.Get(ctx, "seventeentons")
	require.NoError(t, err)
	b, err := ioutil.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text for another thing", string(b))

	_, err = s.Get(ctx, "fifteentons")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotExists))
}

func TestPutExclusive(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.Put(ctx, "sixteentons", strings.NewReader("again"), storage.NoOverWrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrExists))

	require.NoError(t, s.Put(ctx, "sixteentons", strings.NewReader("again"), storage.OverWrite))
	rdr, err := s.Get(ctx, "sixteentons")
	require.NoError(t, err)
	b, _ := ioutil.ReadAll(rdr)
	assert.Equal(t, "again", string(b))
}

func TestConcurrentExclusivePut(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	const writers = 16
	results := make([]error, writers)
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		i := i
		g.Go(func() error {
			results[i] = s.Put(ctx, "contended", strings.NewReader(fmt.Sprint(i)), storage.NoOverWrite)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, exists int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, status.ErrExists):
			exists++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, exists)
}

func TestKeysPrefixDeleteClear(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, k := range []string{"revisions/a/2", "revisions/a/1", "revisions/b/1"} {
		require.NoError(t, s.Put(ctx, k, strings.NewReader(k), storage.NoOverWrite))
	}

	keys, next, err := s.KeysPrefix(ctx, "", "revisions/a/", "", 0)
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.Equal(t, []string{"revisions/a/1", "revisions/a/2"}, keys)

	keys, _, err = s.KeysPrefix(ctx, "", "revisions/", "/", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"revisions/a/", "revisions/b/"}, keys)

	require.NoError(t, s.Delete(ctx, "revisions/a/1"))
	all, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, s.Clear(ctx))
	all, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kv")
	s, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, "badger@"+dir, s.String())

	require.NoError(t, s.Put(context.Background(), "k", strings.NewReader("v"), storage.NoOverWrite))
	require.NoError(t, s.Close())

	s, err = New(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	has, err := s.Has(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, has)
}
