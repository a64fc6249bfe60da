package storage_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"testing"

	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/oneconcern/configsvc/pkg/storage/localfs"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPage(t *testing.T) {
	keys := []string{
		"a/1", "a/2", "a/3/x", "a/3/y", "a/4", "b/1",
	}

	t.Run("all keys with prefix", func(t *testing.T) {
		page, next := storage.Page(keys, "", "a/", "", 0)
		assert.Equal(t, []string{"a/1", "a/2", "a/3/x", "a/3/y", "a/4"}, page)
		assert.Empty(t, next)
	})

	t.Run("paginated", func(t *testing.T) {
		page, next := storage.Page(keys, "", "a/", "", 2)
		assert.Equal(t, []string{"a/1", "a/2"}, page)
		require.Equal(t, "a/2", next)

		page, next = storage.Page(keys, next, "a/", "", 2)
		assert.Equal(t, []string{"a/3/x", "a/3/y"}, page)
		require.Equal(t, "a/3/y", next)

		page, next = storage.Page(keys, next, "a/", "", 2)
		assert.Equal(t, []string{"a/4"}, page)
		assert.Empty(t, next)
	})

	t.Run("with delimiter", func(t *testing.T) {
		page, next := storage.Page(keys, "", "a/", "/", 0)
		assert.Equal(t, []string{"a/1", "a/2", "a/3/", "a/4"}, page)
		assert.Empty(t, next)
	})

	t.Run("no match", func(t *testing.T) {
		page, next := storage.Page(keys, "", "c/", "", 0)
		assert.Empty(t, page)
		assert.Empty(t, next)
	})
}

func TestHelpers(t *testing.T) {
	ctx := context.Background()
	src := localfs.New(afero.NewMemMapFs())
	dst := localfs.New(afero.NewMemMapFs())

	require.NoError(t, src.Put(ctx, "k1", bytes.NewBufferString("some content"), storage.NoOverWrite))

	b, err := storage.ReadAll(ctx, src, "k1")
	require.NoError(t, err)
	require.NoError(t, dst.Put(ctx, "k2", bytes.NewReader(b), storage.NoOverWrite))

	b, err = storage.ReadAll(ctx, dst, "k2")
	require.NoError(t, err)
	assert.Equal(t, "some content", string(b))

	for i := 0; i < 3; i++ {
		require.NoError(t, src.Put(ctx, "dir/"+string(rune('a'+i)), bytes.NewBufferString("x"), storage.OverWrite))
	}
	keys, err := storage.ListPrefix(ctx, src, "dir/")
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/a", "dir/b", "dir/c"}, keys)

	var buf bytes.Buffer
	n, err := storage.PipeIO(&buf, bytes.NewBufferString("piped"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.Equal(t, "piped", buf.String())
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	tracer := mocktracer.New()
	store := storage.Instrument(tracer, zap.NewNop(), localfs.New(afero.NewMemMapFs()))

	require.NoError(t, store.Put(ctx, "key", bytes.NewBufferString("value"), storage.NoOverWrite))
	has, err := store.Has(ctx, "key")
	require.NoError(t, err)
	require.True(t, has)

	rdr, err := store.Get(ctx, "key")
	require.NoError(t, err)
	b, err := ioutil.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "value", string(b))

	_, err = store.Get(ctx, "missing")
	require.Error(t, err)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 4)
	assert.Equal(t, "storage.localfs.Put", spans[0].OperationName)
	assert.Equal(t, true, spans[3].Tag("error"))
}
