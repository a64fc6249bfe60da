package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/repo/status"
	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/oneconcern/configsvc/pkg/storage/kv"
	"github.com/oneconcern/configsvc/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var base = time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mx   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mx.Lock()
	defer c.mx.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func setupStore(t testing.TB) storage.Store {
	t.Helper()
	store, err := localfs.NewAtomic(afero.NewMemMapFs())
	require.NoError(t, err)
	return store
}

func setupRepo(t testing.TB, store storage.Store, opts ...Option) *Repository {
	t.Helper()
	r, err := New(store, opts...)
	require.NoError(t, err)
	return r
}

func readString(t testing.TB, r *Repository, pth string, sel Selector) string {
	t.Helper()
	data, _, err := r.Read(context.Background(), pth, sel)
	require.NoError(t, err)
	txt, err := data.Text()
	require.NoError(t, err)
	return txt
}

func commit(t testing.TB, r *Repository, pth, content string, mode CommitMode) model.RevisionDescriptor {
	t.Helper()
	desc, err := r.Commit(context.Background(), pth, strings.NewReader(content), "commit "+content, mode)
	require.NoError(t, err)
	return desc
}

func TestCommitHistory(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	ctx := context.Background()

	created := commit(t, r, "/tcs/tcs.conf", "c0", Create)
	assert.Equal(t, "tcs/tcs.conf", created.Path)
	assert.Equal(t, created.ID, created.Generation)
	assert.Equal(t, uint64(1), created.Sequence)
	assert.Equal(t, int64(2), created.Size)

	ids := []model.RevisionID{created.ID}
	for i := 1; i <= 3; i++ {
		desc := commit(t, r, "tcs/tcs.conf", fmt.Sprintf("c%d", i), Update)
		assert.Equal(t, created.Generation, desc.Generation)
		assert.Equal(t, uint64(i+1), desc.Sequence)
		ids = append(ids, desc.ID)
	}

	history, err := r.Log(ctx, "tcs/tcs.conf", LogQuery{})
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, desc := range history {
		assert.Equal(t, ids[len(ids)-1-i], desc.ID)
		assert.Equal(t, fmt.Sprintf("commit c%d", 3-i), desc.Comment)
	}
	assert.Equal(t, "c3", readString(t, r, "tcs/tcs.conf", Latest()))

	truncated, err := r.Log(ctx, "tcs/tcs.conf", LogQuery{Max: 2})
	require.NoError(t, err)
	assert.Equal(t, history[:2], truncated)
}

func TestCreateTwice(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	commit(t, r, "a.conf", "one", Create)

	_, err := r.Commit(context.Background(), "a.conf", strings.NewReader("two"), "again", Create)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFileAlreadyExists))

	history, err := r.Log(context.Background(), "a.conf", LogQuery{})
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, "one", readString(t, r, "a.conf", Latest()))
}

func TestUntracked(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	ctx := context.Background()

	_, err := r.Commit(ctx, "nowhere.conf", strings.NewReader("x"), "", Update)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFileNotFound))

	_, _, err = r.Read(ctx, "nowhere.conf", Latest())
	assert.True(t, errors.Is(err, status.ErrFileNotFound))

	_, err = r.Log(ctx, "nowhere.conf", LogQuery{})
	assert.True(t, errors.Is(err, status.ErrFileNotFound))

	err = r.Delete(ctx, "nowhere.conf", "")
	assert.True(t, errors.Is(err, status.ErrFileNotFound))

	exists, err := r.Exists(ctx, "nowhere.conf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInvalidPath(t *testing.T) {
	r := setupRepo(t, setupStore(t))

	_, err := r.Commit(context.Background(), "a b", strings.NewReader("x"), "", Create)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidInput))
	assert.True(t, errors.Is(err, model.ErrInvalidPath))

	_, err = r.Exists(context.Background(), "../etc/passwd")
	assert.True(t, errors.Is(err, status.ErrInvalidInput))
}

func TestReadByID(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	first := commit(t, r, "a.conf", "one", Create)
	second := commit(t, r, "a.conf", "two", Update)
	commit(t, r, "a.conf", "three", Update)

	assert.Equal(t, "one", readString(t, r, "a.conf", ByID(first.ID)))
	assert.Equal(t, "two", readString(t, r, "a.conf", ByID(second.ID)))

	_, desc, err := r.Read(context.Background(), "a.conf", ByID(second.ID))
	require.NoError(t, err)
	assert.Equal(t, second, desc)

	other := commit(t, r, "b.conf", "other", Create)
	_, _, err = r.Read(context.Background(), "a.conf", ByID(other.ID))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFileNotFound))
}

func TestTimeTravel(t *testing.T) {
	clock := &fakeClock{t: base, step: time.Hour}
	r := setupRepo(t, setupStore(t), Clock(clock.Now))

	t1 := commit(t, r, "a.conf", "c1", Create).Timestamp
	t2 := commit(t, r, "a.conf", "c2", Update).Timestamp
	t3 := commit(t, r, "a.conf", "c3", Update).Timestamp
	require.True(t, t1.Before(t2) && t2.Before(t3))

	_, _, err := r.Read(context.Background(), "a.conf", AtTime(t1.Add(-time.Nanosecond)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFileNotFound))

	for _, toPin := range []struct {
		at       time.Time
		expected string
	}{
		{at: t1, expected: "c1"},
		{at: t1.Add(30 * time.Minute), expected: "c1"},
		{at: t2.Add(-time.Nanosecond), expected: "c1"},
		{at: t2, expected: "c2"},
		{at: t3.Add(-time.Nanosecond), expected: "c2"},
		{at: t3, expected: "c3"},
		{at: t3.Add(24 * time.Hour), expected: "c3"},
	} {
		assert.Equal(t, toPin.expected, readString(t, r, "a.conf", AtTime(toPin.at)), "at %v", toPin.at)
	}

	// descriptors reloaded from the store resolve the same way
	reloaded := setupRepo(t, r.store)
	assert.Equal(t, "c2", readString(t, reloaded, "a.conf", AtTime(t2.Add(time.Minute))))
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	frozen := &fakeClock{t: base}
	r := setupRepo(t, setupStore(t), Clock(frozen.Now))

	previous := commit(t, r, "a.conf", "c0", Create)
	for i := 1; i < 5; i++ {
		desc := commit(t, r, "a.conf", fmt.Sprintf("c%d", i), Update)
		assert.True(t, desc.Timestamp.After(previous.Timestamp))
		previous = desc
	}
	assert.Equal(t, "c2", readString(t, r, "a.conf", AtTime(base.Add(2*time.Nanosecond))))
}

func TestLogRange(t *testing.T) {
	clock := &fakeClock{t: base, step: time.Hour}
	r := setupRepo(t, setupStore(t), Clock(clock.Now))
	ctx := context.Background()

	commit(t, r, "a.conf", "c0", Create)
	for i := 1; i < 5; i++ {
		commit(t, r, "a.conf", fmt.Sprintf("c%d", i), Update)
	}

	history, err := r.Log(ctx, "a.conf", LogQuery{From: base.Add(time.Hour), To: base.Add(3 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "commit c3", history[0].Comment)
	assert.Equal(t, "commit c1", history[2].Comment)

	history, err = r.Log(ctx, "a.conf", LogQuery{From: base.Add(time.Hour), Max: 2})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "commit c4", history[0].Comment)

	history, err = r.Log(ctx, "a.conf", LogQuery{To: base.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDeleteRecreate(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	ctx := context.Background()

	old := commit(t, r, "a.conf", "old", Create)
	commit(t, r, "a.conf", "older", Update)
	require.NoError(t, r.Delete(ctx, "a.conf", "decommissioned"))

	exists, err := r.Exists(ctx, "a.conf")
	require.NoError(t, err)
	assert.False(t, exists)

	_, _, err = r.Read(ctx, "a.conf", Latest())
	assert.True(t, errors.Is(err, status.ErrFileNotFound))
	_, err = r.Log(ctx, "a.conf", LogQuery{})
	assert.True(t, errors.Is(err, status.ErrFileNotFound))
	assert.True(t, errors.Is(r.Delete(ctx, "a.conf", ""), status.ErrFileNotFound))

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = r.Commit(ctx, "a.conf", strings.NewReader("x"), "", Update)
	assert.True(t, errors.Is(err, status.ErrFileNotFound))

	fresh := commit(t, r, "a.conf", "new", Create)
	assert.NotEqual(t, old.Generation, fresh.Generation)
	assert.Equal(t, uint64(1), fresh.Sequence)

	history, err := r.Log(ctx, "a.conf", LogQuery{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, fresh.ID, history[0].ID)

	_, _, err = r.Read(ctx, "a.conf", ByID(old.ID))
	assert.True(t, errors.Is(err, status.ErrFileNotFound))
	assert.Equal(t, "new", readString(t, r, "a.conf", Latest()))
}

func TestList(t *testing.T) {
	store := setupStore(t)
	r := setupRepo(t, store)
	ctx := context.Background()

	for _, p := range []string{"tcs/z.conf", "a.conf", "tcs/b.conf", "m/x.conf"} {
		commit(t, r, p, "content of "+p, Create)
	}
	latest := commit(t, r, "tcs/b.conf", "updated", Update)
	require.NoError(t, r.Delete(ctx, "m/x.conf", ""))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	paths := make([]string, 0, len(list))
	for _, s := range list {
		paths = append(paths, s.Head.Path)
	}
	assert.Equal(t, []string{"a.conf", "tcs/b.conf", "tcs/z.conf"}, paths)
	assert.Equal(t, latest.ID, list[1].Latest.ID)
	assert.Equal(t, "commit updated", list[1].Latest.Comment)

	prefixed, err := r.ListPrefix(ctx, "/tcs/")
	require.NoError(t, err)
	assert.Len(t, prefixed, 2)

	// a fresh repository rebuilds the same index from the store
	reloaded := setupRepo(t, store)
	relisted, err := reloaded.List(ctx)
	require.NoError(t, err)
	require.Len(t, relisted, 3)
	for i := range list {
		assert.Equal(t, list[i].Head.Path, relisted[i].Head.Path)
		assert.Equal(t, list[i].Latest.ID, relisted[i].Latest.ID)
		assert.True(t, list[i].Latest.Timestamp.Equal(relisted[i].Latest.Timestamp))
	}
}

func TestConcurrentCreate(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	const writers = 20

	var (
		g        errgroup.Group
		mx       sync.Mutex
		success  int
		conflict int
	)
	for i := 0; i < writers; i++ {
		i := i
		g.Go(func() error {
			_, err := r.Commit(context.Background(), "contended.conf", strings.NewReader(fmt.Sprintf("writer %d", i)), "", Create)
			mx.Lock()
			defer mx.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, status.ErrFileAlreadyExists):
				conflict++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, success)
	assert.Equal(t, writers-1, conflict)

	history, err := r.Log(context.Background(), "contended.conf", LogQuery{})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestConcurrentUpdatesKeepOrder(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	commit(t, r, "a.conf", "c0", Create)
	const writers = 10

	var g errgroup.Group
	for i := 1; i <= writers; i++ {
		i := i
		g.Go(func() error {
			_, err := r.Commit(context.Background(), "a.conf", strings.NewReader(fmt.Sprintf("c%d", i)), "", Update)
			return err
		})
	}
	require.NoError(t, g.Wait())

	history, err := r.Log(context.Background(), "a.conf", LogQuery{})
	require.NoError(t, err)
	require.Len(t, history, writers+1)
	for i := 1; i < len(history); i++ {
		assert.Equal(t, history[i-1].Sequence, history[i].Sequence+1)
		assert.True(t, history[i-1].Timestamp.After(history[i].Timestamp))
	}
}

func TestNamespaces(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	defaults := r.WithNamespace(model.NamespaceDefaults)
	assert.Equal(t, model.NamespaceFiles, r.Namespace())
	assert.Equal(t, model.NamespaceDefaults, defaults.Namespace())

	commit(t, r, "a.conf", "file", Create)
	exists, err := defaults.Exists(context.Background(), "a.conf")
	require.NoError(t, err)
	assert.False(t, exists)

	commit(t, defaults, "a.conf", "default record", Create)
	assert.Equal(t, "file", readString(t, r, "a.conf", Latest()))
	assert.Equal(t, "default record", readString(t, defaults, "a.conf", Latest()))

	list, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCancelledCommit(t *testing.T) {
	r := setupRepo(t, setupStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Commit(ctx, "a.conf", strings.NewReader("x"), "", Create)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	exists, err := r.Exists(context.Background(), "a.conf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBadgerBackend(t *testing.T) {
	store, err := kv.New("", kv.InMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	r := setupRepo(t, store)
	first := commit(t, r, "tcs/tcs.conf", "one", Create)
	commit(t, r, "tcs/tcs.conf", "two", Update)

	assert.Equal(t, "two", readString(t, r, "tcs/tcs.conf", Latest()))
	assert.Equal(t, "one", readString(t, r, "tcs/tcs.conf", ByID(first.ID)))

	history, err := setupRepo(t, store).Log(context.Background(), "tcs/tcs.conf", LogQuery{})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
