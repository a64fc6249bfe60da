package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oneconcern/configsvc/pkg/location"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/repo"
	"github.com/oneconcern/configsvc/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSettings(t testing.TB) Settings {
	t.Helper()
	s, err := Load(NewViper())
	require.NoError(t, err)
	s.Repository.Path = "/configsvc/repository"
	s.Annex.Path = "/configsvc/annex"
	s.Annex.MinFileSize = "16B"
	s.Contributor = model.Contributor{Name: "ops", Email: "ops@example.com"}
	return s
}

func TestOpen(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := Open(testSettings(t), Fs(fs), Logger(zap.NewNop()))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()
	ctx := context.Background()

	_, err = w.Service.Create(ctx, "tcs/tcs1.conf", strings.NewReader("axis = 1"), false, "small")
	require.NoError(t, err)
	_, err = w.Service.Create(ctx, "m1/lookup.bin", strings.NewReader("a table larger than the threshold"), false, "large")
	require.NoError(t, err)

	infos, err := w.Service.List(ctx, service.ListFilter{Type: model.Annex})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "m1/lookup.bin", infos[0].Path)

	history, err := w.Repository.Log(ctx, "tcs/tcs1.conf", repo.LogQuery{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ops", history[0].Contributor.Name)

	blobs, err := afero.ReadDir(fs, "/configsvc/annex/blake2b")
	require.NoError(t, err)
	assert.Len(t, blobs, 1)

	md := w.Service.Metadata(ctx)
	assert.Equal(t, int64(16), md.AnnexMinFileSize)
	assert.Contains(t, md.RepositoryPath, "/configsvc/repository")
	assert.Contains(t, md.AnnexPath, "/configsvc/annex")

	deregister, err := service.Announce(ctx, w.Locations, "http://localhost:4000")
	require.NoError(t, err)
	_, found, err := w.Locations.Resolve(ctx, location.ConfigServiceConnection)
	require.NoError(t, err)
	assert.True(t, found)
	require.NoError(t, deregister(ctx))

	// locations do not show up as configuration files
	all, err := w.Service.List(ctx, service.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOpenReload(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := testSettings(t)

	w, err := Open(s, Fs(fs))
	require.NoError(t, err)
	id, err := w.Service.Create(context.Background(), "tcs/tcs1.conf", strings.NewReader("axis = 1"), true, "oversize")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = Open(s, Fs(fs))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	data, err := w.Service.GetByID(context.Background(), "tcs/tcs1.conf", id)
	require.NoError(t, err)
	txt, err := data.Text()
	require.NoError(t, err)
	assert.Equal(t, "axis = 1", txt)
}

func TestOpenBadger(t *testing.T) {
	s := testSettings(t)
	s.Repository.Backend = BackendBadger
	s.Repository.Path = filepath.Join(t.TempDir(), "repository")

	w, err := Open(s, Fs(afero.NewMemMapFs()))
	require.NoError(t, err)

	_, err = w.Service.Create(context.Background(), "tcs/tcs1.conf", strings.NewReader("axis = 1"), false, "badger")
	require.NoError(t, err)
	found, err := w.Service.Exists(context.Background(), "tcs/tcs1.conf")
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, w.Close())
}

func TestOpenS3(t *testing.T) {
	s := testSettings(t)
	s.Annex.Backend = BackendS3
	s.Annex.Bucket = "configs"
	s.Annex.Region = "us-west-2"
	s.Annex.Endpoint = "http://127.0.0.1:9000"

	w, err := Open(s, Fs(afero.NewMemMapFs()))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()
	assert.Contains(t, w.Service.Metadata(context.Background()).AnnexPath, "s3@configs")
}

func TestOpenSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	w, err := Open(testSettings(t), Fs(afero.NewMemMapFs()), Registerer(reg))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	// metrics can be registered only once
	_, err = Open(testSettings(t), Fs(afero.NewMemMapFs()), Registerer(reg))
	require.Error(t, err)
}

func TestOpenInvalid(t *testing.T) {
	s := testSettings(t)
	s.Repository.Backend = "git"
	w, err := Open(s)
	require.Error(t, err)
	assert.Nil(t, w)
}
