package config

import (
	"strings"
	"testing"

	"github.com/oneconcern/configsvc/pkg/annex"
	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, BackendLocalFS, s.Repository.Backend)
	assert.Equal(t, ".configsvc/repository", s.Repository.Path)
	assert.Equal(t, BackendLocalFS, s.Annex.Backend)
	assert.Equal(t, annex.SchemeBlake2b, s.Annex.Scheme)
	assert.Equal(t, ".annex", s.Annex.Suffix)

	minSize, err := s.AnnexMinFileSizeBytes()
	require.NoError(t, err)
	assert.Zero(t, minSize)
}

func TestSettingsFromFile(t *testing.T) {
	v := NewViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
logLevel: debug
maxConfigFileSize: 50MB
contributor:
  name: ops
  email: ops@example.com
repository:
  backend: badger
  path: /var/lib/configsvc
annex:
  backend: s3
  bucket: configs
  region: us-west-2
  scheme: blake3
  compress: true
  minFileSize: 1MB
`)))

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "ops", s.Contributor.Name)
	assert.Equal(t, "ops@example.com", s.Contributor.Email)
	assert.Equal(t, BackendBadger, s.Repository.Backend)
	assert.Equal(t, "/var/lib/configsvc", s.Repository.Path)
	assert.Equal(t, BackendS3, s.Annex.Backend)
	assert.Equal(t, "configs", s.Annex.Bucket)
	assert.Equal(t, annex.SchemeBlake3, s.Annex.Scheme)
	assert.True(t, s.Annex.Compress)
	assert.Equal(t, ".annex", s.Annex.Suffix)

	minSize, err := s.AnnexMinFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), minSize)
	maxSize, err := s.MaxConfigFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(50000000), maxSize)
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("CONFIGSVC_ANNEX_MINFILESIZE", "2kB")
	t.Setenv("CONFIGSVC_REPOSITORY_PATH", "/srv/configs")
	t.Setenv("CONFIGSVC_LOGLEVEL", "warn")

	s, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "/srv/configs", s.Repository.Path)
	assert.Equal(t, "warn", s.LogLevel)
	minSize, err := s.AnnexMinFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(2000), minSize)
}

func TestValidate(t *testing.T) {
	valid := func() Settings {
		s, err := Load(NewViper())
		require.NoError(t, err)
		return s
	}

	for _, toPin := range []struct {
		name  string
		alter func(*Settings)
	}{
		{name: "repository backend", alter: func(s *Settings) { s.Repository.Backend = "git" }},
		{name: "repository path", alter: func(s *Settings) { s.Repository.Path = "" }},
		{name: "annex backend", alter: func(s *Settings) { s.Annex.Backend = "gcs" }},
		{name: "annex path", alter: func(s *Settings) { s.Annex.Path = "" }},
		{name: "annex bucket", alter: func(s *Settings) { s.Annex.Backend = BackendS3 }},
		{name: "annex scheme", alter: func(s *Settings) { s.Annex.Scheme = "md5" }},
		{name: "min file size", alter: func(s *Settings) { s.Annex.MinFileSize = "large" }},
		{name: "max file size", alter: func(s *Settings) { s.MaxConfigFileSize = "-1MB" }},
		{name: "log level", alter: func(s *Settings) { s.LogLevel = "chatty" }},
	} {
		fixture := toPin
		t.Run(fixture.name, func(t *testing.T) {
			s := valid()
			fixture.alter(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSettings))
		})
	}
}
