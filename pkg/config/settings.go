// Package config loads the settings of the config service, and wires its components together.
package config

import (
	"strings"

	units "github.com/docker/go-units"
	"github.com/oneconcern/configsvc/pkg/annex"
	"github.com/oneconcern/configsvc/pkg/dlogger"
	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/router"
	"github.com/spf13/viper"
)

// Supported backends
const (
	BackendLocalFS = "localfs"
	BackendBadger  = "badger"
	BackendS3      = "s3"
)

// EnvPrefix is the prefix of environment variables overriding settings
const EnvPrefix = "configsvc"

// ErrInvalidSettings indicates settings which cannot be wired
var ErrInvalidSettings = errors.New("invalid settings")

// Settings of the config service
type Settings struct {
	LogLevel          string             `json:"logLevel" yaml:"logLevel" mapstructure:"logLevel"`
	MaxConfigFileSize string             `json:"maxConfigFileSize" yaml:"maxConfigFileSize" mapstructure:"maxConfigFileSize"`
	Contributor       model.Contributor  `json:"contributor" yaml:"contributor" mapstructure:"contributor"`
	Repository        RepositorySettings `json:"repository" yaml:"repository" mapstructure:"repository"`
	Annex             AnnexSettings      `json:"annex" yaml:"annex" mapstructure:"annex"`
}

// RepositorySettings locate the repository of configuration files
type RepositorySettings struct {
	Backend             string `json:"backend" yaml:"backend" mapstructure:"backend"`
	Path                string `json:"path" yaml:"path" mapstructure:"path"`
	DescriptorCacheSize int    `json:"descriptorCacheSize" yaml:"descriptorCacheSize" mapstructure:"descriptorCacheSize"`
}

// AnnexSettings locate the annex, and tell which files are stored there
type AnnexSettings struct {
	Backend     string `json:"backend" yaml:"backend" mapstructure:"backend"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	Bucket      string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
	Prefix      string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	Region      string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
	Endpoint    string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Scheme      string `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Compress    bool   `json:"compress" yaml:"compress" mapstructure:"compress"`
	Suffix      string `json:"suffix" yaml:"suffix" mapstructure:"suffix"`
	MinFileSize string `json:"minFileSize" yaml:"minFileSize" mapstructure:"minFileSize"`
}

// SetDefaults registers default settings on a viper instance.
//
// All settings are registered, so that every one of them may be overridden by the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", dlogger.LogLevelInfo)
	v.SetDefault("maxConfigFileSize", "")
	v.SetDefault("contributor.name", "")
	v.SetDefault("contributor.email", "")
	v.SetDefault("repository.backend", BackendLocalFS)
	v.SetDefault("repository.path", ".configsvc/repository")
	v.SetDefault("repository.descriptorCacheSize", 0)
	v.SetDefault("annex.backend", BackendLocalFS)
	v.SetDefault("annex.path", ".configsvc/annex")
	v.SetDefault("annex.bucket", "")
	v.SetDefault("annex.prefix", "")
	v.SetDefault("annex.region", "")
	v.SetDefault("annex.endpoint", "")
	v.SetDefault("annex.scheme", annex.SchemeBlake2b)
	v.SetDefault("annex.compress", false)
	v.SetDefault("annex.suffix", router.DefaultAnnexSuffix)
	v.SetDefault("annex.minFileSize", "")
}

// NewViper builds a viper instance with default settings, and overrides from the environment
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load settings from a viper instance
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, ErrInvalidSettings.Wrap(err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate settings
func (s Settings) Validate() error {
	switch s.Repository.Backend {
	case BackendLocalFS, BackendBadger:
		if s.Repository.Path == "" {
			return ErrInvalidSettings.WrapMessage("repository.path is required with backend %q", s.Repository.Backend)
		}
	default:
		return ErrInvalidSettings.WrapMessage("unsupported repository backend %q", s.Repository.Backend)
	}

	switch s.Annex.Backend {
	case BackendLocalFS:
		if s.Annex.Path == "" {
			return ErrInvalidSettings.WrapMessage("annex.path is required with backend %q", s.Annex.Backend)
		}
	case BackendS3:
		if s.Annex.Bucket == "" {
			return ErrInvalidSettings.WrapMessage("annex.bucket is required with backend %q", s.Annex.Backend)
		}
	default:
		return ErrInvalidSettings.WrapMessage("unsupported annex backend %q", s.Annex.Backend)
	}

	if s.Annex.Scheme != "" && !annex.KnownScheme(s.Annex.Scheme) {
		return ErrInvalidSettings.WrapMessage("unsupported annex scheme %q", s.Annex.Scheme)
	}
	if _, err := s.AnnexMinFileSizeBytes(); err != nil {
		return err
	}
	if _, err := s.MaxConfigFileSizeBytes(); err != nil {
		return err
	}
	if _, err := dlogger.GetLogger(s.LogLevel); err != nil {
		return ErrInvalidSettings.WrapMessage("log level %q", s.LogLevel)
	}
	return nil
}

// AnnexMinFileSizeBytes is the size above which new files go to the annex. Zero means no threshold.
func (s Settings) AnnexMinFileSizeBytes() (int64, error) {
	return parseSize("annex.minFileSize", s.Annex.MinFileSize)
}

// MaxConfigFileSizeBytes is the maximum size of a file. Zero means no limit.
func (s Settings) MaxConfigFileSizeBytes() (int64, error) {
	return parseSize("maxConfigFileSize", s.MaxConfigFileSize)
}

// parseSize reads a human readable size, such as "10MB"
func parseSize(key, size string) (int64, error) {
	if size == "" {
		return 0, nil
	}
	n, err := units.FromHumanSize(size)
	if err != nil || n < 0 {
		return 0, ErrInvalidSettings.WrapMessage("%s: invalid size %q", key, size)
	}
	return n, nil
}
