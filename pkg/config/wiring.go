package config

import (
	"io"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/oneconcern/configsvc/pkg/annex"
	"github.com/oneconcern/configsvc/pkg/defaults"
	"github.com/oneconcern/configsvc/pkg/dlogger"
	"github.com/oneconcern/configsvc/pkg/location"
	"github.com/oneconcern/configsvc/pkg/repo"
	"github.com/oneconcern/configsvc/pkg/router"
	"github.com/oneconcern/configsvc/pkg/service"
	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/oneconcern/configsvc/pkg/storage/kv"
	"github.com/oneconcern/configsvc/pkg/storage/localfs"
	"github.com/oneconcern/configsvc/pkg/storage/sthree"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Wiring holds the components of a config service built from settings
type Wiring struct {
	Settings   Settings
	Logger     *zap.Logger
	Files      storage.Store
	Blobs      storage.Store
	Repository *repo.Repository
	Annex      *annex.Annex
	Router     *router.Router
	Defaults   *defaults.Store
	Service    *service.Service
	Locations  location.Registry

	closers []io.Closer
}

type wiringOptions struct {
	fs         afero.Fs
	l          *zap.Logger
	tracer     opentracing.Tracer
	registerer prometheus.Registerer
	awsConfig  *aws.Config
}

// Option to wire components
type Option func(*wiringOptions)

// Fs sets the file system hosting local stores. It defaults to the OS file system.
func Fs(fs afero.Fs) Option {
	return func(o *wiringOptions) {
		o.fs = fs
	}
}

// Logger overrides the logger built from the log level setting
func Logger(l *zap.Logger) Option {
	return func(o *wiringOptions) {
		o.l = l
	}
}

// Tracer traces all calls to backing stores
func Tracer(tr opentracing.Tracer) Option {
	return func(o *wiringOptions) {
		o.tracer = tr
	}
}

// Registerer registers the metrics of all components
func Registerer(reg prometheus.Registerer) Option {
	return func(o *wiringOptions) {
		o.registerer = reg
	}
}

// AWSConfig overrides the AWS configuration built from the annex settings
func AWSConfig(cfg *aws.Config) Option {
	return func(o *wiringOptions) {
		o.awsConfig = cfg
	}
}

// Open builds all components of the config service
func Open(s Settings, opts ...Option) (w *Wiring, err error) {
	if err = s.Validate(); err != nil {
		return nil, err
	}
	o := &wiringOptions{
		fs:         afero.NewOsFs(),
		tracer:     opentracing.NoopTracer{},
		registerer: prometheus.NewRegistry(),
	}
	for _, apply := range opts {
		apply(o)
	}
	if o.l == nil {
		if o.l, err = dlogger.GetLogger(s.LogLevel); err != nil {
			return nil, ErrInvalidSettings.Wrap(err)
		}
	}

	w = &Wiring{Settings: s, Logger: o.l}
	defer func() {
		if err != nil {
			err = multierr.Append(err, w.Close())
			w = nil
		}
	}()

	if w.Files, err = w.openRepositoryStore(o); err != nil {
		return w, err
	}
	if w.Blobs, err = w.openAnnexStore(o); err != nil {
		return w, err
	}

	repoOpts := []repo.Option{
		repo.Logger(o.l),
		repo.Contributor(s.Contributor),
	}
	if s.Repository.DescriptorCacheSize > 0 {
		repoOpts = append(repoOpts, repo.DescriptorCacheSize(s.Repository.DescriptorCacheSize))
	}
	if w.Repository, err = repo.New(w.Files, repoOpts...); err != nil {
		return w, err
	}

	w.Annex, err = annex.New(
		annex.Backend(w.Blobs),
		annex.Scheme(s.Annex.Scheme),
		annex.Compression(s.Annex.Compress),
		annex.Spool(o.fs),
		annex.Logger(o.l),
		annex.Registerer(o.registerer),
	)
	if err != nil {
		return w, err
	}

	minFileSize, _ := s.AnnexMinFileSizeBytes()
	maxFileSize, _ := s.MaxConfigFileSizeBytes()
	w.Router = router.New(w.Repository, w.Annex,
		router.AnnexSuffix(s.Annex.Suffix),
		router.AnnexMinFileSize(minFileSize),
		router.Logger(o.l),
	)
	w.Defaults = defaults.New(w.Repository)
	w.Service, err = service.New(w.Router, w.Defaults,
		service.Logger(o.l),
		service.Registerer(o.registerer),
		service.MaxConfigFileSize(maxFileSize),
	)
	if err != nil {
		return w, err
	}
	w.Locations = location.NewStoreRegistry(w.Files)

	o.l.Debug("config service wired",
		zap.Stringer("repository", w.Repository),
		zap.Stringer("annex", w.Annex),
	)
	return w, nil
}

func (w *Wiring) openRepositoryStore(o *wiringOptions) (storage.Store, error) {
	s := w.Settings.Repository
	var (
		store storage.Store
		err   error
	)
	switch s.Backend {
	case BackendBadger:
		store, err = kv.New(s.Path, kv.Logger(o.l))
	default:
		store, err = localStore(o.fs, s.Path)
	}
	if err != nil {
		return nil, err
	}
	return w.instrument(o, store), nil
}

func (w *Wiring) openAnnexStore(o *wiringOptions) (storage.Store, error) {
	s := w.Settings.Annex
	var (
		store storage.Store
		err   error
	)
	switch s.Backend {
	case BackendS3:
		cfg := o.awsConfig
		if cfg == nil {
			cfg = aws.NewConfig()
			if s.Region != "" {
				cfg = cfg.WithRegion(s.Region)
			}
			if s.Endpoint != "" {
				cfg = cfg.WithEndpoint(s.Endpoint).WithS3ForcePathStyle(true)
			}
		}
		store, err = sthree.New(sthree.Bucket(s.Bucket), sthree.AWSConfig(cfg), sthree.Prefix(s.Prefix))
	default:
		store, err = localStore(o.fs, s.Path)
	}
	if err != nil {
		return nil, err
	}
	return w.instrument(o, store), nil
}

func localStore(fs afero.Fs, pth string) (storage.Store, error) {
	root := filepath.Clean(pth)
	if err := fs.MkdirAll(root, 0700); err != nil {
		return nil, err
	}
	return localfs.NewAtomic(afero.NewBasePathFs(fs, root))
}

func (w *Wiring) instrument(o *wiringOptions, store storage.Store) storage.Store {
	instrumented := storage.Instrument(o.tracer, o.l, store)
	if c, ok := instrumented.(io.Closer); ok {
		w.closers = append(w.closers, c)
	}
	return instrumented
}

// Close releases the resources held by backing stores
func (w *Wiring) Close() error {
	var err error
	for i := len(w.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, w.closers[i].Close())
	}
	w.closers = nil
	return err
}
