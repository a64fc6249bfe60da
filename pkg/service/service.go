// Package service exposes the config service: a versioned store of configuration files.
//
// The service routes files to the repository or to the annex, resolves default revisions,
// and serializes mutations on the same path. Mutations on different paths proceed in parallel,
// up to the commit serialization of the repository.
//
// Absent files are reported as nil results by the getters. Errors are either business errors,
// which callers may branch on, or system errors (see the status package).
package service

import (
	"context"
	"io"
	"regexp"
	"time"

	"github.com/oneconcern/configsvc/pkg/defaults"
	"github.com/oneconcern/configsvc/pkg/dlogger"
	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/repo"
	"github.com/oneconcern/configsvc/pkg/router"
	"github.com/oneconcern/configsvc/pkg/service/status"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service to create, update and retrieve configuration files
type Service struct {
	router      *router.Router
	defaults    *defaults.Store
	locks       *pathLocks
	metrics     *serviceMetrics
	registerer  prometheus.Registerer
	maxFileSize int64
	l           *zap.Logger
}

// ListFilter selects files in a listing. Zero values select all files.
type ListFilter struct {
	Type    model.FileType
	Pattern string
}

// New config service, on top of a router and a default pointer store
func New(r *router.Router, d *defaults.Store, opts ...Option) (*Service, error) {
	s := &Service{
		router:     r,
		defaults:   d,
		locks:      newPathLocks(),
		registerer: prometheus.NewRegistry(),
	}
	for _, apply := range opts {
		apply(s)
	}
	s.l = dlogger.Component(s.l, "service")

	m, err := newMetrics(s.registerer)
	if err != nil {
		return nil, err
	}
	s.metrics = m
	return s, nil
}

// Create a file. Oversize files are stored in the annex.
func (s *Service) Create(ctx context.Context, pth string, data io.Reader, oversize bool, comment string) (model.RevisionID, error) {
	const op = "create"
	p, release, err := s.lock(ctx, pth)
	if err != nil {
		return "", s.done(op, pth, "", comment, err)
	}
	defer release()

	limited := s.limit(data)
	desc, err := s.router.Create(ctx, p, limited, oversize, comment)
	return desc.ID, s.done(op, p, desc.ID, comment, limited.check(err))
}

// Update a tracked file
func (s *Service) Update(ctx context.Context, pth string, data io.Reader, comment string) (model.RevisionID, error) {
	const op = "update"
	p, release, err := s.lock(ctx, pth)
	if err != nil {
		return "", s.done(op, pth, "", comment, err)
	}
	defer release()

	limited := s.limit(data)
	desc, err := s.router.Update(ctx, p, limited, comment)
	return desc.ID, s.done(op, p, desc.ID, comment, limited.check(err))
}

// Delete a tracked file. A later create of the same path starts a new history.
func (s *Service) Delete(ctx context.Context, pth string, comment string) error {
	const op = "delete"
	p, release, err := s.lock(ctx, pth)
	if err != nil {
		return s.done(op, pth, "", comment, err)
	}
	defer release()

	return s.done(op, p, "", comment, s.router.Delete(ctx, p, comment))
}

// GetLatest returns the latest revision of a file, or nil if the file is not tracked
func (s *Service) GetLatest(ctx context.Context, pth string) (*model.ConfigData, error) {
	return s.getOptional(ctx, "get", pth, repo.Latest())
}

// GetByTime returns the revision of a file active at some time,
// or nil if the file is not tracked or was created later.
func (s *Service) GetByTime(ctx context.Context, pth string, t time.Time) (*model.ConfigData, error) {
	return s.getOptional(ctx, "getByTime", pth, repo.AtTime(t))
}

// GetByID returns a given revision of a file
func (s *Service) GetByID(ctx context.Context, pth string, id model.RevisionID) (*model.ConfigData, error) {
	data, _, err := s.router.Read(ctx, pth, repo.ByID(id))
	if err = s.observe("getByID", err); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Service) getOptional(ctx context.Context, op, pth string, sel repo.Selector) (*model.ConfigData, error) {
	data, err := s.read(ctx, pth, sel)
	if err = s.observe(op, err); err != nil {
		return nil, err
	}
	return data, nil
}

// read a revision, reporting an untracked path as a nil result
func (s *Service) read(ctx context.Context, pth string, sel repo.Selector) (*model.ConfigData, error) {
	data, _, err := s.router.Read(ctx, pth, sel)
	if errors.Is(err, status.ErrFileNotFound) {
		return nil, nil
	}
	return data, err
}

// Exists tells if a file is tracked
func (s *Service) Exists(ctx context.Context, pth string) (bool, error) {
	found, err := s.router.Exists(ctx, pth)
	return found, s.observe("exists", err)
}

// History of a file, newest first. A positive maxEntries truncates the history.
func (s *Service) History(ctx context.Context, pth string, maxEntries int) ([]model.ConfigFileRevision, error) {
	return s.HistoryRange(ctx, pth, time.Time{}, time.Time{}, maxEntries)
}

// HistoryRange returns the revisions of a file committed between two times, newest first.
// Zero times leave the range open.
func (s *Service) HistoryRange(ctx context.Context, pth string, from, to time.Time, maxEntries int) ([]model.ConfigFileRevision, error) {
	descriptors, err := s.router.Log(ctx, pth, repo.LogQuery{From: from, To: to, Max: maxEntries})
	if err = s.observe("history", err); err != nil {
		return nil, err
	}
	entries := make([]model.ConfigFileRevision, 0, len(descriptors))
	for _, desc := range descriptors {
		entries = append(entries, desc.HistoryEntry())
	}
	return entries, nil
}

// List tracked files, sorted by path
func (s *Service) List(ctx context.Context, filter ListFilter) ([]model.ConfigFileInfo, error) {
	const op = "list"
	var pattern *regexp.Regexp
	if filter.Pattern != "" {
		re, err := regexp.Compile(filter.Pattern)
		if err != nil {
			return nil, s.observe(op, status.ErrInvalidInput.WrapMessage("pattern %q: %v", filter.Pattern, err))
		}
		pattern = re
	}
	if filter.Type != "" {
		if _, err := model.ParseFileType(string(filter.Type)); err != nil {
			return nil, s.observe(op, status.ErrInvalidInput.Wrap(err))
		}
	}

	infos, err := s.router.List(ctx)
	if err = s.observe(op, err); err != nil {
		return nil, err
	}
	selected := infos[:0]
	for _, info := range infos {
		if filter.Type != "" && info.Type != filter.Type {
			continue
		}
		if pattern != nil && !pattern.MatchString(info.Path) {
			continue
		}
		selected = append(selected, info)
	}
	return selected, nil
}

// GetDefault returns the default revision of a file: the pinned revision if any, the latest otherwise.
//
// It returns nil if the file is not tracked.
func (s *Service) GetDefault(ctx context.Context, pth string) (*model.ConfigData, error) {
	data, err := s.getDefault(ctx, pth)
	if err = s.observe("getDefault", err); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Service) getDefault(ctx context.Context, pth string) (*model.ConfigData, error) {
	head, err := s.router.Head(ctx, pth)
	if err != nil {
		if errors.Is(err, status.ErrFileNotFound) {
			return nil, nil
		}
		return nil, err
	}
	pinned, found, err := s.defaults.Get(ctx, head.Path, head.Generation)
	if err != nil {
		return nil, err
	}
	if !found {
		return s.read(ctx, head.Path, repo.Latest())
	}
	return s.read(ctx, head.Path, repo.ByID(pinned))
}

// SetDefault pins a revision of a tracked file as its default. An empty revision clears the pin.
func (s *Service) SetDefault(ctx context.Context, pth string, id model.RevisionID, comment string) error {
	const op = "setDefault"
	p, release, err := s.lock(ctx, pth)
	if err != nil {
		return s.done(op, pth, id, comment, err)
	}
	defer release()

	return s.done(op, p, id, comment, s.setDefault(ctx, p, id, comment))
}

// ResetDefault clears the default revision of a file: the latest revision becomes the default again
func (s *Service) ResetDefault(ctx context.Context, pth string, comment string) error {
	return s.SetDefault(ctx, pth, "", comment)
}

func (s *Service) setDefault(ctx context.Context, p string, id model.RevisionID, comment string) error {
	head, err := s.router.Head(ctx, p)
	if err != nil {
		return err
	}
	record := model.DefaultRecord{Generation: head.Generation}
	if !id.IsZero() {
		if _, err = model.ParseRevisionID(id.String()); err != nil {
			return status.ErrInvalidInput.Wrap(err)
		}
		if _, err = s.router.Revision(ctx, p, repo.ByID(id)); err != nil {
			if errors.Is(err, status.ErrFileNotFound) {
				return status.ErrInvalidInput.WrapMessage("no revision %v for path %q", id, p)
			}
			return err
		}
		record.Revision = id
	}
	_, err = s.defaults.Set(ctx, p, record, comment)
	return err
}

// DefaultHistory returns the changes of the default revision of a tracked file, newest first
func (s *Service) DefaultHistory(ctx context.Context, pth string, maxEntries int) ([]defaults.Change, error) {
	changes, err := s.defaultHistory(ctx, pth, maxEntries)
	if err = s.observe("defaultHistory", err); err != nil {
		return nil, err
	}
	return changes, nil
}

func (s *Service) defaultHistory(ctx context.Context, pth string, maxEntries int) ([]defaults.Change, error) {
	head, err := s.router.Head(ctx, pth)
	if err != nil {
		return nil, err
	}
	changes, err := s.defaults.History(ctx, head.Path, repo.LogQuery{})
	if err != nil {
		if errors.Is(err, status.ErrFileNotFound) {
			return []defaults.Change{}, nil
		}
		return nil, err
	}
	// changes made to a previous generation of the path are not part of its current history
	current := make([]defaults.Change, 0, len(changes))
	for _, change := range changes {
		if change.Default.Generation != head.Generation {
			break
		}
		current = append(current, change)
		if maxEntries > 0 && len(current) == maxEntries {
			break
		}
	}
	return current, nil
}

// Metadata describes the stores behind the service
func (s *Service) Metadata(_ context.Context) model.ConfigMetadata {
	return model.ConfigMetadata{
		RepositoryPath:    s.router.Repository().String(),
		AnnexPath:         s.router.Annex().String(),
		AnnexMinFileSize:  s.router.AnnexMinFileSize(),
		MaxConfigFileSize: s.maxFileSize,
	}
}

// lock a path for a mutation
func (s *Service) lock(ctx context.Context, pth string) (string, func(), error) {
	p, err := model.NormalizePath(pth)
	if err != nil {
		return "", nil, status.ErrInvalidInput.Wrap(err)
	}
	release, err := s.locks.acquire(ctx, p)
	if err != nil {
		return "", nil, err
	}
	return p, release, nil
}

// observe classifies the outcome of a read operation
func (s *Service) observe(op string, err error) error {
	err = status.Classify(err)
	s.metrics.observe(op, err)
	if err != nil && !status.IsBusiness(err) && !status.IsCancelled(err) {
		s.l.Error("operation failed", zap.String("op", op), zap.Error(err))
	}
	return err
}

// done classifies the outcome of a mutation and emits the corresponding event
func (s *Service) done(op, p string, id model.RevisionID, comment string, err error) error {
	err = status.Classify(err)
	s.metrics.observe(op, err)

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("path", p),
		zap.String("revision", id.String()),
		zap.String("comment", comment),
	}
	var lvl zapcore.Level
	msg := "configuration changed"
	switch {
	case err == nil:
		lvl = zapcore.InfoLevel
	case status.IsBusiness(err), status.IsCancelled(err):
		lvl, msg = zapcore.DebugLevel, "configuration change rejected"
		fields = append(fields, zap.Error(err))
	default:
		lvl, msg = zapcore.ErrorLevel, "configuration change failed"
		fields = append(fields, zap.Error(err))
	}
	if ce := s.l.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
	return err
}

// sizeLimiter fails reads past the maximum file size
type sizeLimiter struct {
	r        io.Reader
	max      int64
	read     int64
	exceeded bool
}

func (s *Service) limit(r io.Reader) *sizeLimiter {
	return &sizeLimiter{r: r, max: s.maxFileSize}
}

func (l *sizeLimiter) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.max > 0 && l.read > l.max {
		l.exceeded = true
		return n, status.ErrInvalidInput.WrapMessage("file exceeds the maximum size of %d bytes", l.max)
	}
	return n, err
}

// check reports an oversized file, whatever the error the store made of it
func (l *sizeLimiter) check(err error) error {
	if err != nil && l.exceeded {
		return status.ErrInvalidInput.WrapMessage("file exceeds the maximum size of %d bytes", l.max)
	}
	return err
}
