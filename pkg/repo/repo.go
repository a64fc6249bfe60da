// Package repo implements a revision-controlled repository of configuration files on top of a storage.Store.
//
// Every commit produces an immutable revision. Commits are serialized by a single process-wide latch,
// shared by all namespaces of the repository.
package repo

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/oneconcern/configsvc/pkg/dlogger"
	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/repo/status"
	"github.com/oneconcern/configsvc/pkg/storage"
	storagestatus "github.com/oneconcern/configsvc/pkg/storage/status"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// DefaultDescriptorCacheSize is the default number of revision descriptors kept in memory
const DefaultDescriptorCacheSize = 4096

// Repository tracks the revisions of configuration files
type Repository struct {
	store       storage.Store
	ns          string
	now         func() time.Time
	contributor model.Contributor
	cacheSize   int
	l           *zap.Logger

	shared *shared
}

// shared state between all namespaced views of a repository
type shared struct {
	commitLatch sync.Mutex
	descriptors *lru.Cache

	indexesMx sync.Mutex
	indexes   map[string]*headIndex
}

// New repository on a backing store
func New(store storage.Store, opts ...Option) (*Repository, error) {
	r := &Repository{
		store:     store,
		ns:        model.NamespaceFiles,
		now:       time.Now,
		cacheSize: DefaultDescriptorCacheSize,
	}
	for _, apply := range opts {
		apply(r)
	}
	r.l = dlogger.Component(r.l, "repo")

	cache, err := lru.New(r.cacheSize)
	if err != nil {
		return nil, err
	}
	r.shared = &shared{
		descriptors: cache,
		indexes:     make(map[string]*headIndex),
	}
	return r, nil
}

// WithNamespace yields a view of the repository tracking paths in another namespace.
//
// Commits on all views are serialized together.
func (r *Repository) WithNamespace(ns string) *Repository {
	view := *r
	view.ns = ns
	return &view
}

// Namespace of the paths tracked by this view
func (r *Repository) Namespace() string {
	return r.ns
}

// String describes the repository
func (r *Repository) String() string {
	return r.store.String()
}

func normalize(pth string) (string, error) {
	p, err := model.NormalizePath(pth)
	if err != nil {
		return "", status.ErrInvalidInput.Wrap(err)
	}
	return p, nil
}

type countingReader struct {
	io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.Reader.Read(p)
	c.n += int64(n)
	return n, err
}

// Commit adds a revision to a path.
//
// In Create mode, the path must be untracked (never created, or deleted). In Update mode, it must be tracked.
//
// The content is uploaded first, and is not referenced until the revision is committed.
// Once the commit latch is acquired, the commit is no longer interrupted by the cancellation of ctx:
// it either lands completely or leaves no observable change.
func (r *Repository) Commit(ctx context.Context, pth string, content io.Reader, comment string, mode CommitMode) (model.RevisionDescriptor, error) {
	p, err := normalize(pth)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	if _, err = r.checkMode(ctx, p, mode); err != nil {
		return model.RevisionDescriptor{}, err
	}
	id, err := model.NewRevisionID()
	if err != nil {
		return model.RevisionDescriptor{}, err
	}

	counter := &countingReader{Reader: content}
	if err = r.store.Put(ctx, model.GetArchivePathToContent(r.ns, p, id), counter, storage.NoOverWrite); err != nil {
		return model.RevisionDescriptor{}, err
	}

	r.shared.commitLatch.Lock()
	defer r.shared.commitLatch.Unlock()

	if err = ctx.Err(); err != nil {
		return model.RevisionDescriptor{}, err
	}
	ctx = context.WithoutCancel(ctx)

	current, err := r.checkMode(ctx, p, mode)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}

	desc := model.RevisionDescriptor{
		ID:          id,
		Path:        p,
		Comment:     comment,
		Size:        counter.n,
		Contributor: r.contributor,
	}
	ts := r.now().UTC()
	switch mode {
	case Create:
		desc.Generation = id
		desc.Sequence = 1
	default:
		previous := current.Latest
		desc.Generation = previous.Generation
		desc.Sequence = previous.Sequence + 1
		if !ts.After(previous.Timestamp) {
			ts = previous.Timestamp.Add(time.Nanosecond)
		}
	}
	desc.Timestamp = ts

	// commit point for updates
	if err = r.writeDescriptor(ctx, desc); err != nil {
		return model.RevisionDescriptor{}, err
	}

	head := current.Head
	if mode == Create {
		// commit point for creates
		head = model.HeadDescriptor{Path: p, Generation: id, Created: ts}
		if err = r.writeHead(ctx, head); err != nil {
			return model.RevisionDescriptor{}, err
		}
	}
	r.indexPut(model.FileSummary{Head: head, Latest: desc})

	r.l.Debug("committed revision",
		zap.String("namespace", r.ns),
		zap.String("path", p),
		zap.Stringer("revision", desc.ID),
		zap.Uint64("sequence", desc.Sequence),
		zap.Stringer("mode", mode),
	)
	return desc, nil
}

// checkMode verifies that the commit mode fits the current state of the path.
//
// It runs once before uploading content, to fail early, then again under the commit latch.
func (r *Repository) checkMode(ctx context.Context, p string, mode CommitMode) (model.FileSummary, error) {
	current, found, err := r.summary(ctx, p)
	if err != nil {
		return model.FileSummary{}, err
	}
	switch {
	case mode == Create && found:
		return model.FileSummary{}, status.ErrFileAlreadyExists.WrapMessage("path %q", p)
	case mode == Update && !found:
		return model.FileSummary{}, status.ErrFileNotFound.WrapMessage("path %q", p)
	default:
		return current, nil
	}
}

// Delete stops tracking a path.
//
// Revisions are kept on the backing store, but they are no longer reachable:
// a later create starts a new history.
func (r *Repository) Delete(ctx context.Context, pth string, comment string) error {
	p, err := normalize(pth)
	if err != nil {
		return err
	}

	r.shared.commitLatch.Lock()
	defer r.shared.commitLatch.Unlock()

	if err = ctx.Err(); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	current, found, err := r.summary(ctx, p)
	if err != nil {
		return err
	}
	if !found {
		return status.ErrFileNotFound.WrapMessage("path %q", p)
	}

	head := current.Head
	head.Deleted = true
	head.DeletedAt = r.now().UTC()
	head.DeleteComment = comment
	if err = r.writeHead(ctx, head); err != nil {
		return err
	}
	r.indexDelete(p)

	r.l.Debug("deleted path",
		zap.String("namespace", r.ns),
		zap.String("path", p),
		zap.Stringer("generation", head.Generation),
	)
	return nil
}

// Exists tells if a path is tracked
func (r *Repository) Exists(ctx context.Context, pth string) (bool, error) {
	p, err := normalize(pth)
	if err != nil {
		return false, err
	}
	_, found, err := r.summary(ctx, p)
	return found, err
}

// Head returns the head record of a tracked path
func (r *Repository) Head(ctx context.Context, pth string) (model.HeadDescriptor, error) {
	s, err := r.lookup(ctx, pth)
	if err != nil {
		return model.HeadDescriptor{}, err
	}
	return s.Head, nil
}

func (r *Repository) lookup(ctx context.Context, pth string) (model.FileSummary, error) {
	p, err := normalize(pth)
	if err != nil {
		return model.FileSummary{}, err
	}
	s, found, err := r.summary(ctx, p)
	if err != nil {
		return model.FileSummary{}, err
	}
	if !found {
		return model.FileSummary{}, status.ErrFileNotFound.WrapMessage("path %q", p)
	}
	return s, nil
}

// Revision resolves the descriptor of a revision of a tracked path
func (r *Repository) Revision(ctx context.Context, pth string, sel Selector) (model.RevisionDescriptor, error) {
	s, err := r.lookup(ctx, pth)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}

	switch sel.kind {
	case byID:
		if s.Latest.ID == sel.id {
			return s.Latest, nil
		}
		keys, err := r.revisionKeys(ctx, s.Head)
		if err != nil {
			return model.RevisionDescriptor{}, err
		}
		suffix := "-" + sel.id.String() + ".yaml"
		for _, key := range keys {
			if strings.HasSuffix(key, suffix) {
				return r.readDescriptor(ctx, key)
			}
		}
		return model.RevisionDescriptor{}, status.ErrFileNotFound.WrapMessage("no revision %v for path %q", sel.id, s.Head.Path)

	case atTime:
		if !sel.at.Before(s.Latest.Timestamp) {
			return s.Latest, nil
		}
		descriptors, err := r.descriptors(ctx, s.Head)
		if err != nil {
			return model.RevisionDescriptor{}, err
		}
		// first revision committed after the requested instant
		idx := sort.Search(len(descriptors), func(i int) bool {
			return descriptors[i].Timestamp.After(sel.at)
		})
		if idx == 0 {
			return model.RevisionDescriptor{}, status.ErrFileNotFound.WrapMessage("path %q has no revision at %v", s.Head.Path, sel.at)
		}
		return descriptors[idx-1], nil

	default:
		return s.Latest, nil
	}
}

// Read the content of a revision of a tracked path.
//
// Content is fetched from the backing store when the returned data is opened.
func (r *Repository) Read(ctx context.Context, pth string, sel Selector) (*model.ConfigData, model.RevisionDescriptor, error) {
	desc, err := r.Revision(ctx, pth, sel)
	if err != nil {
		return nil, model.RevisionDescriptor{}, err
	}
	key := model.GetArchivePathToContent(r.ns, desc.Path, desc.ID)
	openCtx := context.WithoutCancel(ctx)
	data := model.NewConfigDataFrom(desc.Size, func() (io.ReadCloser, error) {
		rdr, err := r.store.Get(openCtx, key)
		if err != nil && errors.Is(err, storagestatus.ErrNotExists) {
			return nil, status.ErrInconsistentRepository.WrapMessage("missing content for revision %v of %q", desc.ID, desc.Path)
		}
		return rdr, err
	})
	return data, desc, nil
}

// Log returns the history of a tracked path, newest first
func (r *Repository) Log(ctx context.Context, pth string, q LogQuery) ([]model.RevisionDescriptor, error) {
	s, err := r.lookup(ctx, pth)
	if err != nil {
		return nil, err
	}
	keys, err := r.revisionKeys(ctx, s.Head)
	if err != nil {
		return nil, err
	}

	res := make([]model.RevisionDescriptor, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if q.Max > 0 && len(res) == q.Max {
			break
		}
		desc, err := r.readDescriptor(ctx, keys[i])
		if err != nil {
			return nil, err
		}
		if !q.To.IsZero() && desc.Timestamp.After(q.To) {
			continue
		}
		if !q.From.IsZero() && desc.Timestamp.Before(q.From) {
			// history is sorted by time: no older revision may be in range
			break
		}
		res = append(res, desc)
	}
	return res, nil
}

// List all tracked paths with their latest revision, sorted by path
func (r *Repository) List(ctx context.Context) ([]model.FileSummary, error) {
	return r.ListPrefix(ctx, "")
}

// ListPrefix lists all tracked paths starting with some prefix, sorted by path
func (r *Repository) ListPrefix(ctx context.Context, prefix string) ([]model.FileSummary, error) {
	tree, err := r.index(ctx)
	if err != nil {
		return nil, err
	}
	return walkSummaries(tree, strings.TrimLeft(prefix, "/")), nil
}

// revisionKeys lists the descriptor keys of the current generation of a path, oldest first
func (r *Repository) revisionKeys(ctx context.Context, head model.HeadDescriptor) ([]string, error) {
	keys, err := storage.ListPrefix(ctx, r.store, model.GetArchivePathPrefixToRevisions(r.ns, head.Path, head.Generation))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// descriptors of the current generation of a path, oldest first
func (r *Repository) descriptors(ctx context.Context, head model.HeadDescriptor) ([]model.RevisionDescriptor, error) {
	keys, err := r.revisionKeys(ctx, head)
	if err != nil {
		return nil, err
	}
	res := make([]model.RevisionDescriptor, 0, len(keys))
	for _, key := range keys {
		desc, err := r.readDescriptor(ctx, key)
		if err != nil {
			return nil, err
		}
		res = append(res, desc)
	}
	return res, nil
}

func (r *Repository) latestOf(ctx context.Context, head model.HeadDescriptor) (model.RevisionDescriptor, error) {
	keys, err := r.revisionKeys(ctx, head)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	if len(keys) == 0 {
		return model.RevisionDescriptor{}, status.ErrInconsistentRepository.WrapMessage("no revision for generation %v of %q", head.Generation, head.Path)
	}
	return r.readDescriptor(ctx, keys[len(keys)-1])
}

func (r *Repository) readDescriptor(ctx context.Context, key string) (model.RevisionDescriptor, error) {
	if v, ok := r.shared.descriptors.Get(key); ok {
		return v.(model.RevisionDescriptor), nil
	}
	b, err := storage.ReadAll(ctx, r.store, key)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	var desc model.RevisionDescriptor
	if err = yaml.Unmarshal(b, &desc); err != nil {
		return model.RevisionDescriptor{}, status.ErrInconsistentRepository.WrapMessage("revision descriptor %s: %v", key, err)
	}
	r.shared.descriptors.Add(key, desc)
	return desc, nil
}

func (r *Repository) writeDescriptor(ctx context.Context, desc model.RevisionDescriptor) error {
	b, err := yaml.Marshal(desc)
	if err != nil {
		return err
	}
	key := model.GetArchivePathToRevision(r.ns, desc.Path, desc.Generation, desc.Sequence, desc.ID)
	if err = r.store.Put(ctx, key, bytes.NewReader(b), storage.NoOverWrite); err != nil {
		return err
	}
	r.shared.descriptors.Add(key, desc)
	return nil
}

func (r *Repository) readHead(ctx context.Context, p string) (model.HeadDescriptor, error) {
	key := model.GetArchivePathToHead(r.ns, p)
	b, err := storage.ReadAll(ctx, r.store, key)
	if err != nil {
		return model.HeadDescriptor{}, err
	}
	var head model.HeadDescriptor
	if err = yaml.Unmarshal(b, &head); err != nil {
		return model.HeadDescriptor{}, status.ErrInconsistentRepository.WrapMessage("head descriptor %s: %v", key, err)
	}
	if head.Path != p {
		return model.HeadDescriptor{}, status.ErrInconsistentRepository.WrapMessage("head descriptor %s is for path %q", key, head.Path)
	}
	return head, nil
}

func (r *Repository) writeHead(ctx context.Context, head model.HeadDescriptor) error {
	b, err := yaml.Marshal(head)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, model.GetArchivePathToHead(r.ns, head.Path), bytes.NewReader(b), storage.OverWrite)
}
