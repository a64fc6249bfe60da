// Package router dispatches configuration files to the storage tier they belong to.
//
// Normal files are committed to the repository as is. Oversize files are stored in the annex,
// and the repository tracks a pointer record under the file path followed by the annex suffix.
// The tier of a file is decided at creation, and kept by all its updates.
package router

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/oneconcern/configsvc/pkg/annex"
	annexstatus "github.com/oneconcern/configsvc/pkg/annex/status"
	"github.com/oneconcern/configsvc/pkg/dlogger"
	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/repo"
	"github.com/oneconcern/configsvc/pkg/repo/status"
	"go.uber.org/zap"
)

// Router presents the repository and the annex as a single store of configuration files
type Router struct {
	repo        *repo.Repository
	annex       *annex.Annex
	suffix      string
	minFileSize int64
	l           *zap.Logger
}

// Location tells where a tracked file is stored
type Location struct {
	Path     string
	RepoPath string
	Type     model.FileType
}

// New router over a repository and an annex
func New(r *repo.Repository, ax *annex.Annex, opts ...Option) *Router {
	rt := &Router{
		repo:   r,
		annex:  ax,
		suffix: DefaultAnnexSuffix,
	}
	for _, apply := range opts {
		apply(rt)
	}
	rt.l = dlogger.Component(rt.l, "router")
	return rt
}

// AnnexSuffix used by this router
func (r *Router) AnnexSuffix() string {
	return r.suffix
}

// AnnexMinFileSize above which new files are stored in the annex. Zero means disabled.
func (r *Router) AnnexMinFileSize() int64 {
	return r.minFileSize
}

// Repository tracking files
func (r *Router) Repository() *repo.Repository {
	return r.repo
}

// Annex storing oversize files
func (r *Router) Annex() *annex.Annex {
	return r.annex
}

func (r *Router) normalize(pth string) (string, error) {
	p, err := model.NormalizePath(pth)
	if err != nil {
		return "", status.ErrInvalidInput.Wrap(err)
	}
	if strings.HasSuffix(p, r.suffix) {
		return "", status.ErrInvalidInput.Wrap(model.ErrInvalidPath.WrapMessage("path %q ends with the reserved suffix %q", p, r.suffix))
	}
	return p, nil
}

// Locate a tracked file
func (r *Router) Locate(ctx context.Context, pth string) (Location, error) {
	p, err := r.normalize(pth)
	if err != nil {
		return Location{}, err
	}
	for _, loc := range []Location{
		{Path: p, RepoPath: p, Type: model.Normal},
		{Path: p, RepoPath: p + r.suffix, Type: model.Annex},
	} {
		found, err := r.repo.Exists(ctx, loc.RepoPath)
		if err != nil {
			return Location{}, err
		}
		if found {
			return loc, nil
		}
	}
	return Location{}, status.ErrFileNotFound.WrapMessage("path %q", p)
}

// Exists tells if a file is tracked, in any tier
func (r *Router) Exists(ctx context.Context, pth string) (bool, error) {
	_, err := r.Locate(ctx, pth)
	if err != nil {
		if errors.Is(err, status.ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create a file.
//
// The file goes to the annex when flagged as oversize, or when larger than the AnnexMinFileSize setting.
// Callers must serialize concurrent writes to the same path.
func (r *Router) Create(ctx context.Context, pth string, content io.Reader, oversize bool, comment string) (model.RevisionDescriptor, error) {
	p, err := r.normalize(pth)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	_, err = r.Locate(ctx, p)
	switch {
	case err == nil:
		return model.RevisionDescriptor{}, status.ErrFileAlreadyExists.WrapMessage("path %q", p)
	case !errors.Is(err, status.ErrFileNotFound):
		return model.RevisionDescriptor{}, err
	}

	if !oversize && r.minFileSize > 0 {
		// peek at the content, up to the threshold
		peeked, err := ioutil.ReadAll(io.LimitReader(content, r.minFileSize+1))
		if err != nil {
			return model.RevisionDescriptor{}, err
		}
		oversize = int64(len(peeked)) > r.minFileSize
		content = io.MultiReader(bytes.NewReader(peeked), content)
	}

	if oversize {
		return r.commitAnnex(ctx, Location{Path: p, RepoPath: p + r.suffix, Type: model.Annex}, content, comment, repo.Create)
	}
	return r.repo.Commit(ctx, p, content, comment, repo.Create)
}

// Update a file, in the tier it was created in
func (r *Router) Update(ctx context.Context, pth string, content io.Reader, comment string) (model.RevisionDescriptor, error) {
	loc, err := r.Locate(ctx, pth)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	if loc.Type == model.Annex {
		return r.commitAnnex(ctx, loc, content, comment, repo.Update)
	}
	return r.repo.Commit(ctx, loc.RepoPath, content, comment, repo.Update)
}

func (r *Router) commitAnnex(ctx context.Context, loc Location, content io.Reader, comment string, mode repo.CommitMode) (model.RevisionDescriptor, error) {
	res, err := r.annex.Store(ctx, content)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	record, err := model.MarshalPointer(model.AnnexPointer{
		Scheme: res.Key.Scheme,
		Hash:   res.Key.Hash,
		Size:   res.Size,
	})
	if err != nil {
		return model.RevisionDescriptor{}, err
	}

	desc, err := r.repo.Commit(ctx, loc.RepoPath, bytes.NewReader(record), comment, mode)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	r.l.Debug("committed annex pointer",
		zap.String("path", loc.Path),
		zap.Stringer("key", res.Key),
		zap.Bool("deduplicated", res.Found),
	)
	return r.logical(loc, desc), nil
}

// logical renders a repository descriptor with the path known to callers
func (r *Router) logical(loc Location, desc model.RevisionDescriptor) model.RevisionDescriptor {
	desc.Path = loc.Path
	return desc
}

// Revision resolves the descriptor of a revision of a file
func (r *Router) Revision(ctx context.Context, pth string, sel repo.Selector) (model.RevisionDescriptor, error) {
	loc, err := r.Locate(ctx, pth)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	desc, err := r.repo.Revision(ctx, loc.RepoPath, sel)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	return r.logical(loc, desc), nil
}

// Read a revision of a file, resolving annex pointers
func (r *Router) Read(ctx context.Context, pth string, sel repo.Selector) (*model.ConfigData, model.RevisionDescriptor, error) {
	loc, err := r.Locate(ctx, pth)
	if err != nil {
		return nil, model.RevisionDescriptor{}, err
	}
	data, desc, err := r.repo.Read(ctx, loc.RepoPath, sel)
	if err != nil {
		return nil, model.RevisionDescriptor{}, err
	}
	content, err := r.decode(loc, data)
	if err != nil {
		return nil, model.RevisionDescriptor{}, err
	}

	switch content.Kind {
	case model.OversizeContent:
		resolved, err := r.resolve(ctx, content.Pointer)
		if err != nil {
			return nil, model.RevisionDescriptor{}, err
		}
		return resolved, r.logical(loc, desc), nil
	default:
		return content.Data, r.logical(loc, desc), nil
	}
}

func (r *Router) decode(loc Location, data *model.ConfigData) (model.FileContent, error) {
	if loc.Type == model.Normal {
		return model.NormalFileContent(data), nil
	}
	b, err := data.Bytes()
	if err != nil {
		return model.FileContent{}, err
	}
	pointer, err := model.UnmarshalPointer(b)
	if err != nil {
		return model.FileContent{}, status.ErrInconsistentRepository.Wrap(err)
	}
	if !annex.KnownScheme(pointer.Scheme) {
		return model.FileContent{}, status.ErrInconsistentRepository.Wrap(model.ErrInvalidPointer.WrapMessage("unknown scheme %q", pointer.Scheme))
	}
	return model.OversizeFileContent(pointer), nil
}

// resolve an annex pointer. The blob is opened lazily, but its presence is checked right away.
func (r *Router) resolve(ctx context.Context, pointer model.AnnexPointer) (*model.ConfigData, error) {
	key, err := annex.NewKey(pointer.Scheme, pointer.Hash)
	if err != nil {
		return nil, status.ErrInconsistentRepository.Wrap(err)
	}
	found, err := r.annex.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, annexstatus.ErrNotFound.WrapWithLog(r.l, model.ErrInvalidPointer.WrapMessage("dangling pointer to %v", key))
	}
	openCtx := context.WithoutCancel(ctx)
	return model.NewConfigDataFrom(pointer.Size, func() (io.ReadCloser, error) {
		return r.annex.Fetch(openCtx, key)
	}), nil
}

// Log returns the history of a file, newest first
func (r *Router) Log(ctx context.Context, pth string, q repo.LogQuery) ([]model.RevisionDescriptor, error) {
	loc, err := r.Locate(ctx, pth)
	if err != nil {
		return nil, err
	}
	descriptors, err := r.repo.Log(ctx, loc.RepoPath, q)
	if err != nil {
		return nil, err
	}
	for i := range descriptors {
		descriptors[i] = r.logical(loc, descriptors[i])
	}
	return descriptors, nil
}

// Head record of a tracked file
func (r *Router) Head(ctx context.Context, pth string) (model.HeadDescriptor, error) {
	loc, err := r.Locate(ctx, pth)
	if err != nil {
		return model.HeadDescriptor{}, err
	}
	head, err := r.repo.Head(ctx, loc.RepoPath)
	if err != nil {
		return model.HeadDescriptor{}, err
	}
	head.Path = loc.Path
	return head, nil
}

// Delete a file. Annex blobs are kept.
func (r *Router) Delete(ctx context.Context, pth string, comment string) error {
	loc, err := r.Locate(ctx, pth)
	if err != nil {
		return err
	}
	return r.repo.Delete(ctx, loc.RepoPath, comment)
}

// List all tracked files, sorted by path
func (r *Router) List(ctx context.Context) ([]model.ConfigFileInfo, error) {
	summaries, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]model.ConfigFileInfo, 0, len(summaries))
	for _, s := range summaries {
		info := model.ConfigFileInfo{
			Path:    s.Head.Path,
			ID:      s.Latest.ID,
			Comment: s.Latest.Comment,
			Type:    model.Normal,
		}
		if strings.HasSuffix(info.Path, r.suffix) {
			info.Path = strings.TrimSuffix(info.Path, r.suffix)
			info.Type = model.Annex
		}
		infos = append(infos, info)
	}
	// suffixed repository paths do not sort like logical paths
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Path < infos[j].Path
	})
	return infos, nil
}
