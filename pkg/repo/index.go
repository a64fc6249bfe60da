package repo

import (
	"context"
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const indexLoadConcurrency = 8

// headIndex is the in-memory view of the live paths of a namespace, sorted by path.
//
// The index is loaded from the backing store on first use, then maintained by commits.
type headIndex struct {
	mx   sync.RWMutex
	tree *iradix.Tree
}

func (r *Repository) headIndex() *headIndex {
	r.shared.indexesMx.Lock()
	defer r.shared.indexesMx.Unlock()
	idx, ok := r.shared.indexes[r.ns]
	if !ok {
		idx = &headIndex{}
		r.shared.indexes[r.ns] = idx
	}
	return idx
}

// index returns a snapshot of the head index
func (r *Repository) index(ctx context.Context) (*iradix.Tree, error) {
	idx := r.headIndex()
	idx.mx.RLock()
	tree := idx.tree
	idx.mx.RUnlock()
	if tree != nil {
		return tree, nil
	}

	idx.mx.Lock()
	defer idx.mx.Unlock()
	if idx.tree != nil {
		return idx.tree, nil
	}
	tree, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	idx.tree = tree
	return tree, nil
}

func (r *Repository) loadIndex(ctx context.Context) (*iradix.Tree, error) {
	keys, err := storage.ListPrefix(ctx, r.store, model.GetArchivePathPrefixToHeads(r.ns))
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.FileSummary, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexLoadConcurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			apc, err := model.GetArchivePathComponents(key)
			if err != nil {
				r.l.Warn("skipping unexpected key in heads", zap.String("key", key), zap.Error(err))
				return nil
			}
			head, err := r.readHead(gctx, apc.Path)
			if err != nil {
				return err
			}
			if !head.Live() {
				return nil
			}
			latest, err := r.latestOf(gctx, head)
			if err != nil {
				return err
			}
			summaries[i] = &model.FileSummary{Head: head, Latest: latest}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	txn := iradix.New().Txn()
	for _, summary := range summaries {
		if summary == nil {
			continue
		}
		txn.Insert([]byte(summary.Head.Path), *summary)
	}
	tree := txn.Commit()
	r.l.Debug("loaded head index", zap.String("namespace", r.ns), zap.Int("paths", tree.Len()))
	return tree, nil
}

func (r *Repository) indexPut(summary model.FileSummary) {
	idx := r.headIndex()
	idx.mx.Lock()
	defer idx.mx.Unlock()
	if idx.tree == nil {
		return
	}
	idx.tree, _, _ = idx.tree.Insert([]byte(summary.Head.Path), summary)
}

func (r *Repository) indexDelete(pth string) {
	idx := r.headIndex()
	idx.mx.Lock()
	defer idx.mx.Unlock()
	if idx.tree == nil {
		return
	}
	idx.tree, _, _ = idx.tree.Delete([]byte(pth))
}

// summary looks up a live path
func (r *Repository) summary(ctx context.Context, pth string) (model.FileSummary, bool, error) {
	tree, err := r.index(ctx)
	if err != nil {
		return model.FileSummary{}, false, err
	}
	v, ok := tree.Get([]byte(pth))
	if !ok {
		return model.FileSummary{}, false, nil
	}
	return v.(model.FileSummary), true, nil
}

func walkSummaries(tree *iradix.Tree, prefix string) []model.FileSummary {
	res := make([]model.FileSummary, 0, tree.Len())
	tree.Root().WalkPrefix([]byte(prefix), func(_ []byte, v interface{}) bool {
		res = append(res, v.(model.FileSummary))
		return false
	})
	return res
}
