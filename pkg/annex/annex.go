package annex

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru"
	"github.com/klauspost/compress/zstd"
	"github.com/oneconcern/configsvc/pkg/annex/status"
	"github.com/oneconcern/configsvc/pkg/dlogger"
	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/oneconcern/configsvc/pkg/storage/localfs"
	storagestatus "github.com/oneconcern/configsvc/pkg/storage/status"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultKeysCacheSize is the default number of keys known to be present in the backend.
	DefaultKeysCacheSize = 10000

	spoolPrefix = "annex-spool-"
)

// PutRes holds the result from a Store operation
type PutRes struct {
	Key   Key   // the content hash of the stored object
	Size  int64 // size of the original content
	Found bool  // the blob was already present: nothing was written
}

// Annex is a content-addressed blob store
type Annex struct {
	backend       storage.Store
	scheme        string
	compress      bool
	verifyHash    bool
	keysCacheSize int
	spool         afero.Fs
	l             *zap.Logger
	registerer    prometheus.Registerer

	keys    *lru.Cache
	metrics *annexMetrics
}

func defaultsForAnnex() *Annex {
	return &Annex{
		scheme:        SchemeBlake2b,
		keysCacheSize: DefaultKeysCacheSize,
		spool:         afero.NewOsFs(),
		verifyHash:    true,
	}
}

// New builds an annex.
//
// Unless specified otherwise with the Backend option, blobs are stored on the local file system.
func New(opts ...Option) (*Annex, error) {
	a := defaultsForAnnex()
	for _, apply := range opts {
		apply(a)
	}
	if !KnownScheme(a.scheme) {
		return nil, status.ErrInvalidKey.WrapMessage("unknown hashing scheme %q", a.scheme)
	}
	if a.backend == nil {
		a.backend = localfs.New(nil)
	}
	a.l = dlogger.Component(a.l, "annex")

	var err error
	a.keys, err = lru.New(a.keysCacheSize)
	if err != nil {
		return nil, err
	}
	a.metrics, err = newMetrics(a.registerer)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Store a blob.
//
// Storing the same content twice returns the same key, and the second call performs no write.
func (a *Annex) Store(ctx context.Context, r io.Reader) (res PutRes, err error) {
	spooled, err := afero.TempFile(a.spool, "", spoolPrefix)
	if err != nil {
		return PutRes{}, status.ErrStore.Wrap(err)
	}
	defer func() {
		err = multierr.Combine(err, spooled.Close(), a.spool.Remove(spooled.Name()))
	}()

	hasher := schemes[a.scheme].new()
	size, err := io.Copy(io.MultiWriter(spooled, hasher), r)
	if err != nil {
		return PutRes{}, status.ErrStore.Wrap(err)
	}
	key := Key{Scheme: a.scheme, Hash: hex.EncodeToString(hasher.Sum(nil))}
	res = PutRes{Key: key, Size: size}

	found, err := a.Has(ctx, key)
	if err != nil {
		return PutRes{}, err
	}
	if found {
		a.deduplicated(key)
		res.Found = true
		return res, nil
	}

	if _, err = spooled.Seek(0, io.SeekStart); err != nil {
		return PutRes{}, status.ErrStore.Wrap(err)
	}
	if err = a.put(ctx, key, spooled); err != nil {
		if errors.Is(err, storagestatus.ErrExists) {
			// a concurrent writer stored the same content
			a.deduplicated(key)
			res.Found = true
			return res, nil
		}
		return PutRes{}, status.ErrStore.WrapWithLog(a.l, err, zap.Stringer("key", key))
	}

	a.keys.Add(key, struct{}{})
	a.metrics.written.Inc()
	a.metrics.bytesWritten.Add(float64(size))
	a.l.Debug("stored blob", zap.Stringer("key", key), zap.Int64("size", size))
	return res, nil
}

func (a *Annex) deduplicated(key Key) {
	a.keys.Add(key, struct{}{})
	a.metrics.deduplicated.Inc()
	a.l.Debug("blob already stored", zap.Stringer("key", key))
}

func (a *Annex) put(ctx context.Context, key Key, content io.Reader) error {
	if !a.compress {
		return a.backend.Put(ctx, key.storageKey(), content, storage.NoOverWrite)
	}

	pr, pw := io.Pipe()
	go func() {
		enc, err := zstd.NewWriter(pw)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_, err = io.Copy(enc, content)
		_ = pw.CloseWithError(multierr.Append(err, enc.Close()))
	}()
	err := a.backend.Put(ctx, key.storageKey(), pr, storage.NoOverWrite)
	_ = pr.CloseWithError(fmt.Errorf("blob upload terminated"))
	return err
}

// Has tells if a blob is present
func (a *Annex) Has(ctx context.Context, key Key) (bool, error) {
	if err := key.validate(); err != nil {
		return false, err
	}
	if a.keys.Contains(key) {
		return true, nil
	}
	has, err := a.backend.Has(ctx, key.storageKey())
	if err != nil {
		return false, err
	}
	if has {
		a.keys.Add(key, struct{}{})
	}
	return has, nil
}

// Fetch opens a blob for reading. The caller must close the returned reader.
//
// Fetching an unknown key fails with status.ErrNotFound.
func (a *Annex) Fetch(ctx context.Context, key Key) (io.ReadCloser, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	rdr, err := a.backend.Get(ctx, key.storageKey())
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) || os.IsNotExist(err) {
			return nil, status.ErrNotFound.WrapMessage("key %v", key)
		}
		return nil, err
	}

	blob := rdr
	if a.compress {
		dec, err := zstd.NewReader(rdr)
		if err != nil {
			_ = rdr.Close()
			return nil, err
		}
		blob = &blobReader{Reader: dec, close: func() error {
			dec.Close()
			return rdr.Close()
		}}
	}
	if a.verifyHash {
		blob = &verifyingReader{ReadCloser: blob, key: key, hasher: schemes[key.Scheme].new()}
	}
	return blob, nil
}

// String describes the annex backend
func (a *Annex) String() string {
	return "annex(" + a.scheme + ")@" + a.backend.String()
}

type blobReader struct {
	io.Reader
	close func() error
}

func (r *blobReader) Close() error {
	return r.close()
}

// verifyingReader checks the content hash when the blob has been fully read
type verifyingReader struct {
	io.ReadCloser
	key    Key
	hasher hash.Hash
}

func (r *verifyingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	_, _ = r.hasher.Write(p[:n])
	if err == io.EOF {
		expected, _ := hex.DecodeString(r.key.Hash)
		if !bytes.Equal(expected, r.hasher.Sum(nil)) {
			return n, status.ErrCorrupted.WrapMessage("key %v", r.key)
		}
	}
	return n, err
}
