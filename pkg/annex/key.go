package annex

import (
	"encoding/hex"
	"hash"
	"path"
	"strings"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/oneconcern/configsvc/pkg/annex/status"
	"github.com/zeebo/blake3"
)

const (
	// SchemeBlake2b hashes content with blake2b-512 (https://github.com/minio/blake2b-simd)
	SchemeBlake2b = "blake2b"

	// SchemeBlake3 hashes content with blake3-256 (https://github.com/zeebo/blake3)
	SchemeBlake3 = "blake3"

	keySeparator = ":"
)

type hashingScheme struct {
	size int
	new  func() hash.Hash
}

var schemes = map[string]hashingScheme{
	SchemeBlake2b: {size: blake2b.Size, new: blake2b.New512},
	SchemeBlake3:  {size: 32, new: func() hash.Hash { return blake3.New() }},
}

// KnownScheme tells if some hashing scheme is supported
func KnownScheme(scheme string) bool {
	_, ok := schemes[scheme]
	return ok
}

// Key identifies a blob by the hash of its content
type Key struct {
	Scheme string
	Hash   string
}

// NewKey builds a key from a scheme and a hex-encoded hash
func NewKey(scheme, hexHash string) (Key, error) {
	s, ok := schemes[scheme]
	if !ok {
		return Key{}, status.ErrInvalidKey.WrapMessage("unknown hashing scheme %q", scheme)
	}
	raw, err := hex.DecodeString(hexHash)
	if err != nil {
		return Key{}, status.ErrInvalidKey.Wrap(err)
	}
	if len(raw) != s.size {
		return Key{}, status.ErrInvalidKey.WrapMessage("expected a %s hash of %d bytes, got %d", scheme, s.size, len(raw))
	}
	return Key{Scheme: scheme, Hash: strings.ToLower(hexHash)}, nil
}

// ParseKey parses the string representation of a key, as in "blake2b:{hex}"
func ParseKey(s string) (Key, error) {
	parts := strings.SplitN(s, keySeparator, 2)
	if len(parts) != 2 {
		return Key{}, status.ErrInvalidKey.WrapMessage("expected {scheme}:{hash}, got %q", s)
	}
	return NewKey(parts[0], parts[1])
}

func (k Key) validate() error {
	_, err := NewKey(k.Scheme, k.Hash)
	return err
}

func (k Key) String() string {
	return k.Scheme + keySeparator + k.Hash
}

// storageKey spreads blobs over sub-directories named after the first byte of the hash
func (k Key) storageKey() string {
	return path.Join(k.Scheme, k.Hash[:2], k.Hash)
}
