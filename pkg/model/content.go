package model

import (
	"gopkg.in/yaml.v2"
)

// AnnexPointer is the record committed to the repository in place of oversize content
type AnnexPointer struct {
	Scheme string `json:"scheme" yaml:"scheme"`
	Hash   string `json:"hash" yaml:"hash"`
	Size   int64  `json:"size" yaml:"size"`
}

// Key of the referenced blob, as understood by the annex
func (p AnnexPointer) Key() string {
	return p.Scheme + ":" + p.Hash
}

// MarshalPointer renders a pointer record
func MarshalPointer(p AnnexPointer) ([]byte, error) {
	return yaml.Marshal(p)
}

// UnmarshalPointer decodes a pointer record.
//
// A record is only recognized if it has no unknown field and all its fields are set.
func UnmarshalPointer(b []byte) (AnnexPointer, error) {
	var p AnnexPointer
	if err := yaml.UnmarshalStrict(b, &p); err != nil {
		return AnnexPointer{}, ErrInvalidPointer.Wrap(err)
	}
	if p.Scheme == "" || p.Hash == "" || p.Size < 0 {
		return AnnexPointer{}, ErrInvalidPointer.WrapMessage("incomplete pointer record: %v", p)
	}
	return p, nil
}

// ContentKind tells apart the variants of some FileContent
type ContentKind uint8

const (
	// NormalContent holds the file content
	NormalContent ContentKind = iota

	// OversizeContent holds a pointer to the content, stored in the annex
	OversizeContent
)

// FileContent is what the repository stores for a revision:
// either the content itself, or a pointer to an annex blob.
type FileContent struct {
	Kind    ContentKind
	Data    *ConfigData
	Pointer AnnexPointer
}

// NormalFileContent builds the variant for content stored in the repository
func NormalFileContent(data *ConfigData) FileContent {
	return FileContent{Kind: NormalContent, Data: data}
}

// OversizeFileContent builds the variant for content stored in the annex
func OversizeFileContent(p AnnexPointer) FileContent {
	return FileContent{Kind: OversizeContent, Pointer: p}
}
