package model

import (
	"fmt"
	"time"
)

// FileType tells how the content of a configuration file is stored
type FileType string

const (
	// Normal files are stored in the repository
	Normal FileType = "normal"

	// Annex files are stored in the annex, the repository holding a pointer record
	Annex FileType = "annex"
)

// ParseFileType recognizes a file type, as used by list filters
func ParseFileType(s string) (FileType, error) {
	switch FileType(s) {
	case Normal, Annex:
		return FileType(s), nil
	default:
		return "", fmt.Errorf("unknown file type %q: expect %q or %q", s, Normal, Annex)
	}
}

// ConfigFileInfo summarizes a configuration file in listings
type ConfigFileInfo struct {
	Path    string     `json:"path" yaml:"path"`
	ID      RevisionID `json:"id" yaml:"id"`
	Comment string     `json:"comment" yaml:"comment"`
	Type    FileType   `json:"type" yaml:"type"`
}

// ConfigFileRevision is one entry in the history of a configuration file
type ConfigFileRevision struct {
	ID      RevisionID `json:"id" yaml:"id"`
	Comment string     `json:"comment" yaml:"comment"`
	Time    time.Time  `json:"time" yaml:"time"`
}

// ConfigMetadata describes the storage setup of a config service
type ConfigMetadata struct {
	RepositoryPath    string `json:"repositoryPath" yaml:"repositoryPath"`
	AnnexPath         string `json:"annexPath" yaml:"annexPath"`
	AnnexMinFileSize  int64  `json:"annexMinFileSize" yaml:"annexMinFileSize"`
	MaxConfigFileSize int64  `json:"maxConfigFileSize" yaml:"maxConfigFileSize"`
}

// Contributor who committed a revision
type Contributor struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	_     struct{}
}

func (c Contributor) String() string {
	if c.Email == "" {
		return c.Name
	}
	if c.Name == "" {
		return c.Email
	}
	return fmt.Sprintf("%s <%s>", c.Name, c.Email)
}

// DefaultRecord is the content of a default pointer.
//
// An empty Revision means that the default pointer is cleared.
// Generation binds the pointer to one history of the path.
type DefaultRecord struct {
	Revision   RevisionID `json:"revision,omitempty" yaml:"revision,omitempty"`
	Generation RevisionID `json:"generation,omitempty" yaml:"generation,omitempty"`
}
