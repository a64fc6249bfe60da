package model

import (
	"time"

	"github.com/segmentio/ksuid"
)

// RevisionID uniquely identifies an immutable revision of a configuration file
type RevisionID string

// NewRevisionID generates a new unique revision id
func NewRevisionID() (RevisionID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", err
	}
	return RevisionID(id.String()), nil
}

// ParseRevisionID checks that a string is a well-formed revision id
func ParseRevisionID(s string) (RevisionID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return "", ErrInvalidRevisionID.WrapMessage("%q: %v", s, err)
	}
	return RevisionID(id.String()), nil
}

func (r RevisionID) String() string {
	return string(r)
}

// IsZero is true for the empty revision id
func (r RevisionID) IsZero() bool {
	return r == ""
}

// RevisionDescriptor describes one committed revision of a file.
//
// The descriptor is the commit point of a revision: it is written once, after the content.
type RevisionDescriptor struct {
	ID          RevisionID  `json:"id" yaml:"id"`
	Path        string      `json:"path" yaml:"path"`
	Generation  RevisionID  `json:"generation" yaml:"generation"`
	Sequence    uint64      `json:"sequence" yaml:"sequence"`
	Comment     string      `json:"comment" yaml:"comment"`
	Timestamp   time.Time   `json:"timestamp" yaml:"timestamp"`
	Size        int64       `json:"size" yaml:"size"`
	Contributor Contributor `json:"contributor,omitempty" yaml:"contributor,omitempty"`
	_           struct{}
}

// HistoryEntry renders a descriptor as an entry of the history of a file
func (d RevisionDescriptor) HistoryEntry() ConfigFileRevision {
	return ConfigFileRevision{
		ID:      d.ID,
		Comment: d.Comment,
		Time:    d.Timestamp,
	}
}

// HeadDescriptor tracks the current state of a path.
//
// Generation is the id of the revision which created the current history of the path.
type HeadDescriptor struct {
	Path          string     `json:"path" yaml:"path"`
	Generation    RevisionID `json:"generation" yaml:"generation"`
	Created       time.Time  `json:"created" yaml:"created"`
	Deleted       bool       `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	DeletedAt     time.Time  `json:"deletedAt,omitempty" yaml:"deletedAt,omitempty"`
	DeleteComment string     `json:"deleteComment,omitempty" yaml:"deleteComment,omitempty"`
	_             struct{}
}

// Live is true when the path is tracked
func (h HeadDescriptor) Live() bool {
	return !h.Generation.IsZero() && !h.Deleted
}

// FileSummary is the repository view of a live path and its latest revision
type FileSummary struct {
	Head   HeadDescriptor
	Latest RevisionDescriptor
}
