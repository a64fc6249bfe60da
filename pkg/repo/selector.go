package repo

import (
	"fmt"
	"time"

	"github.com/oneconcern/configsvc/pkg/model"
)

// CommitMode tells if a commit creates a path or adds a revision to a tracked path
type CommitMode uint8

const (
	// Create starts the history of an untracked path
	Create CommitMode = iota

	// Update adds a revision to a tracked path
	Update
)

func (m CommitMode) String() string {
	if m == Create {
		return "create"
	}
	return "update"
}

type selectorKind uint8

const (
	latest selectorKind = iota
	byID
	atTime
)

// Selector picks a revision in the history of a path
type Selector struct {
	kind selectorKind
	id   model.RevisionID
	at   time.Time
}

// Latest selects the most recent revision
func Latest() Selector {
	return Selector{kind: latest}
}

// ByID selects a revision by its id
func ByID(id model.RevisionID) Selector {
	return Selector{kind: byID, id: id}
}

// AtTime selects the revision active at some instant,
// i.e. the last revision committed at or before that instant
func AtTime(t time.Time) Selector {
	return Selector{kind: atTime, at: t}
}

func (s Selector) String() string {
	switch s.kind {
	case byID:
		return fmt.Sprintf("id:%v", s.id)
	case atTime:
		return fmt.Sprintf("at:%v", s.at.Format(time.RFC3339Nano))
	default:
		return "latest"
	}
}

// LogQuery restricts the revisions returned by Log.
//
// A zero Max returns all revisions. Zero From or To times leave the range open.
type LogQuery struct {
	Max  int
	From time.Time
	To   time.Time
}

