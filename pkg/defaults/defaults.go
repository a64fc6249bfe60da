// Package defaults tracks the default revision of configuration files.
//
// A default record pins one revision of a path. Records are committed to a dedicated namespace
// of the repository, so that every change of a default is itself part of an auditable history.
package defaults

import (
	"bytes"
	"context"

	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/repo"
	"github.com/oneconcern/configsvc/pkg/repo/status"
	"gopkg.in/yaml.v2"
)

// Store of default pointers
type Store struct {
	repo *repo.Repository
}

// Change is one entry in the history of the default pointer of a path
type Change struct {
	Default model.DefaultRecord      `json:"default" yaml:"default"`
	Commit  model.RevisionDescriptor `json:"commit" yaml:"commit"`
}

// New default pointer store, sharing the backing store and commit latch of a repository
func New(r *repo.Repository) *Store {
	return &Store{repo: r.WithNamespace(model.NamespaceDefaults)}
}

// Set records the default pointer of a path. An empty revision clears the pointer.
//
// The caller is responsible for checking that the revision belongs to the given generation of the path,
// and for serializing concurrent changes on the same path.
func (s *Store) Set(ctx context.Context, pth string, record model.DefaultRecord, comment string) (model.RevisionDescriptor, error) {
	b, err := yaml.Marshal(record)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	exists, err := s.repo.Exists(ctx, pth)
	if err != nil {
		return model.RevisionDescriptor{}, err
	}
	mode := repo.Create
	if exists {
		mode = repo.Update
	}
	return s.repo.Commit(ctx, pth, bytes.NewReader(b), comment, mode)
}

// Get the default revision of a path, for a given generation of that path.
//
// A pointer set for a previous generation, before the path was deleted then created again, is ignored.
func (s *Store) Get(ctx context.Context, pth string, generation model.RevisionID) (model.RevisionID, bool, error) {
	data, _, err := s.repo.Read(ctx, pth, repo.Latest())
	if err != nil {
		if errors.Is(err, status.ErrFileNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	record, err := decode(data)
	if err != nil {
		return "", false, err
	}
	if record.Revision.IsZero() || record.Generation != generation {
		return "", false, nil
	}
	return record.Revision, true, nil
}

// History of the default pointer of a path, newest first
func (s *Store) History(ctx context.Context, pth string, q repo.LogQuery) ([]Change, error) {
	descriptors, err := s.repo.Log(ctx, pth, q)
	if err != nil {
		return nil, err
	}
	changes := make([]Change, 0, len(descriptors))
	for _, desc := range descriptors {
		data, _, err := s.repo.Read(ctx, pth, repo.ByID(desc.ID))
		if err != nil {
			return nil, err
		}
		record, err := decode(data)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Change{Default: record, Commit: desc})
	}
	return changes, nil
}

func decode(data *model.ConfigData) (model.DefaultRecord, error) {
	b, err := data.Bytes()
	if err != nil {
		return model.DefaultRecord{}, err
	}
	var record model.DefaultRecord
	if err = yaml.UnmarshalStrict(b, &record); err != nil {
		return model.DefaultRecord{}, status.ErrInconsistentRepository.WrapMessage("default record: %v", err)
	}
	return record, nil
}
