package location

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/oneconcern/configsvc/pkg/storage/status"
	"gopkg.in/yaml.v2"
)

const locationsPrefix = "locations/"

var _ Registry = &StoreRegistry{}

// StoreRegistry keeps locations as yaml records on a storage.Store
type StoreRegistry struct {
	store storage.Store
	now   func() time.Time
}

// NewStoreRegistry builds a registry on a store
func NewStoreRegistry(store storage.Store) *StoreRegistry {
	return &StoreRegistry{store: store, now: time.Now}
}

func locationKey(c Connection) string {
	return path.Join(locationsPrefix, c.String()+".yaml")
}

// Register a component. A connection may be registered only once.
func (r *StoreRegistry) Register(ctx context.Context, reg Registration) (Location, error) {
	if reg.Connection.Name == "" || reg.URI == "" || strings.ContainsAny(reg.Connection.String(), "/@") {
		return Location{}, ErrInvalidRegistration.WrapMessage("%v at %q", reg.Connection, reg.URI)
	}
	loc := Location{Connection: reg.Connection, URI: reg.URI, Registered: r.now().UTC()}
	b, err := yaml.Marshal(loc)
	if err != nil {
		return Location{}, err
	}
	if err = r.store.Put(ctx, locationKey(reg.Connection), bytes.NewReader(b), storage.NoOverWrite); err != nil {
		if errors.Is(err, status.ErrExists) {
			return Location{}, ErrAlreadyRegistered.WrapMessage("%v", reg.Connection)
		}
		return Location{}, err
	}
	return loc, nil
}

// Unregister a component. Unregistering an unknown connection is not an error.
func (r *StoreRegistry) Unregister(ctx context.Context, c Connection) error {
	return r.store.Delete(ctx, locationKey(c))
}

// Resolve the location of a component
func (r *StoreRegistry) Resolve(ctx context.Context, c Connection) (Location, bool, error) {
	loc, err := r.read(ctx, locationKey(c))
	if err != nil {
		if errors.Is(err, status.ErrNotExists) {
			return Location{}, false, nil
		}
		return Location{}, false, err
	}
	return loc, true, nil
}

// List all registered locations
func (r *StoreRegistry) List(ctx context.Context) ([]Location, error) {
	keys, err := storage.ListPrefix(ctx, r.store, locationsPrefix)
	if err != nil {
		return nil, err
	}
	locations := make([]Location, 0, len(keys))
	for _, key := range keys {
		loc, err := r.read(ctx, key)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

func (r *StoreRegistry) read(ctx context.Context, key string) (Location, error) {
	b, err := storage.ReadAll(ctx, r.store, key)
	if err != nil {
		return Location{}, err
	}
	var loc Location
	if err = yaml.Unmarshal(b, &loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}
