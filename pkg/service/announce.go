package service

import (
	"context"

	"github.com/oneconcern/configsvc/pkg/location"
)

// Announce registers the config service at some address with a location registry.
//
// It returns the function which unregisters the service, to be called at shutdown.
func Announce(ctx context.Context, reg location.Registry, uri string) (func(context.Context) error, error) {
	loc, err := reg.Register(ctx, location.Registration{
		Connection: location.ConfigServiceConnection,
		URI:        uri,
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		return reg.Unregister(ctx, loc.Connection)
	}, nil
}
