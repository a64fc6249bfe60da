package location

import (
	"context"
	"testing"

	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewStoreRegistry(localfs.New(afero.NewMemMapFs()))
	ctx := context.Background()

	_, found, err := reg.Resolve(ctx, ConfigServiceConnection)
	require.NoError(t, err)
	assert.False(t, found)

	loc, err := reg.Register(ctx, Registration{Connection: ConfigServiceConnection, URI: "http://localhost:4000"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", loc.URI)

	_, err = reg.Register(ctx, Registration{Connection: ConfigServiceConnection, URI: "http://localhost:4001"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))

	resolved, found, err := reg.Resolve(ctx, ConfigServiceConnection)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, loc.URI, resolved.URI)
	assert.Equal(t, ConfigServiceConnection, resolved.Connection)

	other := Connection{Name: "tcs", ComponentType: Service, Type: TCP}
	_, err = reg.Register(ctx, Registration{Connection: other, URI: "tcp://localhost:5000"})
	require.NoError(t, err)

	all, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, reg.Unregister(ctx, ConfigServiceConnection))
	require.NoError(t, reg.Unregister(ctx, ConfigServiceConnection))
	_, found, err = reg.Resolve(ctx, ConfigServiceConnection)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidRegistration(t *testing.T) {
	reg := NewStoreRegistry(localfs.New(afero.NewMemMapFs()))

	for _, invalid := range []Registration{
		{Connection: ConfigServiceConnection},
		{Connection: Connection{Type: HTTP}, URI: "http://localhost"},
		{Connection: Connection{Name: "a/b", Type: HTTP}, URI: "http://localhost"},
	} {
		_, err := reg.Register(context.Background(), invalid)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRegistration))
	}
}

func TestConnectionString(t *testing.T) {
	assert.Equal(t, "ConfigServiceServer-service-http", ConfigServiceConnection.String())
}
