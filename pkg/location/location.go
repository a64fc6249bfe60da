// Package location describes how services announce themselves to a location registry, and how clients find them.
//
// The registry proper is an external collaborator: this package defines the interface the config service
// relies upon, together with an implementation backed by a storage.Store.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/oneconcern/configsvc/pkg/errors"
)

// ComponentType tells the kind of a registered component
type ComponentType string

// ConnectionType tells how to connect to a registered component
type ConnectionType string

const (
	// Service is a component type for standalone services
	Service ComponentType = "service"

	// HTTP connections
	HTTP ConnectionType = "http"

	// TCP connections
	TCP ConnectionType = "tcp"
)

var (
	// ErrAlreadyRegistered indicates a registration for a connection which is already registered
	ErrAlreadyRegistered = errors.New("connection already registered")

	// ErrInvalidRegistration indicates an incomplete registration
	ErrInvalidRegistration = errors.New("invalid registration")
)

// Connection identifies a component and the way to connect to it
type Connection struct {
	Name          string         `json:"name" yaml:"name"`
	ComponentType ComponentType  `json:"componentType" yaml:"componentType"`
	Type          ConnectionType `json:"type" yaml:"type"`
}

func (c Connection) String() string {
	return fmt.Sprintf("%s-%s-%s", c.Name, c.ComponentType, c.Type)
}

// ConfigServiceConnection is the well-known connection of the config service
var ConfigServiceConnection = Connection{
	Name:          "ConfigServiceServer",
	ComponentType: Service,
	Type:          HTTP,
}

// Registration of a component at some address
type Registration struct {
	Connection Connection `json:"connection" yaml:"connection"`
	URI        string     `json:"uri" yaml:"uri"`
}

// Location of a registered component
type Location struct {
	Connection Connection `json:"connection" yaml:"connection"`
	URI        string     `json:"uri" yaml:"uri"`
	Registered time.Time  `json:"registered" yaml:"registered"`
}

// Registry of component locations
type Registry interface {
	Register(context.Context, Registration) (Location, error)
	Unregister(context.Context, Connection) error
	Resolve(context.Context, Connection) (Location, bool, error)
	List(context.Context) ([]Location, error)
}
