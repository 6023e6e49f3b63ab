// Package tokenstore persists the console's bearer token so a restart does
// not force a new login. Every store keeps exactly one string under a fixed
// key.
package tokenstore

import (
	"context"
	"fmt"
)

// DefaultKey is the key the bearer token is stored under
const DefaultKey = "auth_token"

// Store gets, sets and clears the single persisted token. Get returns an
// empty string when no token is stored.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Driver names accepted by the configuration
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ValidateDriver checks a configured driver name
func ValidateDriver(driver string) error {
	switch driver {
	case DriverFile, DriverPostgres, DriverMemory:
		return nil
	}
	return fmt.Errorf("unknown token store driver %q", driver)
}
