package secrets

import "context"

// Credentials holds the username and password for a live database side.
type Credentials struct {
	Username string
	Password string
}

// SecretManager is a backend that can hand out database credentials.
type SecretManager interface {
	// GetCredentials reads the secret at path and extracts the two keys.
	GetCredentials(ctx context.Context, path string, usernameKey string, passwordKey string) (*Credentials, error)

	IsEnabled() bool
}
