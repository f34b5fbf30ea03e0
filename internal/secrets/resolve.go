package secrets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/config"
)

// lookupTimeout bounds a single secret manager call.
var lookupTimeout = 15 * time.Second

// Resolve finds credentials for a live side. A password set directly in the
// environment wins; otherwise every enabled manager is tried in order for the
// side's SecretPath. A username missing from the secret falls back to the one
// in the environment.
func Resolve(ctx context.Context, side config.SourceConfig, label string, managers []SecretManager, log *zap.Logger) (*Credentials, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("side", label))
	envName := strings.ToUpper(label)

	if side.DB.Password != "" {
		if side.DB.User == "" {
			return nil, fmt.Errorf("password provided for %s DB via env var, but username (%s_DB_USER) is missing", label, envName)
		}
		log.Debug("Using password directly from environment variable.")
		return &Credentials{Username: side.DB.User, Password: side.DB.Password}, nil
	}

	if side.SecretPath == "" {
		return nil, fmt.Errorf("could not load credentials for %s DB: set %s_DB_PASSWORD or %s_SECRET_PATH with VAULT_ENABLED=true", label, envName, envName)
	}

	tried := 0
	for _, sm := range managers {
		if sm == nil || !sm.IsEnabled() {
			continue
		}
		tried++
		getCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
		creds, err := sm.GetCredentials(getCtx, side.SecretPath, side.UsernameKey, side.PasswordKey)
		cancel()
		if err != nil || creds == nil {
			log.Warn("Secret manager could not provide credentials, trying next",
				zap.String("manager_type", fmt.Sprintf("%T", sm)),
				zap.String("path", side.SecretPath),
				zap.Error(err))
			continue
		}
		if creds.Password == "" {
			return nil, fmt.Errorf("retrieved credentials for %s from %T, but password field is empty", label, sm)
		}
		if creds.Username == "" {
			creds.Username = side.DB.User
			if creds.Username == "" {
				return nil, fmt.Errorf("password retrieved for %s, but username is missing in both secret and %s_DB_USER", label, envName)
			}
		}
		log.Info("Loaded credentials from secret manager", zap.String("path", side.SecretPath))
		return creds, nil
	}

	if tried == 0 {
		log.Warn("Secret path is configured, but no secret manager is enabled.", zap.String("path", side.SecretPath))
	}
	return nil, fmt.Errorf("could not load credentials for %s DB from secret path %q", label, side.SecretPath)
}
