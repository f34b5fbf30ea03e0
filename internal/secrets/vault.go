package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/config"
)

// VaultManager reads credentials from a HashiCorp Vault KV v2 mount.
type VaultManager struct {
	client  *vault.Client
	enabled bool
	mount   string
	logger  *zap.Logger
}

func NewVaultManager(cfg *config.Config, baseLogger *zap.Logger) (*VaultManager, error) {
	if baseLogger == nil {
		baseLogger = zap.NewNop()
	}
	log := baseLogger.Named("vault-manager")
	if !cfg.VaultEnabled {
		log.Debug("Vault secret manager is disabled via configuration.")
		return &VaultManager{logger: log, mount: "secret"}, nil
	}

	log.Info("Initializing Vault secret manager", zap.String("address", cfg.VaultAddr))

	vConfig := vault.DefaultConfig()
	vConfig.Address = cfg.VaultAddr
	vConfig.Timeout = 10 * time.Second
	if err := vConfig.ConfigureTLS(&vault.TLSConfig{
		CACert:   cfg.VaultCACert,
		Insecure: cfg.VaultSkipVerify,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure Vault TLS: %w", err)
	}

	client, err := vault.NewClient(vConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.VaultToken != "" {
		client.SetToken(cfg.VaultToken)
	} else {
		log.Warn("Vault is enabled but VAULT_TOKEN is empty; requests will be unauthenticated.")
	}

	return &VaultManager{client: client, enabled: true, mount: "secret", logger: log}, nil
}

func (m *VaultManager) IsEnabled() bool {
	return m != nil && m.enabled && m.client != nil
}

func (m *VaultManager) GetCredentials(ctx context.Context, path, usernameKey, passwordKey string) (*Credentials, error) {
	if !m.IsEnabled() {
		return nil, errors.New("vault manager is not enabled")
	}
	if path == "" {
		return nil, errors.New("vault secret path cannot be empty")
	}
	if usernameKey == "" {
		usernameKey = "username"
	}
	if passwordKey == "" {
		passwordKey = "password"
	}

	log := m.logger.With(zap.String("vault_path", path))
	secret, err := m.client.KVv2(m.mount).Get(ctx, path)
	if err != nil {
		var respErr *vault.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("secret '%s' not found in Vault: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read secret '%s' from Vault: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret data for '%s' is empty", path)
	}

	password, ok := secret.Data[passwordKey].(string)
	if !ok || password == "" {
		return nil, fmt.Errorf("password key '%s' missing or not a non-empty string in secret '%s'", passwordKey, path)
	}
	username, _ := secret.Data[usernameKey].(string)

	log.Debug("Retrieved credentials from Vault", zap.Bool("username_present", username != ""))
	return &Credentials{Username: username, Password: password}, nil
}
