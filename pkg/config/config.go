// Package config loads the gateway's process configuration from the
// environment, validating required values and applying the defaults named
// in the external interfaces section of the specification this gateway
// implements.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds every environment-derived setting the gateway consumes at
// startup.
type Config struct {
	JWTSecret    string
	JWTAlgorithm string

	AccessTokenExpires time.Duration
	AuthCodeExpires    time.Duration

	SessionSecret string

	DefaultScope string

	OAuthResourcePath string
	LegacyMountPath   string
	ServerURL         string

	ClientMetaHTTPTimeout time.Duration
	ClientMetaMaxBytes    int64
	ClientMetaDefaultTTL  time.Duration
	ClientMetaMinTTL      time.Duration
	ClientMetaMaxTTL      time.Duration

	TokenStorageDir       string
	StorageEncryptionKey  string
	UpstreamEnvCredential string

	UpstreamAPIBaseURL  string
	IdentityVerifyURL   string
	ListenAddr          string
	LogLevel            string
}

func defaults(v *viper.Viper) {
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRES", 3600)
	v.SetDefault("AUTH_CODE_EXPIRES", 600)
	v.SetDefault("DEFAULT_SCOPE", "full-access")
	v.SetDefault("MCP_OAUTH_RESOURCE_PATH", "/v2/mcp")
	v.SetDefault("MCP_LEGACY_RESOURCE_PATH", "/v1/mcp")
	v.SetDefault("CLIENT_META_HTTP_TIMEOUT", 5)
	v.SetDefault("CLIENT_META_MAX_BYTES", 1<<20)
	v.SetDefault("CLIENT_META_DEFAULT_TTL", 300)
	v.SetDefault("CLIENT_META_MIN_TTL", 60)
	v.SetDefault("CLIENT_META_MAX_TTL", 86400)
	v.SetDefault("UPSTREAM_API_BASE_URL", "https://api.example-findata.test")
	v.SetDefault("IDENTITY_VERIFY_URL", "")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads configuration from the environment. It is fatal (returns an
// error) when JWT_SECRET is absent, or when MCP_OAUTH_RESOURCE_PATH is not
// an absolute path. MCP_OAUTH_RESOURCE_PATH doubles as the OAuth mount
// prefix: callers thread cfg.OAuthResourcePath into the dispatcher mount,
// the authorization server config, and the protected-resource middleware's
// expected audience directly, so there is no second, independently
// hardcoded mount constant it could mismatch against.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	for _, key := range []string{
		"JWT_SECRET", "JWT_ALGORITHM", "ACCESS_TOKEN_EXPIRES", "AUTH_CODE_EXPIRES",
		"SESSION_SECRET", "DEFAULT_SCOPE", "MCP_OAUTH_RESOURCE_PATH",
		"MCP_LEGACY_RESOURCE_PATH", "MCP_SERVER_URL",
		"CLIENT_META_HTTP_TIMEOUT", "CLIENT_META_MAX_BYTES", "CLIENT_META_DEFAULT_TTL",
		"CLIENT_META_MIN_TTL", "CLIENT_META_MAX_TTL",
		"OAUTH_TOKEN_STORAGE_DIR", "OAUTH_STORAGE_ENCRYPTION_KEY",
		"UPSTREAM_API_TOKEN", "UPSTREAM_API_BASE_URL", "IDENTITY_VERIFY_URL",
		"LISTEN_ADDR", "LOG_LEVEL",
	} {
		_ = v.BindEnv(key)
	}

	secret := v.GetString("JWT_SECRET")
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	resourcePath := v.GetString("MCP_OAUTH_RESOURCE_PATH")
	if !strings.HasPrefix(resourcePath, "/") {
		return nil, fmt.Errorf("config: MCP_OAUTH_RESOURCE_PATH must be an absolute path, got %q", resourcePath)
	}

	sessionSecret := v.GetString("SESSION_SECRET")
	if strings.TrimSpace(sessionSecret) == "" {
		sessionSecret = uuid.NewString()
	}

	cfg := &Config{
		JWTSecret:             secret,
		JWTAlgorithm:          v.GetString("JWT_ALGORITHM"),
		AccessTokenExpires:    time.Duration(v.GetInt64("ACCESS_TOKEN_EXPIRES")) * time.Second,
		AuthCodeExpires:       time.Duration(v.GetInt64("AUTH_CODE_EXPIRES")) * time.Second,
		SessionSecret:         sessionSecret,
		DefaultScope:          v.GetString("DEFAULT_SCOPE"),
		OAuthResourcePath:     resourcePath,
		LegacyMountPath:       v.GetString("MCP_LEGACY_RESOURCE_PATH"),
		ServerURL:             v.GetString("MCP_SERVER_URL"),
		ClientMetaHTTPTimeout: time.Duration(v.GetInt64("CLIENT_META_HTTP_TIMEOUT")) * time.Second,
		ClientMetaMaxBytes:    v.GetInt64("CLIENT_META_MAX_BYTES"),
		ClientMetaDefaultTTL:  time.Duration(v.GetInt64("CLIENT_META_DEFAULT_TTL")) * time.Second,
		ClientMetaMinTTL:      time.Duration(v.GetInt64("CLIENT_META_MIN_TTL")) * time.Second,
		ClientMetaMaxTTL:      time.Duration(v.GetInt64("CLIENT_META_MAX_TTL")) * time.Second,
		TokenStorageDir:       v.GetString("OAUTH_TOKEN_STORAGE_DIR"),
		StorageEncryptionKey:  v.GetString("OAUTH_STORAGE_ENCRYPTION_KEY"),
		UpstreamEnvCredential: v.GetString("UPSTREAM_API_TOKEN"),
		UpstreamAPIBaseURL:    v.GetString("UPSTREAM_API_BASE_URL"),
		IdentityVerifyURL:     v.GetString("IDENTITY_VERIFY_URL"),
		ListenAddr:            v.GetString("LISTEN_ADDR"),
		LogLevel:              v.GetString("LOG_LEVEL"),
	}

	return cfg, nil
}
