package authserver

import (
	"fmt"
	"time"

	"github.com/finmcp/gateway/pkg/logger"
)

// Config configures one Server instance.
type Config struct {
	// Issuer is the canonical external base URL (scheme+host, no trailing
	// slash) this server advertises in discovery and token claims.
	Issuer string

	// OAuthMountPath is the absolute path of the protected-resource mount
	// this AS issues tokens for (e.g. "/v2/mcp").
	OAuthMountPath string

	DefaultScope        string
	AccessTokenLifespan time.Duration
	AuthCodeLifespan    time.Duration
	SessionSecret       string
}

// Validate checks Config for the values the AS cannot safely default.
func (c *Config) Validate() error {
	logger.Debugw("validating authserver config", "issuer", c.Issuer, "mount", c.OAuthMountPath)

	if c.Issuer == "" {
		return fmt.Errorf("authserver: Issuer must not be empty")
	}
	if c.OAuthMountPath == "" {
		return fmt.Errorf("authserver: OAuthMountPath must not be empty")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("authserver: SessionSecret must not be empty")
	}

	c.applyDefaults()

	logger.Debugw("authserver config validation passed", "issuer", c.Issuer)
	return nil
}

func (c *Config) applyDefaults() {
	logger.Debug("applying default values to authserver config")

	if c.DefaultScope == "" {
		c.DefaultScope = "full-access"
	}
	if c.AccessTokenLifespan == 0 {
		c.AccessTokenLifespan = time.Hour
		logger.Debugw("applied default access token lifespan", "duration", c.AccessTokenLifespan)
	}
	if c.AuthCodeLifespan == 0 {
		c.AuthCodeLifespan = 10 * time.Minute
		logger.Debugw("applied default auth code lifespan", "duration", c.AuthCodeLifespan)
	}
}

// ResourceURL is the absolute URL tokens for this mount must carry as aud.
func (c *Config) ResourceURL() string {
	return c.Issuer + c.OAuthMountPath
}
