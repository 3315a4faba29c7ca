package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CatalogSourceConfig describes the remote catalog used to seed the store.
type CatalogSourceConfig struct {
	BaseURL        string               `koanf:"baseurl"`
	Limit          int                  `koanf:"limit"`
	Timeout        time.Duration        `koanf:"timeout"`
	SeedOnStartup  bool                 `koanf:"seedonstartup"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

const (
	defaultCatalogLimit   = 100
	defaultCatalogTimeout = 10 * time.Second
)

// String returns a string representation of the remote catalog configuration.
func (c *CatalogSourceConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Remote Catalog ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  limit: %d\n", c.Limit))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  seedonstartup: %t\n", c.SeedOnStartup))
	b.WriteString(c.CircuitBreaker.String())
	return b.String()
}

func (c *CatalogSourceConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("catalog base URL is not configured")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("catalog base URL must be an absolute http(s) URL: %s", c.BaseURL)
	}
	if c.Limit < 0 {
		return fmt.Errorf("catalog limit must not be negative: %d", c.Limit)
	}
	if c.Limit == 0 {
		c.Limit = defaultCatalogLimit
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultCatalogTimeout
	}
	return c.CircuitBreaker.Validate()
}
