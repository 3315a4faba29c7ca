// Package config holds the configuration of the catalog service.
package config

import (
	"strings"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig          `koanf:"server"`
	GRPC       config.GrpcServerConfig    `koanf:"grpc"`
	Log        config.LogConfig           `koanf:"log"`
	PProf      config.PProfConfig         `koanf:"pprof"`
	Telemetry  config.TelemetryConfig     `koanf:"telemetry"`
	Nats       config.NATSConfig          `koanf:"nats"`
	Catalog    config.CatalogSourceConfig `koanf:"catalog"`
	Shutdown   config.ShutdownConfig      `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Catalog.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid and fills in defaults.
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.GRPC,
		&c.Log,
		&c.PProf,
		&c.Telemetry,
		&c.Nats,
		&c.Catalog,
		&c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
