// Package configloader loads service configuration from yaml, .env and the process environment.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

// Validator is implemented by every root configuration struct.
type Validator interface {
	Validate() error
}

// Sources lists where the configuration layers are read from.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

// Load reads the configuration for serviceName using the default file locations.
// The yaml file can be relocated with <SERVICE>_CONFIG_FILE.
func Load[T Validator](serviceName string) (T, error) {
	envPrefix := EnvPrefix(serviceName)
	src := Sources{ConfigFile: defaultConfigFile, EnvFile: defaultEnvFile}
	if path := os.Getenv(envPrefix + "CONFIG_FILE"); path != "" {
		src.ConfigFile = path
	}
	return LoadFrom[T](serviceName, src)
}

// LoadFrom layers yaml < .env < process environment and validates the result.
// Environment keys are matched by prefix <SERVICE>_ and "_" separates nested keys.
func LoadFrom[T Validator](serviceName string, src Sources) (T, error) {
	var cfg T
	k := koanf.New(".")
	envPrefix := EnvPrefix(serviceName)
	transform := keyTransformer(envPrefix)

	// 1. yaml file
	if err := k.Load(file.Provider(src.ConfigFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", src.ConfigFile, err)
		}
	}

	// 2. .env file, only keys carrying the service prefix
	if envFileMap, err := godotenv.Read(src.EnvFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			envMap[transform(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 3. process environment, the highest priority
	if err := k.Load(env.Provider(envPrefix, ".", transform), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// EnvPrefix returns the environment variable prefix for serviceName, e.g. CATALOG_.
func EnvPrefix(serviceName string) string {
	return fmt.Sprintf("%s_", strings.ToUpper(serviceName))
}

func keyTransformer(envPrefix string) func(string) string {
	lowerPrefix := strings.ToLower(envPrefix)
	return func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, lowerPrefix)
		return strings.ReplaceAll(key, "_", ".")
	}
}
