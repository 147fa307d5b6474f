package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Deployment is the per-service startup configuration: where the cache
// lives, how long a minted token's policy map survives, and the timeout
// budget for each external dependency a request fans out to.
type Deployment struct {
	Cache       CacheConfig       `yaml:"cache" validate:"required"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Timeouts    TimeoutsConfig    `yaml:"timeouts"`
}

// CacheConfig configures the SQLite-backed Cache Gateway.
type CacheConfig struct {
	Path            string        `yaml:"path" validate:"required"`
	MaxOpenConns    int           `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`
}

// CoordinatorConfig configures the Palisade Coordinator.
type CoordinatorConfig struct {
	// TokenTTL bounds how long a registered token's policy map survives
	// in the cache. Zero means no expiry.
	TokenTTL time.Duration `yaml:"token_ttl,omitempty"`
}

// TimeoutsConfig holds per-dependency timeouts for the external calls the
// Coordinator and Policy Resolver make. It is parsed and validated here
// only: no component in this module applies these values, so external
// calls are bounded solely by the caller's context.
type TimeoutsConfig struct {
	Cache    time.Duration `yaml:"cache,omitempty"`
	User     time.Duration `yaml:"user,omitempty"`
	Resource time.Duration `yaml:"resource,omitempty"`
	Policy   time.Duration `yaml:"policy,omitempty"`
}

var deploymentValidator = validator.New()

// ParseDeployment decodes and validates a Deployment from YAML bytes.
func ParseDeployment(data []byte) (*Deployment, error) {
	var d Deployment
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse deployment config: %w", err)
	}

	if err := deploymentValidator.Struct(&d); err != nil {
		return nil, fmt.Errorf("invalid deployment config: %w", err)
	}

	return &d, nil
}

// LoadDeployment reads and parses a Deployment from path.
func LoadDeployment(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment config %s: %w", path, err)
	}
	return ParseDeployment(data)
}
