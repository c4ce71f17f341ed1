/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package evalcache

import (
	"fmt"
	"time"

	"github.com/acronis/go-evalcache/config"
	"github.com/acronis/go-evalcache/log"
	"github.com/acronis/go-evalcache/retry"
)

const cfgDefaultKeyPrefix = "evalcache"

const (
	cfgKeyMaxUsers               = "maxUsers"
	cfgKeyStorageKey             = "storageKey"
	cfgKeyNameHashMemoSize       = "nameHashMemoSize"
	cfgKeyRefreshMaxRetries      = "refresh.maxRetries"
	cfgKeyRefreshInitialInterval = "refresh.initialInterval"
	cfgKeyRefreshMaxInterval     = "refresh.maxInterval"
)

// Default values for refreshing.
const (
	DefaultRefreshMaxRetries      = 3
	DefaultRefreshInitialInterval = time.Millisecond * 200
	DefaultRefreshMaxInterval     = time.Second * 5
)

// Config represents a set of configuration parameters for the Store.
type Config struct {
	MaxUsers         int           `mapstructure:"maxUsers" yaml:"maxUsers" json:"maxUsers"`
	StorageKey       string        `mapstructure:"storageKey" yaml:"storageKey" json:"storageKey"`
	NameHashMemoSize int           `mapstructure:"nameHashMemoSize" yaml:"nameHashMemoSize" json:"nameHashMemoSize"`
	Refresh          retry.Config `mapstructure:"refresh" yaml:"refresh" json:"refresh"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix.
// Empty prefix means the default one ("evalcache").
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		MaxUsers:   DefaultMaxUsers,
		StorageKey: DefaultStorageKey,
		Refresh: retry.Config{
			MaxRetries:      DefaultRefreshMaxRetries,
			InitialInterval: DefaultRefreshInitialInterval,
			MaxInterval:     DefaultRefreshMaxInterval,
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the Store in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyMaxUsers, DefaultMaxUsers)
	dp.SetDefault(cfgKeyStorageKey, DefaultStorageKey)
	dp.SetDefault(cfgKeyNameHashMemoSize, 0)
	dp.SetDefault(cfgKeyRefreshMaxRetries, DefaultRefreshMaxRetries)
	dp.SetDefault(cfgKeyRefreshInitialInterval, DefaultRefreshInitialInterval.String())
	dp.SetDefault(cfgKeyRefreshMaxInterval, DefaultRefreshMaxInterval.String())
}

// Set sets Store configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.MaxUsers, err = dp.GetInt(cfgKeyMaxUsers); err != nil {
		return err
	}
	if c.MaxUsers < 1 {
		return dp.WrapKeyErr(cfgKeyMaxUsers, fmt.Errorf("should be >= 1"))
	}

	if c.StorageKey, err = dp.GetString(cfgKeyStorageKey); err != nil {
		return err
	}
	if c.StorageKey == "" {
		return dp.WrapKeyErr(cfgKeyStorageKey, fmt.Errorf("cannot be empty"))
	}

	if c.NameHashMemoSize, err = dp.GetInt(cfgKeyNameHashMemoSize); err != nil {
		return err
	}
	if c.NameHashMemoSize < 0 {
		return dp.WrapKeyErr(cfgKeyNameHashMemoSize, fmt.Errorf("should be >= 0"))
	}

	if c.Refresh.MaxRetries, err = dp.GetInt(cfgKeyRefreshMaxRetries); err != nil {
		return err
	}
	if c.Refresh.MaxRetries < 0 {
		return dp.WrapKeyErr(cfgKeyRefreshMaxRetries, fmt.Errorf("should be >= 0"))
	}
	if c.Refresh.InitialInterval, err = dp.GetDuration(cfgKeyRefreshInitialInterval); err != nil {
		return err
	}
	if c.Refresh.InitialInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyRefreshInitialInterval, fmt.Errorf("should be > 0"))
	}
	if c.Refresh.MaxInterval, err = dp.GetDuration(cfgKeyRefreshMaxInterval); err != nil {
		return err
	}
	if c.Refresh.MaxInterval < c.Refresh.InitialInterval {
		return dp.WrapKeyErr(cfgKeyRefreshMaxInterval, fmt.Errorf("should be >= %s", cfgKeyRefreshInitialInterval))
	}

	return nil
}

// StoreOptions returns Options for New and Open built from the configuration.
func (c *Config) StoreOptions(logger log.FieldLogger, metricsCollector MetricsCollector) Options {
	opts := Options{
		MaxUsers:         c.MaxUsers,
		StorageKey:       c.StorageKey,
		NameHashMemoSize: c.NameHashMemoSize,
		Logger:           logger,
		MetricsCollector: metricsCollector,
	}
	if pm, ok := metricsCollector.(*PrometheusMetrics); ok && pm != nil && pm.NameHashMemo != nil {
		opts.NameHashMetricsCollector = pm.NameHashMemo
	}
	return opts
}

// RefreshPolicy returns an exponential backoff policy for Refresh.
// Zero MaxRetries means fetching is attempted once.
func (c *Config) RefreshPolicy() retry.Policy {
	return c.Refresh.Policy()
}
