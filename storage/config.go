/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-evalcache/config"
)

const cfgDefaultKeyPrefix = "storage"

const (
	cfgKeyType           = "type"
	cfgKeyFilePath       = "file.path"
	cfgKeyFileFormat     = "file.format"
	cfgKeySQLitePath     = "sqlite.path"
	cfgKeyRedisAddr      = "redis.addr"
	cfgKeyRedisPassword  = "redis.password"
	cfgKeyRedisDB        = "redis.db"
	cfgKeyRedisKeyPrefix = "redis.keyPrefix"
	cfgKeyRedisTimeout   = "redis.timeout"
)

// Type defines possible storage backends.
type Type string

// Storage backends.
const (
	TypeMemory Type = "memory"
	TypeFile   Type = "file"
	TypeSQLite Type = "sqlite"
	TypeRedis  Type = "redis"
)

// Default values.
const (
	DefaultRedisKeyPrefix = "evalcache:"
	DefaultRedisTimeout   = time.Second * 2
)

var availableTypes = []string{string(TypeMemory), string(TypeFile), string(TypeSQLite), string(TypeRedis)}

// Config represents a set of configuration parameters for the durable storage.
type Config struct {
	Type   Type         `mapstructure:"type" yaml:"type" json:"type"`
	File   FileConfig   `mapstructure:"file" yaml:"file" json:"file"`
	SQLite SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite" json:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis" yaml:"redis" json:"redis"`

	keyPrefix string
}

// FileConfig is a configuration for the preference file storage.
type FileConfig struct {
	Path   string          `mapstructure:"path" yaml:"path" json:"path"`
	Format config.DataType `mapstructure:"format" yaml:"format" json:"format"`
}

// SQLiteConfig is a configuration for the SQLite storage.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// RedisConfig is a configuration for the Redis storage.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password  string        `mapstructure:"password" yaml:"password" json:"password"`
	DB        int           `mapstructure:"db" yaml:"db" json:"db"`
	KeyPrefix string        `mapstructure:"keyPrefix" yaml:"keyPrefix" json:"keyPrefix"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix.
// Empty prefix means the default one ("storage").
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values (in-memory storage).
func NewDefaultConfig() *Config {
	return &Config{
		Type: TypeMemory,
		File: FileConfig{Format: config.DataTypeJSON},
		Redis: RedisConfig{
			KeyPrefix: DefaultRedisKeyPrefix,
			Timeout:   DefaultRedisTimeout,
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

// SetProviderDefaults sets default configuration values for storage in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyType, string(TypeMemory))
	dp.SetDefault(cfgKeyFileFormat, string(config.DataTypeJSON))
	dp.SetDefault(cfgKeyRedisKeyPrefix, DefaultRedisKeyPrefix)
	dp.SetDefault(cfgKeyRedisTimeout, DefaultRedisTimeout.String())
}

// Set sets storage configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	typeStr, err := dp.GetStringFromSet(cfgKeyType, availableTypes, true)
	if err != nil {
		return err
	}
	c.Type = Type(strings.ToLower(typeStr))

	if err = c.setFileConfig(dp); err != nil {
		return err
	}

	if c.SQLite.Path, err = dp.GetString(cfgKeySQLitePath); err != nil {
		return err
	}
	if c.Type == TypeSQLite && strings.TrimSpace(c.SQLite.Path) == "" {
		return dp.WrapKeyErr(cfgKeySQLitePath, fmt.Errorf("cannot be empty when %q storage is used", TypeSQLite))
	}

	return c.setRedisConfig(dp)
}

func (c *Config) setFileConfig(dp config.DataProvider) error {
	var err error
	if c.File.Path, err = dp.GetString(cfgKeyFilePath); err != nil {
		return err
	}
	if c.Type == TypeFile && strings.TrimSpace(c.File.Path) == "" {
		return dp.WrapKeyErr(cfgKeyFilePath, fmt.Errorf("cannot be empty when %q storage is used", TypeFile))
	}
	formatStr, err := dp.GetStringFromSet(
		cfgKeyFileFormat, []string{string(config.DataTypeJSON), string(config.DataTypeYAML)}, true)
	if err != nil {
		return err
	}
	c.File.Format = config.DataType(strings.ToLower(formatStr))
	return nil
}

func (c *Config) setRedisConfig(dp config.DataProvider) error {
	var err error
	if c.Redis.Addr, err = dp.GetString(cfgKeyRedisAddr); err != nil {
		return err
	}
	if c.Type == TypeRedis && strings.TrimSpace(c.Redis.Addr) == "" {
		return dp.WrapKeyErr(cfgKeyRedisAddr, fmt.Errorf("cannot be empty when %q storage is used", TypeRedis))
	}
	if c.Redis.Password, err = dp.GetString(cfgKeyRedisPassword); err != nil {
		return err
	}
	if c.Redis.DB, err = dp.GetInt(cfgKeyRedisDB); err != nil {
		return err
	}
	if c.Redis.DB < 0 {
		return dp.WrapKeyErr(cfgKeyRedisDB, fmt.Errorf("should be >= 0"))
	}
	if c.Redis.KeyPrefix, err = dp.GetString(cfgKeyRedisKeyPrefix); err != nil {
		return err
	}
	if c.Redis.Timeout, err = dp.GetDuration(cfgKeyRedisTimeout); err != nil {
		return err
	}
	if c.Redis.Timeout <= 0 {
		return dp.WrapKeyErr(cfgKeyRedisTimeout, fmt.Errorf("should be > 0"))
	}
	return nil
}
