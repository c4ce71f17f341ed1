/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ViperAdapter is a Source backed by viper. Values are converted with cast,
// so "30s" and 30000000000 are both valid durations.
type ViperAdapter struct {
	viper *viper.Viper
}

var _ Source = (*ViperAdapter)(nil)

// NewViperAdapter creates a new ViperAdapter.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{viper.New()}
}

// UseEnvVars makes environment variables override file values.
// With prefix "evalcache" the key "storage.redis.addr" is read from EVALCACHE_STORAGE_REDIS_ADDR.
func (va *ViperAdapter) UseEnvVars(prefix string) {
	va.viper.AutomaticEnv()
	va.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	va.viper.SetEnvPrefix(prefix)
}

// SetDefault registers the value used when neither the file nor the environment has the key.
func (va *ViperAdapter) SetDefault(key string, value interface{}) {
	va.viper.SetDefault(key, value)
}

// ReadFile reads configuration from the file at path.
func (va *ViperAdapter) ReadFile(path string, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	va.viper.SetConfigFile(path)
	return va.viper.ReadInConfig()
}

// Read reads configuration from reader.
func (va *ViperAdapter) Read(reader io.Reader, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadConfig(reader)
}

// GetInt implements DataProvider.
func (va *ViperAdapter) GetInt(key string) (int, error) {
	res, err := cast.ToIntE(va.viper.Get(key))
	return res, wrapKeyErrIfNeeded(key, err)
}

// GetString implements DataProvider.
func (va *ViperAdapter) GetString(key string) (string, error) {
	res, err := cast.ToStringE(va.viper.Get(key))
	return res, wrapKeyErrIfNeeded(key, err)
}

// GetBool implements DataProvider.
func (va *ViperAdapter) GetBool(key string) (bool, error) {
	res, err := cast.ToBoolE(va.viper.Get(key))
	return res, wrapKeyErrIfNeeded(key, err)
}

// GetStringFromSet returns the string value only if it is one of set.
func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	str, err := va.GetString(key)
	if err != nil {
		return "", err
	}
	for _, s := range set {
		if str == s || (ignoreCase && strings.EqualFold(str, s)) {
			return str, nil
		}
	}
	return "", WrapKeyErr(key, fmt.Errorf("unknown value %q, should be one of %v", str, set))
}

// GetDuration implements DataProvider.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	val := va.viper.Get(key)
	if val == nil {
		return 0, nil
	}
	res, err := cast.ToDurationE(val)
	return res, wrapKeyErrIfNeeded(key, err)
}

// GetBytesCount accepts integers and human-readable sizes ("250M", "1Gi").
func (va *ViperAdapter) GetBytesCount(key string) (BytesCount, error) {
	val := va.viper.Get(key)
	if val == nil {
		return 0, nil
	}
	if s, ok := val.(string); ok {
		num, err := parseBytesCount(s)
		return num, wrapKeyErrIfNeeded(key, err)
	}
	num, err := cast.ToInt64E(val)
	if err != nil {
		return 0, WrapKeyErr(key, fmt.Errorf("unsupported type for bytes count: %T", val))
	}
	if num < 0 {
		return 0, WrapKeyErr(key, fmt.Errorf("negative value is not allowed: %d", num))
	}
	return BytesCount(num), nil
}

// WrapKeyErr implements DataProvider.
func (va *ViperAdapter) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(key, err)
}
