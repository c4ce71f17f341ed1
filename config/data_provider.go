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
)

// DataType is a type of data format in which configuration may be described.
type DataType string

// Supported data formats.
const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// DataProvider is what configuration sections read their typed values from.
// A missing key yields the zero value (or the registered default) without an error.
type DataProvider interface {
	SetDefault(key string, value interface{})

	GetBool(key string) (bool, error)
	GetInt(key string) (int, error)
	GetString(key string) (string, error)
	GetStringFromSet(key string, set []string, ignoreCase bool) (string, error)
	GetDuration(key string) (time.Duration, error)
	GetBytesCount(key string) (BytesCount, error)

	WrapKeyErr(key string, err error) error
}

// Source is a DataProvider that is filled from a configuration file or a reader.
type Source interface {
	DataProvider
	ReadFile(path string, dataType DataType) error
	Read(reader io.Reader, dataType DataType) error
}

// WrapKeyErr wraps error adding information about a key where this error occurs.
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}

func wrapKeyErrIfNeeded(key string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKeyErr(key, err)
}

// WithKeyPrefix returns a DataProvider that resolves every key under the prefix,
// so "maxUsers" read through WithKeyPrefix(dp, "evalcache") is "evalcache.maxUsers".
func WithKeyPrefix(dp DataProvider, prefix string) DataProvider {
	if prefix == "" {
		return dp
	}
	return &prefixedProvider{dp: dp, prefix: prefix}
}

type prefixedProvider struct {
	dp     DataProvider
	prefix string
}

func (p *prefixedProvider) key(key string) string {
	return strings.Trim(p.prefix+"."+key, ".")
}

func (p *prefixedProvider) SetDefault(key string, value interface{}) {
	p.dp.SetDefault(p.key(key), value)
}

func (p *prefixedProvider) GetBool(key string) (bool, error) { return p.dp.GetBool(p.key(key)) }

func (p *prefixedProvider) GetInt(key string) (int, error) { return p.dp.GetInt(p.key(key)) }

func (p *prefixedProvider) GetString(key string) (string, error) { return p.dp.GetString(p.key(key)) }

func (p *prefixedProvider) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	return p.dp.GetStringFromSet(p.key(key), set, ignoreCase)
}

func (p *prefixedProvider) GetDuration(key string) (time.Duration, error) {
	return p.dp.GetDuration(p.key(key))
}

func (p *prefixedProvider) GetBytesCount(key string) (BytesCount, error) {
	return p.dp.GetBytesCount(p.key(key))
}

func (p *prefixedProvider) WrapKeyErr(key string, err error) error {
	return p.dp.WrapKeyErr(p.key(key), err)
}
