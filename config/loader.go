/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Loader fills configuration sections (evalcache, storage, log) from a single Source.
// Defaults of all sections are registered before any section reads its values.
type Loader struct {
	Source Source
}

// NewDefaultLoader creates a new configurations loader with an ability to read values from the environment variables.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a new configurations' loader.
func NewLoader(src Source) *Loader {
	return &Loader{src}
}

// Load sets configuration objects from defaults and from values the source already knows
// (e.g. environment variables). It is used when no configuration file is given.
func (l *Loader) Load(cfg Config, cfgs ...Config) error {
	return l.load(append([]Config{cfg}, cfgs...))
}

// LoadFromPath is like LoadFromFile, but the data type is chosen by the file extension (see DataTypeFromPath).
func (l *Loader) LoadFromPath(path string, cfg Config, cfgs ...Config) error {
	dataType, err := DataTypeFromPath(path)
	if err != nil {
		return err
	}
	return l.LoadFromFile(path, dataType, cfg, cfgs...)
}

// LoadFromFile loads configuration values from file and sets them in configuration objects.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.Source.ReadFile(path, dataType); err != nil {
		return fmt.Errorf("read %s configuration file %q: %w", dataType, path, err)
	}
	return l.load(append([]Config{cfg}, cfgs...))
}

// LoadFromReader loads configuration values from reader and sets them in configuration objects.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.Source.Read(reader, dataType); err != nil {
		return fmt.Errorf("read %s configuration: %w", dataType, err)
	}
	return l.load(append([]Config{cfg}, cfgs...))
}

// DataTypeFromPath returns DataTypeJSON for ".json" files and DataTypeYAML for ".yaml", ".yml" and files without extension.
func DataTypeFromPath(path string) (DataType, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return DataTypeJSON, nil
	case ".yaml", ".yml", "":
		return DataTypeYAML, nil
	default:
		return "", fmt.Errorf("unsupported configuration file extension %q", ext)
	}
}

func (l *Loader) load(cfgs []Config) error {
	providers := make([]DataProvider, len(cfgs))
	for i, cfg := range cfgs {
		providers[i] = l.Source
		if kp, ok := cfg.(KeyPrefixProvider); ok {
			providers[i] = WithKeyPrefix(l.Source, kp.KeyPrefix())
		}
		cfg.SetProviderDefaults(providers[i])
	}
	for i, cfg := range cfgs {
		if err := cfg.Set(providers[i]); err != nil {
			return err
		}
	}
	return nil
}
