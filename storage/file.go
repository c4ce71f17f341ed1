/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/acronis/go-evalcache/config"
	"github.com/acronis/go-evalcache/payload"
)

// File is a Storage that keeps all blobs in a single preference document on disk.
// The document is an object where each storage key maps to its blob.
// It is rewritten atomically (temporary file and rename) on every change.
type File struct {
	path   string
	format config.DataType
	mu     sync.Mutex
}

var _ Storage = (*File)(nil)

// NewFile creates a new File storage. Format must be either config.DataTypeJSON or config.DataTypeYAML.
func NewFile(path string, format config.DataType) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("file path is required")
	}
	switch format {
	case config.DataTypeJSON, config.DataTypeYAML:
	default:
		return nil, fmt.Errorf("unsupported file format %q", format)
	}
	return &File{path: filepath.Clean(path), format: format}, nil
}

// Path returns the path of the preference document.
func (f *File) Path() string {
	return f.path
}

// Load implements Storage.
func (f *File) Load(key string) (payload.Value, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return payload.Value{}, false, err
	}
	blob, ok := doc[key]
	return blob, ok, nil
}

// Save implements Storage.
// A document that cannot be parsed is replaced, since its content cannot be recovered anyway.
func (f *File) Save(key string, blob payload.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		doc = make(map[string]payload.Value)
	}
	doc[key] = blob
	return f.write(doc)
}

// Remove implements Storage.
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.write(doc)
}

// Close implements Storage.
func (f *File) Close() error {
	return nil
}

func (f *File) read() (map[string]payload.Value, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]payload.Value), nil
		}
		return nil, fmt.Errorf("read preference file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(map[string]payload.Value), nil
	}

	var doc payload.Value
	if f.format == config.DataTypeYAML {
		doc, err = payload.ParseYAML(data)
	} else {
		doc, err = payload.ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse preference file %s: %w", f.path, err)
	}
	fields, ok := doc.AsObject()
	if !ok {
		return nil, fmt.Errorf("parse preference file %s: top-level %s instead of object", f.path, doc.Kind())
	}
	return fields, nil
}

func (f *File) write(doc map[string]payload.Value) error {
	var data []byte
	var err error
	if f.format == config.DataTypeYAML {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode preference file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create preference dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary preference file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write preference file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync preference file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close preference file: %w", err)
	}
	if err = os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("replace preference file: %w", err)
	}
	return nil
}
