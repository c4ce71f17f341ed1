/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package inspect implements a maintenance tool that prints or resets a persisted evaluation cache.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/acronis/go-evalcache/config"
	"github.com/acronis/go-evalcache/evalcache"
	"github.com/acronis/go-evalcache/internal/libinfo"
	"github.com/acronis/go-evalcache/log"
	"github.com/acronis/go-evalcache/storage"
	"github.com/acronis/go-evalcache/storage/backends"
)

// EnvVarsPrefix is the prefix of environment variables that override configuration values
// (e.g. EVALCACHE_STORAGE_TYPE).
const EnvVarsPrefix = "EVALCACHE"

// Config holds command line options of the tool.
type Config struct {
	ConfigPath   string
	OutputFormat config.DataType
	UserID       *string // nil when -user is not passed; "" selects the user with an empty identifier
	LoggedOut    bool
	Reset        bool
	Timeout      time.Duration
}

// ParseConfig parses command line flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{OutputFormat: config.DataTypeYAML, Timeout: 10 * time.Second}
	var format, userID string
	fs.StringVar(&cfg.ConfigPath, "config", "", "path to YAML or JSON configuration file (storage, evalcache and log sections)")
	fs.StringVar(&format, "format", string(cfg.OutputFormat), "output format (json|yaml)")
	fs.StringVar(&userID, "user", "", "print only the snapshot of the user with this identifier")
	fs.BoolVar(&cfg.LoggedOut, "logged-out", false, "print only the snapshot of the logged-out user")
	fs.BoolVar(&cfg.Reset, "reset", false, "remove the persisted cache instead of printing it")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "user" {
			cfg.UserID = &userID
		}
	})

	switch config.DataType(strings.ToLower(format)) {
	case config.DataTypeJSON:
		cfg.OutputFormat = config.DataTypeJSON
	case config.DataTypeYAML:
		cfg.OutputFormat = config.DataTypeYAML
	default:
		return Config{}, fmt.Errorf("unknown output format %q", format)
	}
	if cfg.UserID != nil && cfg.LoggedOut {
		return Config{}, errors.New("-user cannot be combined with -logged-out")
	}
	if cfg.Reset && (cfg.UserID != nil || cfg.LoggedOut) {
		return Config{}, errors.New("-reset cannot be combined with -user or -logged-out")
	}
	return cfg, nil
}

// Report describes a persisted evaluation cache.
type Report struct {
	Version     string       `json:"version" yaml:"version"`
	StorageType string       `json:"storageType" yaml:"storageType"`
	StorageKey  string       `json:"storageKey" yaml:"storageKey"`
	Users       []UserReport `json:"users" yaml:"users"`
}

// UserReport describes the snapshot of a single user. Names are printed as delivered by the server.
type UserReport struct {
	UserKey string   `json:"userKey" yaml:"userKey"`
	Gates   []string `json:"gates" yaml:"gates"`
	Configs []string `json:"configs" yaml:"configs"`
	Layers  []string `json:"layers" yaml:"layers"`
}

// Run loads configuration, opens the persisted cache and prints a report or resets it.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	cacheCfg := evalcache.NewConfig("")
	storageCfg := storage.NewConfig("")
	logCfg := log.NewConfig("")
	if err := loadConfigs(cfg.ConfigPath, cacheCfg, storageCfg, logCfg); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if logCfg.Output == log.OutputStdout {
		logCfg.Output = log.OutputStderr // stdout is reserved for the report
	}
	logger, closeLogger := log.NewLogger(logCfg)
	defer closeLogger()

	st, err := backends.Open(storageCfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", storageCfg.Type, err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Warn("failed to close storage", log.Error(closeErr))
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	store, err := evalcache.New(st, cacheCfg.StoreOptions(logger, nil))
	if err != nil {
		return err
	}
	if cfg.Reset {
		if err = store.Reset(); err != nil {
			return err
		}
		_, err = fmt.Fprintf(errOut, "removed %q from %s storage\n", cacheCfg.StorageKey, storageCfg.Type)
		return err
	}
	if err = store.Load(); err != nil {
		return err
	}

	report := buildReport(store, cfg)
	report.Version = libinfo.GetLibVersion()
	report.StorageType = string(storageCfg.Type)
	report.StorageKey = cacheCfg.StorageKey
	return writeReport(out, cfg.OutputFormat, report)
}

func loadConfigs(path string, cfgs ...config.Config) error {
	loader := config.NewDefaultLoader(EnvVarsPrefix)
	if path == "" {
		return loader.Load(cfgs[0], cfgs[1:]...)
	}
	return loader.LoadFromPath(path, cfgs[0], cfgs[1:]...)
}

func buildReport(store *evalcache.Store, cfg Config) Report {
	var users []evalcache.User
	switch {
	case cfg.UserID != nil:
		users = []evalcache.User{evalcache.NewUser(*cfg.UserID)}
	case cfg.LoggedOut:
		users = []evalcache.User{evalcache.LoggedOutUser()}
	default:
		for _, userKey := range store.UserKeys() {
			users = append(users, evalcache.NewUser(userKey))
		}
	}

	report := Report{Users: make([]UserReport, 0, len(users))}
	for _, user := range users {
		vs, ok := store.Get(user)
		if !ok {
			continue
		}
		report.Users = append(report.Users, UserReport{
			UserKey: user.Key(),
			Gates:   vs.GateNames(),
			Configs: vs.ConfigNames(),
			Layers:  vs.LayerNames(),
		})
	}
	return report
}

func writeReport(out io.Writer, format config.DataType, report Report) error {
	if format == config.DataTypeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
