// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/casauth/internal/xdg"
)

// Environment fallbacks, read only when neither the file nor a flag sets
// the key.
const (
	DatabaseURLEnv     = "DATABASE_URL"
	RegistrationURLEnv = "REGISTRATION_BASE_URL"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"database-url":     "database.url",
	"db-min-conns":     "database.pool.min_conns",
	"db-max-conns":     "database.pool.max_conns",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"grpc-addr":        "server.grpc_addr",
	"metrics-addr":     "server.metrics_addr",
	"registration-url": "registration.base_url",
}

// Source records where the loaded config came from.
type Source struct {
	// File is the config file that was read, or "" when none was.
	File string
}

// Load builds a Config. path names the YAML file; when it is empty the XDG
// default is used if it exists. Only flags the user actually set override
// file values. DATABASE_URL and REGISTRATION_BASE_URL fill their keys
// when nothing else did. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, Source, error) {
	k := koanf.New(".")
	var src Source

	filePath, required := path, path != ""
	if filePath == "" {
		if def, err := xdg.ConfigFile(); err == nil {
			filePath = def
		}
	}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := ValidateYAML(data); err != nil {
				return nil, src, oops.With("file", filePath).Wrap(err)
			}
			if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
				return nil, src, oops.Code("CONFIG_LOAD_FAILED").With("file", filePath).Wrap(err)
			}
			src.File = filePath
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, src, oops.Code("CONFIG_LOAD_FAILED").With("file", filePath).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, src, oops.Code("CONFIG_LOAD_FAILED").With("operation", "load flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, src, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(DatabaseURLEnv)
	}
	if !k.Exists("registration.base_url") {
		if v := os.Getenv(RegistrationURLEnv); v != "" {
			cfg.Registration.BaseURL = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, src, err
	}
	return &cfg, src, nil
}
