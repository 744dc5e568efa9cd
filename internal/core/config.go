package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

const EnvPrefix = "LOGDEST_"

// Flags are the global flags shared by all commands.
type Flags struct {
	LogLevel       string
	ConfigFilePath string
}

type ConfigFile struct {
	WorkDir    string            `yaml:"work_dir"`
	ExpandHome bool              `yaml:"expand_home"`
	Macros     map[string]string `yaml:"macros"`
	Outputs    []Output          `yaml:"outputs"`
}

// Output is a named artifact destination. Path is a directory or file
// specifier and DefaultFilename is used when Path names a directory.
type Output struct {
	Name            string   `yaml:"name"`
	Path            string   `yaml:"path"`
	DefaultFilename string   `yaml:"default_filename"`
	Tags            []string `yaml:"tags"`
}

func LoadConfig(cfgpath string) (ConfigFile, error) {
	cfg := ConfigFile{}

	absolutePath, err := filepath.Abs(cfgpath)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(absolutePath)
	if err != nil {
		return cfg, err
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", cfgpath, err)
	}

	// Resolve work_dir relative to config directory
	if cfg.WorkDir != "" && !filepath.IsAbs(cfg.WorkDir) {
		cfg.WorkDir = filepath.Join(filepath.Dir(absolutePath), cfg.WorkDir)
	}

	log.Debug().
		Str("config", absolutePath).
		Str("work_dir", cfg.WorkDir).
		Int("outputs", len(cfg.Outputs)).
		Msg("loaded config")

	return cfg, nil
}

// Validate checks that every output is named uniquely and has a path. All
// problems are reported together.
func (c ConfigFile) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Outputs))

	for i, out := range c.Outputs {
		switch {
		case out.Name == "":
			errs = append(errs, fmt.Errorf("outputs[%d]: name is required", i))
		case seen[out.Name]:
			errs = append(errs, fmt.Errorf("outputs[%d]: duplicate name %q", i, out.Name))
		}
		seen[out.Name] = true

		if out.Path == "" {
			errs = append(errs, fmt.Errorf("outputs[%d]: path is required", i))
		}
	}

	return errors.Join(errs...)
}

// Resolver returns a PathResolver rooted at work_dir, or at the process
// working directory when work_dir is unset.
func (c ConfigFile) Resolver() (PathResolver, error) {
	pr := NewPathResolver(c.WorkDir)
	if c.WorkDir == "" {
		var err error
		pr, err = PathResolverFromCwd()
		if err != nil {
			return pr, err
		}
	}

	pr.ExpandHome = c.ExpandHome
	return pr, nil
}

// Lookup returns the output with the given name.
func (c ConfigFile) Lookup(name string) (Output, bool) {
	for _, out := range c.Outputs {
		if out.Name == name {
			return out, true
		}
	}

	return Output{}, false
}
