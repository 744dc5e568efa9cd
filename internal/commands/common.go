// Package commands contains the CLI commands for the application
package commands

import (
	"fmt"

	"github.com/hay-kot/logdest/internal/core"
	"github.com/hay-kot/logdest/pkgs/cll"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"
)

var envvars = cll.EnvWithPrefix(core.EnvPrefix)

// Resolved is a configured output together with the path it resolves to.
// Err is set when the output could not be resolved.
type Resolved struct {
	core.Output
	Kind core.Kind
	Dest string
	Err  error
}

// env returns the expression environment for the output.
func (r Resolved) env() map[string]any {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	return map[string]any{
		"name":     r.Name,
		"path":     r.Path,
		"kind":     string(r.Kind),
		"tags":     tags,
		"resolved": r.Dest,
	}
}

func loadConfig(cfgpath string) (core.ConfigFile, core.PathResolver, error) {
	cfg, err := core.LoadConfig(cfgpath)
	if err != nil {
		return cfg, core.PathResolver{}, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, core.PathResolver{}, fmt.Errorf("invalid config %s: %w", cfgpath, err)
	}

	pr, err := cfg.Resolver()
	if err != nil {
		return cfg, pr, err
	}

	return cfg, pr, nil
}

// resolveOutputs resolves every output concurrently. The result has the same
// order as outputs and failures are recorded per output rather than aborting.
func resolveOutputs(pr core.PathResolver, outputs []core.Output) []Resolved {
	return iter.Map(outputs, func(out *core.Output) Resolved {
		res, err := pr.Explain(out.Path, out.DefaultFilename)
		if err != nil {
			log.Debug().Err(err).Str("output", out.Name).Msg("failed to resolve output")
			return Resolved{Output: *out, Kind: core.Classify(out.Path), Err: err}
		}

		return Resolved{Output: *out, Kind: res.Kind, Dest: res.Path}
	})
}
