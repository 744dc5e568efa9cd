package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/hay-kot/logdest/internal/core"
	"github.com/hay-kot/logdest/pkgs/printer"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type ResolveCmd struct {
	coreFlags *core.Flags
	flags     struct {
		DefaultFilename string
		WorkDir         string
		Output          string
		ExpandHome      bool
		Explain         bool
	}
}

func NewResolveCmd(coreFlags *core.Flags) *ResolveCmd {
	return &ResolveCmd{
		coreFlags: coreFlags,
	}
}

func (rc *ResolveCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a directory or file specifier to the path an artifact is written to",
		ArgsUsage: "<specifier>",
		Description: `Resolve a specifier into a single output path.

 A specifier whose final segment contains a '.' names a file and is used as
 is. Anything else names a directory and the default filename is placed
 inside it. Relative specifiers are joined onto the working directory.

 Examples:
	 logdest resolve -f selenium.txt ./log        # $PWD/log/selenium.txt
	 logdest resolve -f selenium.txt /var/log/    # /var/log/selenium.txt
	 logdest resolve -f selenium.txt run.log      # $PWD/run.log
	 logdest resolve --output selenium            # resolve a configured output`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "default-filename",
				Aliases:     []string{"f"},
				Usage:       "filename used when the specifier names a directory",
				Sources:     envvars("DEFAULT_FILENAME"),
				Destination: &rc.flags.DefaultFilename,
			},
			&cli.StringFlag{
				Name:        "work-dir",
				Aliases:     []string{"w"},
				Usage:       "directory relative specifiers are resolved against, overriding work_dir from the config (default: current directory)",
				Sources:     envvars("WORK_DIR"),
				Destination: &rc.flags.WorkDir,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "resolve the named output from the config file instead of a specifier",
				Destination: &rc.flags.Output,
			},
			&cli.BoolFlag{
				Name:        "expand-home",
				Usage:       "expand a leading '~' to the user's home directory",
				Destination: &rc.flags.ExpandHome,
			},
			&cli.BoolFlag{
				Name:        "explain",
				Usage:       "show how the specifier was classified",
				Destination: &rc.flags.Explain,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			specifier := c.Args().First()

			log.Debug().
				Str("specifier", specifier).
				Str("default-filename", rc.flags.DefaultFilename).
				Str("work-dir", rc.flags.WorkDir).
				Str("output", rc.flags.Output).
				Msg("resolve cmd")

			res, err := rc.resolve(specifier)
			if err != nil {
				return err
			}

			return rc.print(ctx, c.Root().Writer, res)
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (rc *ResolveCmd) resolve(specifier string) (core.Resolution, error) {
	var (
		pr       core.PathResolver
		filename = rc.flags.DefaultFilename
		err      error
	)

	switch {
	case rc.flags.Output != "":
		if specifier != "" {
			return core.Resolution{}, fmt.Errorf("cannot use a specifier together with --output")
		}

		var cfg core.ConfigFile
		cfg, pr, err = loadConfig(rc.coreFlags.ConfigFilePath)
		if err != nil {
			return core.Resolution{}, err
		}

		out, ok := cfg.Lookup(rc.flags.Output)
		if !ok {
			return core.Resolution{}, fmt.Errorf("output %q not found in %s", rc.flags.Output, rc.coreFlags.ConfigFilePath)
		}

		specifier = out.Path
		if out.DefaultFilename != "" {
			filename = out.DefaultFilename
		}

		// --work-dir overrides work_dir from the config
		if rc.flags.WorkDir != "" {
			expandHome := pr.ExpandHome
			pr = core.NewPathResolver(rc.flags.WorkDir)
			pr.ExpandHome = expandHome
		}
	case specifier == "":
		return core.Resolution{}, fmt.Errorf("%w: specifier argument is required", core.ErrInvalidSpecifier)
	case rc.flags.WorkDir != "":
		pr = core.NewPathResolver(rc.flags.WorkDir)
	default:
		pr, err = core.PathResolverFromCwd()
		if err != nil {
			return core.Resolution{}, err
		}
	}

	if rc.flags.ExpandHome {
		pr.ExpandHome = true
	}

	return pr.Explain(specifier, filename)
}

func (rc *ResolveCmd) print(ctx context.Context, w io.Writer, res core.Resolution) error {
	if !rc.flags.Explain {
		_, err := fmt.Fprintln(w, res.Path)
		return err
	}

	printer.Ctx(ctx).KeyValues("Resolution", []printer.KeyValue{
		{Key: "specifier", Value: res.Specifier},
		{Key: "kind", Value: string(res.Kind)},
		{Key: "absolute", Value: strconv.FormatBool(res.Absolute)},
		{Key: "path", Value: res.Path},
	})

	return nil
}
