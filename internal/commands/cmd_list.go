package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/hay-kot/logdest/internal/core"
	"github.com/hay-kot/logdest/pkgs/printer"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

type ListCmd struct {
	coreFlags *core.Flags
	flags     struct {
		Interactive bool
		Plain       bool
	}
	expr string
}

func NewListCmd(coreFlags *core.Flags) *ListCmd {
	return &ListCmd{
		coreFlags: coreFlags,
	}
}

func (lc *ListCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "list",
		Usage:     "Resolve the outputs defined in the logdest.yml configuration",
		ArgsUsage: "[expression]",
		Description: `Resolve every output in your logdest.yml configuration file and print
 where each artifact will be written. Outputs can be filtered using
 expressions or selected interactively.

 Examples:
	 logdest list                                 # All outputs
	 logdest list +selenium                       # Outputs tagged with 'selenium'
	 logdest list '!wdio kind == "file"'          # File outputs not tagged 'wdio'
	 logdest list 'name == "report"'              # A single output by name
	 logdest list @ci                             # Outputs matching the 'ci' macro
	 logdest list --interactive                   # Pick outputs from a list

 Expression variables:
	 - name: Output name
	 - path: Configured specifier
	 - kind: "file" or "directory"
	 - tags: Array of tags
	 - resolved: Resolved path`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "interactive",
				Aliases:     []string{"i"},
				Usage:       "select outputs interactively",
				Destination: &lc.flags.Interactive,
			},
			&cli.BoolFlag{
				Name:        "plain",
				Aliases:     []string{"p"},
				Usage:       "print tab separated name and path without styling",
				Destination: &lc.flags.Plain,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, pr, err := loadConfig(lc.coreFlags.ConfigFilePath)
			if err != nil {
				return err
			}

			lc.expr = strings.Join(c.Args().Slice(), " ")

			log.Debug().
				Bool("interactive", lc.flags.Interactive).
				Bool("plain", lc.flags.Plain).
				Str("expr", lc.expr).
				Msg("list cmd")

			return lc.run(ctx, c.Root().Writer, cfg, pr)
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (lc *ListCmd) run(ctx context.Context, w io.Writer, cfg core.ConfigFile, pr core.PathResolver) error {
	all := resolveOutputs(pr, cfg.Outputs)

	var (
		selected []Resolved
		err      error
	)

	if lc.flags.Interactive {
		if lc.expr != "" {
			return errors.New("cannot use an expression together with --interactive")
		}
		selected, err = selectOutputs(all)
	} else {
		selected, err = filterOutputs(all, lc.expr, cfg.Macros)
	}
	if err != nil {
		return err
	}

	if len(selected) == 0 {
		log.Debug().Str("expr", lc.expr).Msg("no outputs matching selector found")
		return nil
	}

	if lc.flags.Plain {
		return writePlain(w, selected)
	}

	items := make([]printer.StatusListItem, 0, len(selected))
	for _, r := range selected {
		item := printer.StatusListItem{Ok: r.Err == nil, Status: r.Name, Detail: r.Dest}
		if r.Err != nil {
			item.Detail = r.Err.Error()
		}
		items = append(items, item)
	}

	printer.Ctx(ctx).StatusList("Outputs", items)
	return nil
}

// filterOutputs returns the outputs matching the expression. Outputs that
// failed to resolve are still matched on their name, path and tags.
func filterOutputs(all []Resolved, code string, macros map[string]string) ([]Resolved, error) {
	program, err := compileExpr(code, macros)
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	var matched []Resolved
	for _, r := range all {
		ok, err := evalCompiledExpr(program, r.env())
		if err != nil {
			return nil, fmt.Errorf("expression evaluation failed for output %s: %w", r.Name, err)
		}

		if ok {
			matched = append(matched, r)
			continue
		}
		log.Debug().Str("output", r.Name).Strs("tags", r.Tags).Msg("filtered")
	}

	return matched, nil
}

func selectOutputs(all []Resolved) ([]Resolved, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("--interactive requires a terminal")
	}

	if len(all) == 0 {
		return nil, nil
	}

	byName := make(map[string]Resolved, len(all))
	options := make([]huh.Option[string], 0, len(all))
	for _, r := range all {
		byName[r.Name] = r
		options = append(options, huh.NewOption(r.Name, r.Name))
	}

	var picked []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Outputs").
				Options(options...).
				Value(&picked),
		),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}

	selected := make([]Resolved, 0, len(picked))
	for _, name := range picked {
		selected = append(selected, byName[name])
	}

	return selected, nil
}

func writePlain(w io.Writer, outputs []Resolved) error {
	for _, r := range outputs {
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("output", r.Name).Msg("skipping unresolved output")
			continue
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Dest); err != nil {
			return err
		}
	}

	return nil
}
