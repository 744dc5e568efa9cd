package commands

import (
	"context"
	"fmt"

	"github.com/hay-kot/logdest/internal/core"
	"github.com/hay-kot/logdest/pkgs/printer"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type CheckCmd struct {
	coreFlags *core.Flags
}

func NewCheckCmd(coreFlags *core.Flags) *CheckCmd {
	return &CheckCmd{
		coreFlags: coreFlags,
	}
}

func (cc *CheckCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:  "check",
		Usage: "Validate the configuration and make sure every output resolves",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, pr, err := loadConfig(cc.coreFlags.ConfigFilePath)
			if err != nil {
				return err
			}

			return cc.run(ctx, cfg, pr)
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (cc *CheckCmd) run(ctx context.Context, cfg core.ConfigFile, pr core.PathResolver) error {
	resolved := resolveOutputs(pr, cfg.Outputs)

	failed := 0
	items := make([]printer.StatusListItem, 0, len(resolved))
	for _, r := range resolved {
		item := printer.StatusListItem{
			Ok:     r.Err == nil,
			Status: fmt.Sprintf("%s (%s)", r.Name, r.Kind),
			Detail: r.Dest,
		}
		if r.Err != nil {
			failed++
			item.Detail = r.Err.Error()
		}
		items = append(items, item)
	}

	printer.Ctx(ctx).StatusList(fmt.Sprintf("Checked %d outputs", len(resolved)), items)

	log.Debug().Int("outputs", len(resolved)).Int("failed", failed).Msg("check complete")

	if failed > 0 {
		return fmt.Errorf("%d of %d outputs failed to resolve", failed, len(resolved))
	}

	return nil
}
