package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentsync/internal/sync"
	"github.com/klauern/agentsync/internal/ui"
)

func purgeCommand() *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Remove everything agentsync synchronized",
		UsageText: `agentsync purge [options]

   By default only the paths recorded by the last sync are removed. With --all
   every configured client's skills, commands, agents and hooks directories and
   agent file are removed, optionally after writing a snapshot.

   Examples:
     agentsync purge
     agentsync purge --dry-run
     agentsync purge --all --snapshot`,
		Flags: []cli.Flag{
			scopeFlag(),
			rootFlag(),
			configFlag(),
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Remove each configured client's whole footprint, not just synced paths",
			},
			&cli.BoolFlag{
				Name:  "snapshot",
				Usage: "Archive the footprint before removing it (requires --all)",
			},
			&cli.StringFlag{
				Name:  "backup-dir",
				Usage: "Directory for snapshots (default: ~/.agentsync/backups)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "List what would be removed without removing it",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			hard := cmd.Bool("all")
			if cmd.Bool("snapshot") && !hard {
				return errors.New("--snapshot requires --all")
			}
			targets, err := resolveTargets(cmd, hard)
			if err != nil {
				return err
			}

			syncer := sync.New(true)
			asJSON := cmd.Bool("json")
			var results []*sync.SyncResult
			var errs []error
			for _, t := range targets {
				if ctx.Err() != nil {
					errs = append(errs, ctx.Err())
					break
				}
				res, err := syncer.Purge(ctx, t.cfg, sync.PurgeOptions{
					Root:      t.root,
					Scope:     t.scope,
					Hard:      hard,
					Snapshot:  cmd.Bool("snapshot"),
					BackupDir: cmd.String("backup-dir"),
					DryRun:    cmd.Bool("dry-run"),
				})
				if res != nil {
					results = append(results, res)
					if !asJSON {
						printPurge(res)
					}
				}
				if err != nil {
					if len(targets) > 1 {
						err = fmt.Errorf("%s scope: %w", t.scope, err)
					}
					errs = append(errs, err)
				}
			}
			if asJSON {
				if err := printJSON(sync.MergeResults(results...)); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}
}

func printPurge(res *sync.SyncResult) {
	fmt.Println(scopeHeading(res))
	if len(res.PurgedPaths) == 0 {
		fmt.Println("  " + ui.Dim("nothing to purge"))
	}
	printPurged(res)
	printWarnings(res)
	if res.Snapshot != "" {
		fmt.Println(ui.StatusSuccess("snapshot written to " + res.Snapshot))
	}
}
