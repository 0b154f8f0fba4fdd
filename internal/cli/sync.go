package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentsync/internal/progress"
	"github.com/klauern/agentsync/internal/sync"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Materialize configured plugins into every configured client",
		UsageText: `agentsync sync [options]

   Resolves every plugin in the workspace config, copies its skills, commands,
   agents and hooks into each client's directories, writes workspace files and
   the rules block, and removes whatever the previous sync produced that is no
   longer wanted.

   Examples:
     agentsync sync
     agentsync sync --dry-run
     agentsync sync --scope user
     agentsync sync --scope all --json`,
		Flags: []cli.Flag{
			scopeFlag(),
			rootFlag(),
			configFlag(),
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Show what would change without writing anything",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Use cached remote plugins only; never clone or fetch",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Value: sync.DefaultConcurrency,
				Usage: "Maximum parallel copies per batch",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			targets, err := resolveTargets(cmd, true)
			if err != nil {
				return err
			}

			syncer := sync.New(cmd.Bool("offline"))
			asJSON := cmd.Bool("json")
			results := make([]*sync.SyncResult, 0, len(targets))
			// Scopes are independent: an aborted scope does not stop the next.
			var errs []error
			for _, t := range targets {
				if ctx.Err() != nil {
					errs = append(errs, ctx.Err())
					break
				}
				res, err := runSync(ctx, cmd, syncer, t)
				if res != nil {
					results = append(results, res)
					if !asJSON {
						printResult(res, cmd.Bool("verbose"))
					}
				}
				if err != nil {
					if len(targets) > 1 {
						err = fmt.Errorf("%s scope: %w", t.scope, err)
					}
					errs = append(errs, err)
				}
			}
			runErr := errors.Join(errs...)

			merged := sync.MergeResults(results...)
			switch {
			case asJSON && len(results) == 1:
				if err := printJSON(results[0]); err != nil {
					return err
				}
			case asJSON:
				if err := printJSON(merged); err != nil {
					return err
				}
			case len(results) > 1:
				fmt.Println(merged.Summary())
			}

			if runErr != nil {
				return runErr
			}
			if merged.ExitCode() != 0 {
				return fmt.Errorf("sync finished with %d failed unit(s)", merged.TotalFailed)
			}
			return nil
		},
	}
}

func runSync(ctx context.Context, cmd *cli.Command, syncer *sync.Syncer, t target) (*sync.SyncResult, error) {
	bar := progress.Spinner(fmt.Sprintf("syncing %s", t.scope))
	res, err := syncer.Sync(ctx, t.cfg, sync.Options{
		Root:        t.root,
		Scope:       t.scope,
		DryRun:      cmd.Bool("dry-run"),
		Concurrency: int(cmd.Int("concurrency")),
		Progress:    bar.Observe,
	})
	_ = bar.Clear()
	_ = bar.Finish()
	return res, err
}
