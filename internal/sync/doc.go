// Package sync reconciles a workspace configuration against the directories
// of its configured clients.
//
// A run is purge-then-rebuild and proceeds in fixed stages:
//
//  1. Every plugin source is resolved. If any source fails the run stops
//     before the target tree is touched.
//  2. Marketplace sources are pre-registered.
//  3. Skills are collected from every plugin and named across all of them
//     (see package naming). No copy starts before naming finishes.
//  4. Clients sharing an output path are grouped so each path is written
//     once (see package clients).
//  5. Content is materialized per plugin and per kind. Items of one kind are
//     copied concurrently and joined before the next kind starts.
//  6. MCP servers are merged into the workspace .mcp.json.
//  7. Paths the previous run produced that this run did not are purged.
//  8. The new state is saved.
//
// A dry run executes the same planning and comparison steps with every
// write suppressed and never saves state:
//
//	res, err := syncer.Sync(ctx, cfg, sync.Options{Root: root, DryRun: true})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Summary())
package sync
