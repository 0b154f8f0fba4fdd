package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/sync"
	"github.com/klauern/agentsync/internal/ui"
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func scopeHeading(res *sync.SyncResult) string {
	title := ui.Title(fmt.Sprintf("%s scope", res.Scope))
	if res.DryRun {
		title += " (dry run)"
	}
	return ui.Header(title) + " " + ui.Dim(res.Root)
}

// printResult writes a human-readable report of one sync run. Skipped units
// are listed only when verbose is set.
func printResult(res *sync.SyncResult, verbose bool) {
	fmt.Println(scopeHeading(res))

	for _, pr := range res.PluginResults {
		fmt.Printf("%s %s\n", ui.Bold(pr.Plugin), ui.Dim(pr.Source))
		printUnits(pr.Results, verbose)
	}
	if len(res.Workspace) > 0 {
		fmt.Println(ui.Bold("workspace"))
		printUnits(res.Workspace, verbose)
	}
	for _, n := range res.Renamed {
		fmt.Printf("  %s %s (%s) installed as %s\n",
			ui.Info("~"), n.Original.FolderName, n.Original.PluginName, n.ResolvedName)
	}
	printPurged(res)
	printWarnings(res)

	fmt.Print(ui.Panel("Summary", summaryRows(res)))
}

func printUnits(results []model.CopyResult, verbose bool) {
	for _, r := range results {
		if r.Action == model.ActionSkipped && !verbose {
			continue
		}
		fmt.Println("  " + ui.StatusFor(r.Action, describeUnit(r)))
	}
}

func describeUnit(r model.CopyResult) string {
	target := r.Destination
	if target == "" {
		target = r.Source
	}
	msg := fmt.Sprintf("%s %s", r.Action, target)
	if r.Error != "" {
		msg += ": " + r.Error
	}
	return msg
}

func printPurged(res *sync.SyncResult) {
	verb := "purged"
	if res.DryRun {
		verb = "would purge"
	}
	for _, p := range res.PurgedPaths {
		fmt.Printf("  %s %s %s\n", ui.Warning(ui.SymbolSkipped), verb, p)
	}
}

func printWarnings(res *sync.SyncResult) {
	for _, w := range res.Warnings {
		fmt.Println(ui.StatusWarning(w))
	}
	if res.Error != "" {
		fmt.Println(ui.StatusError(res.Error))
	}
}

func summaryRows(res *sync.SyncResult) []ui.Row {
	rows := []ui.Row{
		{Label: "Copied", Value: strconv.Itoa(res.TotalCopied)},
		{Label: "Generated", Value: strconv.Itoa(res.TotalGenerated)},
		{Label: "Skipped", Value: strconv.Itoa(res.TotalSkipped)},
		{Label: "Failed", Value: strconv.Itoa(res.TotalFailed)},
		{Label: "Purged", Value: strconv.Itoa(len(res.PurgedPaths))},
	}
	if len(res.Renamed) > 0 {
		rows = append(rows, ui.Row{Label: "Renamed", Value: strconv.Itoa(len(res.Renamed))})
	}
	if len(res.MCPServers) > 0 {
		rows = append(rows, ui.Row{Label: "MCP servers", Value: strings.Join(res.MCPServers, ", ")})
	}
	if res.Snapshot != "" {
		rows = append(rows, ui.Row{Label: "Snapshot", Value: res.Snapshot})
	}
	return rows
}
