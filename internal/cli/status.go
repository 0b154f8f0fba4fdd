package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/state"
	"github.com/klauern/agentsync/internal/ui"
)

// statusReport is the JSON form of one scope's status.
type statusReport struct {
	Scope      model.Scope               `json:"scope"`
	Root       string                    `json:"root"`
	Config     string                    `json:"config,omitempty"`
	Plugins    int                       `json:"plugins"`
	Clients    []string                  `json:"clients,omitempty"`
	Synced     bool                      `json:"synced"`
	LastSync   *time.Time                `json:"lastSync,omitempty"`
	Files      map[model.Client][]string `json:"files,omitempty"`
	MCPServers []string                  `json:"mcpServers,omitempty"`
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the configuration and what the last sync produced",
		Flags: []cli.Flag{
			scopeFlag(),
			rootFlag(),
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the status as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			targets, err := resolveTargets(cmd, false)
			if err != nil {
				return err
			}

			reports := make([]statusReport, 0, len(targets))
			for _, t := range targets {
				report, err := buildStatus(t)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			}

			if cmd.Bool("json") {
				return printJSON(reports)
			}
			for _, r := range reports {
				printStatus(r)
			}
			return nil
		},
	}
}

func buildStatus(t target) (statusReport, error) {
	r := statusReport{Scope: t.scope, Root: t.root}
	if t.cfg != nil {
		r.Config = t.cfg.Path
		r.Plugins = len(t.cfg.Plugins)
		for _, c := range t.cfg.ClientList() {
			r.Clients = append(r.Clients, string(c))
		}
	}

	store := state.StoreFor(t.root, t.scope)
	if !store.Exists() {
		return r, nil
	}
	st, err := store.Load()
	if err != nil {
		return r, fmt.Errorf("failed to read sync state: %w", err)
	}
	r.Synced = true
	if !st.LastSync.IsZero() {
		last := st.LastSync
		r.LastSync = &last
	}
	r.Files = st.Files
	r.MCPServers = st.Servers(t.scope)
	return r, nil
}

func printStatus(r statusReport) {
	config := r.Config
	if config == "" {
		config = ui.Dim("none")
	}
	rows := []ui.Row{
		{Label: "Root", Value: r.Root},
		{Label: "Config", Value: config},
		{Label: "Plugins", Value: strconv.Itoa(r.Plugins)},
	}
	if len(r.Clients) > 0 {
		rows = append(rows, ui.Row{Label: "Clients", Value: strings.Join(r.Clients, ", ")})
	}

	if !r.Synced {
		rows = append(rows, ui.Row{Label: "Last sync", Value: ui.Dim("never")})
		fmt.Print(ui.Panel(ui.Title(string(r.Scope)+" scope"), rows))
		return
	}
	last := ui.Dim("unknown")
	if r.LastSync != nil {
		last = r.LastSync.Local().Format(time.RFC3339)
	}
	rows = append(rows, ui.Row{Label: "Last sync", Value: last})
	for _, c := range sortedClients(r.Files) {
		rows = append(rows, ui.Row{Label: string(c), Value: fmt.Sprintf("%d path(s)", len(r.Files[c]))})
	}
	if len(r.MCPServers) > 0 {
		rows = append(rows, ui.Row{Label: "MCP servers", Value: strings.Join(r.MCPServers, ", ")})
	}
	fmt.Print(ui.Panel(ui.Title(string(r.Scope)+" scope"), rows))
}

func sortedClients(files map[model.Client][]string) []model.Client {
	st := state.State{Files: files}
	return st.Clients()
}
