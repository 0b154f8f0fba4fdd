package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/ui"
)

func clientsCommand() *cli.Command {
	return &cli.Command{
		Name:  "clients",
		Usage: "List supported clients and where each content kind is written",
		Flags: []cli.Flag{
			scopeFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the mappings as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			scopes, err := parseScopes(cmd.String("scope"))
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				out := make(map[model.Scope]model.MappingTable, len(scopes))
				for _, s := range scopes {
					out[s] = model.Mappings(s)
				}
				return printJSON(out)
			}

			for _, s := range scopes {
				fmt.Println(ui.Header(ui.Title(string(s)+" scope")) + " " + ui.Dim(s.Description()))
				table := model.Mappings(s)
				for _, c := range model.AllClients() {
					m, ok := table.Lookup(c)
					if !ok {
						continue
					}
					fmt.Print(ui.Panel(string(c), mappingRows(m)))
				}
			}
			return nil
		},
	}
}

func mappingRows(m model.ClientMapping) []ui.Row {
	agentFile := m.AgentFile
	if m.AgentFileFallback != "" {
		agentFile += " (or " + m.AgentFileFallback + ")"
	}
	candidates := []ui.Row{
		{Label: "skills", Value: m.SkillsPath},
		{Label: "commands", Value: m.CommandsPath},
		{Label: "agents", Value: m.AgentsPath},
		{Label: "hooks", Value: m.HooksPath},
		{Label: "github", Value: m.GithubPath},
		{Label: "agent file", Value: agentFile},
	}
	rows := make([]ui.Row, 0, len(candidates))
	for _, r := range candidates {
		if r.Value != "" {
			rows = append(rows, r)
		}
	}
	return rows
}
