package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/Carrieukie/spotify-mcp-server/internal/ui"
)

// toolInfo is the JSON form of `tools`.
type toolInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required,omitempty"`
}

// ListTools prints the registered tools without contacting Spotify.
func (r *Runner) ListTools(ctx context.Context, cmd *cli.Command) error {
	a, err := r.wire()
	if err != nil {
		return err
	}
	defer a.close()

	list := a.registry.Tools()
	if cmd.Bool("json") {
		infos := make([]toolInfo, 0, len(list))
		for _, t := range list {
			infos = append(infos, toolInfo{
				Name:        t.Definition.Name,
				Description: t.Definition.Description,
				Required:    t.Definition.InputSchema.Required,
			})
		}
		return r.writeJSON(infos, true)
	}

	r.writePlain("%s", ui.Styles.Header("Spotify MCP tools"))
	for _, t := range list {
		r.writePlain("%s\n    %s\n", ui.Styles.Title(t.Definition.Name), t.Definition.Description)
	}
	return nil
}
