package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lessonforge/internal/icons"
)

func newIconsCommand(ctx *commandContext) *cobra.Command {
	iconsCmd := &cobra.Command{
		Use:   "icons",
		Short: "Inspect the icon catalog and resolver",
	}
	iconsCmd.AddCommand(newIconsResolveCommand(ctx))
	iconsCmd.AddCommand(newIconsListCommand(ctx))
	return iconsCmd
}

func newIconsResolveCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Resolve icon names the way a build would",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			resolver := icons.NewResolver(icons.OptionsFromConfig(ctx.configValue()), logger)
			resolutions := resolver.ResolveAll(cmd.Context(), args)

			if asJSON {
				type jsonResolution struct {
					Name     string  `json:"name"`
					Strategy string  `json:"strategy"`
					Match    string  `json:"match,omitempty"`
					Score    float64 `json:"score,omitempty"`
					Path     string  `json:"path,omitempty"`
					Glyph    string  `json:"glyph,omitempty"`
				}
				out := make([]jsonResolution, 0, len(resolutions))
				for _, res := range resolutions {
					out = append(out, jsonResolution{
						Name:     res.Query,
						Strategy: res.Strategy.String(),
						Match:    res.Match,
						Score:    res.Score,
						Path:     res.Path,
						Glyph:    res.Glyph,
					})
				}
				return writeJSON(cmd, out)
			}

			rows := make([][]string, 0, len(resolutions))
			for _, res := range resolutions {
				score := "-"
				if res.Score > 0 {
					score = fmt.Sprintf("%.2f", res.Score)
				}
				target := res.Path
				if res.IsPlaceholder() {
					target = res.Glyph
				}
				rows = append(rows, []string{res.Query, res.Strategy.String(), dash(res.Match), score, target})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{
				left("Name"), left("Strategy"), left("Match"), right("Score"), left("Icon"),
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print resolutions as JSON")
	return cmd
}

func newIconsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries and any index problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			catalog := icons.LoadCatalog(ctx.configValue().Icons.IndexFiles, logger)
			out := cmd.OutOrStdout()
			if catalog.Len() == 0 {
				fmt.Fprintln(out, "Icon catalog is empty")
			} else {
				entries := catalog.Entries()
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.Name, dash(strings.Join(e.Aliases, ", ")), e.Path})
				}
				fmt.Fprint(out, renderTable([]column{left("Name"), left("Aliases"), left("Path")}, rows))
			}
			if problems := catalog.Problems(); len(problems) > 0 {
				fmt.Fprintf(out, "%d catalog entries skipped:\n", len(problems))
				for _, p := range problems {
					fmt.Fprintf(out, "  - %s\n", p)
				}
			}
			return nil
		},
	}
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
