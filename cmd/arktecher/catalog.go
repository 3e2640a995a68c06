package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arktecher/Micro-sub000/internal/catalog"
	"github.com/arktecher/Micro-sub000/internal/cli"
	"github.com/arktecher/Micro-sub000/internal/config"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the artwork catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog artworks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.Catalog.Path)
			if err != nil {
				return err
			}
			works, err := cat.Artworks(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(works))
			for _, w := range works {
				rows = append(rows, []string{
					w.ID, w.Title, w.Artist,
					fmt.Sprintf("%.0f × %.0f cm", w.WidthCm, w.HeightCm),
					strings.Join(w.Tags, ", "),
				})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n",
				cli.FormatTitle(fmt.Sprintf("Catalog (%d works)", len(works))),
				cli.RenderTable([]string{"ID", "Title", "Artist", "Size", "Tags"}, rows))
			return err
		},
	})
	return cmd
}
