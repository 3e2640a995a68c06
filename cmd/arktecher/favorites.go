package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arktecher/Micro-sub000/internal/cli"
	"github.com/arktecher/Micro-sub000/internal/common"
	"github.com/arktecher/Micro-sub000/internal/favorites"
)

func favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "List, toggle and watch favorited artworks",
	}

	cmd.AddCommand(favoritesListCmd())
	cmd.AddCommand(favoritesToggleCmd())
	cmd.AddCommand(favoritesWatchCmd())
	return cmd
}

func favoritesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorited artworks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			surface := favorites.NewSurface(favorites.SurfaceBuyerAccount, e.favoritesStore(), nil)
			if err := surface.Mount(ctx); err != nil {
				return err
			}
			defer surface.Unmount()

			works := surface.Artworks(e.catalog.Get)
			out := cmd.OutOrStdout()
			if len(works) == 0 {
				_, err := fmt.Fprintln(out, cli.FormatInfo("No favorites yet."))
				return err
			}

			rows := make([][]string, 0, len(works))
			for _, w := range works {
				rows = append(rows, []string{w.ID, w.Title, w.Artist, fmt.Sprintf("%.0f × %.0f cm", w.WidthCm, w.HeightCm)})
			}
			_, err = fmt.Fprintf(out, "%s\n%s\n", cli.FormatTitle("Favorites"),
				cli.RenderTable([]string{"ID", "Title", "Artist", "Size"}, rows))
			return err
		},
	}
}

func favoritesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID [ID...]",
		Short: "Add or remove favorites",
		Long: `Flip each artwork's favorite state. IDs may be given in any common
shape: 7, WRK-7, wrk_007 and WRK007 all name WRK-007.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			store := e.favoritesStore()
			out := cmd.OutOrStdout()
			for _, raw := range args {
				on, err := store.Toggle(ctx, raw, favorites.SurfaceBuyerAccount)
				if favorites.IsUnparseable(err) {
					_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Skipped %q: not an artwork id", raw)))
					continue
				}
				if err != nil {
					return common.NewUserError("Could not update favorites", err)
				}

				id, _ := favorites.Canonicalize(raw)
				msg := fmt.Sprintf("%s removed from favorites", id)
				if on {
					msg = fmt.Sprintf("%s added to favorites", id)
				}
				_, _ = fmt.Fprintln(out, cli.FormatSuccess(msg))
			}
			return nil
		},
	}
}

func favoritesWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print favorites whenever another process changes them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			surface := favorites.NewSurface(favorites.SurfaceVenueDashboard, e.favoritesStore(), func(set favorites.Set) {
				_, _ = fmt.Fprintf(out, "%s revision %d: %v\n", cli.FavoriteIcon, set.Revision, set.Strings())
			})
			if err := surface.Mount(ctx); err != nil {
				return err
			}
			defer surface.Unmount()

			watcher, err := e.startWatcher(ctx)
			if err != nil {
				return err
			}
			defer watcher.Stop()

			slog.Info("Watching favorites", "interval", e.cfg.Favorites.PollInterval)
			<-ctx.Done()
			return nil
		},
	}
}
