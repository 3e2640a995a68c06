package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arktecher/Micro-sub000/internal/cli"
	"github.com/arktecher/Micro-sub000/internal/common"
	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/placement"
)

func spacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spaces",
		Short: "Manage venue display spaces",
	}

	cmd.AddCommand(spacesAddCmd())
	cmd.AddCommand(spacesListCmd())
	cmd.AddCommand(spacesAreaCmd())
	cmd.AddCommand(spacesExhibitionsCmd())
	cmd.AddCommand(spacesDeleteCmd())
	return cmd
}

func spacesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Register or update a space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			image, _ := cmd.Flags().GetString("image")

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			space, err := e.space(ctx, args[0])
			if err != nil {
				return err
			}
			if name != "" {
				space.Name = name
			}
			if space.Name == "" {
				space.Name = args[0]
			}
			if image != "" {
				space.ReferenceImage = image
			}

			if err := e.storage.SaveSpace(ctx, space); err != nil {
				return common.NewUserError("Could not save the space", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved space %s (%s)", space.ID, space.Name)))
			return err
		},
	}
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("image", "", "reference image path or URL")
	return cmd
}

func spacesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered spaces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			spaces, err := e.storage.ListSpaces(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(spaces) == 0 {
				_, err := fmt.Fprintln(out, cli.FormatInfo("No spaces registered. Add one with `arktecher spaces add`."))
				return err
			}

			rows := make([][]string, 0, len(spaces))
			for _, s := range spaces {
				rows = append(rows, []string{s.ID, s.Name, formatSavedArea(s.SavedArea), s.ReferenceImage})
			}
			_, err = fmt.Fprintf(out, "%s\n%s\n", cli.FormatTitle("Spaces"),
				cli.RenderTable([]string{"ID", "Name", "Placement area", "Reference"}, rows))
			return err
		},
	}
}

func spacesAreaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "area ID [X Y WIDTH HEIGHT]",
		Short: "Set or clear a space's saved placement area",
		Long: `Set the placement area a space's workflow opens with, in percent of the
reference image. Values outside the image are clamped. Use --clear to
remove the saved area.`,
		Example: `  arktecher spaces area lobby 20 15 50 60
  arktecher spaces area lobby --clear`,
		Args: cobra.RangeArgs(1, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearArea, _ := cmd.Flags().GetBool("clear")

			var saved *model.SavedArea
			if !clearArea {
				if len(args) != 5 {
					return common.NewUserError("Give X Y WIDTH HEIGHT or --clear", fmt.Errorf("got %d values", len(args)-1))
				}
				rect, err := placement.ParseRect(strings.Join(args[1:], " "))
				if err != nil {
					return common.NewUserError("Invalid placement area", err)
				}
				area, err := placement.Define(rect)
				if err != nil {
					return common.NewUserError("Invalid placement area", err)
				}
				saved = area.Saved()
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.storage.SaveSpaceArea(ctx, args[0], saved); err != nil {
				return common.NewUserError(fmt.Sprintf("Could not update space %s", args[0]), err)
			}
			msg := fmt.Sprintf("Cleared the placement area of %s", args[0])
			if saved != nil {
				msg = fmt.Sprintf("Placement area of %s set to %s", args[0], formatSavedArea(saved))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return err
		},
	}
	cmd.Flags().Bool("clear", false, "remove the saved area")
	return cmd
}

func spacesExhibitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exhibitions [ID]",
		Short: "List exhibition requests, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spaceID := ""
			if len(args) == 1 {
				spaceID = args[0]
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.storage.ListExhibitions(ctx, spaceID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, ex := range list {
				title := ""
				if w, err := e.catalog.Get(ex.CandidateID); err == nil {
					title = w.Title
				}
				rows = append(rows, []string{ex.RequestedAt.Local().Format("2006-01-02 15:04"), ex.SpaceID, ex.CandidateID, title, ex.RequestID})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", cli.FormatTitle("Exhibition requests"),
				cli.RenderTable([]string{"Requested", "Space", "Artwork", "Title", "Request"}, rows))
			return err
		},
	}
}

func spacesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.storage.DeleteSpace(ctx, args[0]); err != nil {
				return common.NewUserError(fmt.Sprintf("Could not delete space %s", args[0]), err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted space "+args[0]))
			return err
		},
	}
}

func formatSavedArea(a *model.SavedArea) string {
	if a == nil {
		return "-"
	}
	return fmt.Sprintf("x=%.0f%% y=%.0f%% %.0f%% × %.0f%%", a.X, a.Y, a.Width, a.Height)
}
