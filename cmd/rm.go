package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/marcus/fb/internal/output"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a feedback item",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			output.Error("invalid feedback id: %s", args[0])
			return err
		}

		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			item, err := client.GetFeedback(id)
			if err != nil {
				return reportAPIError(err)
			}
			confirm := false
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete #%d: %s?", item.ID, item.Title)).
						Value(&confirm),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			if !confirm {
				fmt.Println("Aborted")
				return nil
			}
		}

		if err := client.DeleteFeedback(id); err != nil {
			return reportAPIError(err)
		}

		output.Success("Deleted feedback #%d", id)
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(rmCmd)
}
