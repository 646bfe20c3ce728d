package cmd

import (
	"fmt"
	"strconv"

	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/store"
	"github.com/marcus/fb/internal/views"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a feedback item with its comments",
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

		item, err := client.GetFeedback(id)
		if err != nil {
			return reportAPIError(err)
		}
		comments, err := client.ListComments(id)
		if err != nil {
			return reportAPIError(err)
		}

		cache := store.New()
		cache.LoadFeedback(*item)
		cache.LoadComments(comments...)

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			loaded, _ := cache.GetFeedback(id)
			return output.JSON(map[string]any{
				"feedback": loaded,
				"comments": views.CommentsFor(cache.Comments(), id),
			})
		}

		loaded, _ := cache.GetFeedback(id)
		plain, _ := cmd.Flags().GetBool("plain")
		if !plain && loaded.Description != "" {
			if rendered, err := output.RenderMarkdown(loaded.Description); err == nil {
				loaded.Description = rendered
			}
		}

		fmt.Print(output.FormatFeedbackLong(&loaded, views.CommentsFor(cache.Comments(), id)))
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "Output as JSON")
	showCmd.Flags().Bool("plain", false, "Skip markdown rendering of the description")

	rootCmd.AddCommand(showCmd)
}
