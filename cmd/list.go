package cmd

import (
	"fmt"

	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/config"
	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/store"
	"github.com/marcus/fb/internal/views"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List feedback matching given filters",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		boardID, _ := cmd.Flags().GetInt64("board")
		statusStr, _ := cmd.Flags().GetString("status")
		search, _ := cmd.Flags().GetString("search")
		ordering, _ := cmd.Flags().GetString("ordering")
		save, _ := cmd.Flags().GetBool("save")

		// Unset flags fall back to the saved filter state.
		if state, err := config.GetFilterState(getBaseDir()); err == nil {
			if !cmd.Flags().Changed("board") && state.BoardFilter != 0 {
				boardID = state.BoardFilter
			}
			if !cmd.Flags().Changed("status") && state.StatusFilter != "" {
				statusStr = state.StatusFilter
			}
			if !cmd.Flags().Changed("search") && state.SearchQuery != "" {
				search = state.SearchQuery
			}
			if !cmd.Flags().Changed("ordering") && state.Ordering != "" {
				ordering = state.Ordering
			}
		}

		var status models.Status
		if statusStr != "" {
			status = models.NormalizeStatus(statusStr)
			if !models.IsValidStatus(status) {
				err := fmt.Errorf("invalid status: %s (valid: open, in_progress, completed, rejected)", statusStr)
				output.Error("%v", err)
				return err
			}
		}

		items, err := client.ListFeedback(apiclient.ListFilters{
			BoardID:  boardID,
			Status:   status,
			Search:   search,
			Ordering: ordering,
		})
		if err != nil {
			return reportAPIError(err)
		}

		// The cache preserves server order; the feed projection re-applies
		// the filters locally so stale server results never leak through.
		cache := store.New()
		cache.LoadFeedback(items...)

		order := views.OrderLoaded
		switch ordering {
		case "created_at":
			order = views.OrderCreatedAsc
		case "-created_at":
			order = views.OrderCreatedDesc
		}
		feed := views.Feed(cache.Feedback(), views.FeedOptions{
			Search:  search,
			BoardID: boardID,
			Status:  status,
			Order:   order,
		})

		if save {
			state := &config.FilterState{
				SearchQuery:  search,
				StatusFilter: string(status),
				BoardFilter:  boardID,
				Ordering:     ordering,
			}
			if err := config.SetFilterState(getBaseDir(), state); err != nil {
				output.Warning("could not save filter state: %v", err)
			}
		}

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			return output.JSON(feed)
		}

		long, _ := cmd.Flags().GetBool("long")
		if long {
			for i := range feed {
				fmt.Print(output.FormatFeedbackLong(&feed[i], nil))
				fmt.Println("---")
			}
			return nil
		}

		for i := range feed {
			fmt.Println(output.FormatFeedbackShort(&feed[i]))
		}
		if len(feed) == 0 {
			fmt.Println("No feedback found")
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Int64P("board", "b", 0, "Filter by board id")
	listCmd.Flags().StringP("status", "s", "", "Filter by status (open, in_progress, completed, rejected)")
	listCmd.Flags().String("search", "", "Search title and description")
	listCmd.Flags().StringP("ordering", "o", "", "Sort key (created_at, -created_at, upvotes, -upvotes)")
	listCmd.Flags().Bool("save", false, "Persist these filters as the default view")
	listCmd.Flags().BoolP("long", "l", false, "Long output")
	listCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(listCmd)
}
