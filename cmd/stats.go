package cmd

import (
	"fmt"
	"sort"

	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/store"
	"github.com/marcus/fb/internal/views"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"summary"},
	Short:   "Show aggregate feedback analytics",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		days, _ := cmd.Flags().GetInt("days")
		summary, err := client.GetSummary(days)
		if err != nil {
			return reportAPIError(err)
		}

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			return output.JSON(summary)
		}

		fmt.Printf("Feedback (last %d days of activity)\n", days)
		fmt.Printf("  total: %d\n", summary.TotalFeedback)
		fmt.Printf("  %s %d   %s %d   %s %d   %s %d\n",
			output.StatusBadge(models.StatusOpen), summary.OpenFeedback,
			output.StatusBadge(models.StatusInProgress), summary.InProgressFeedback,
			output.StatusBadge(models.StatusCompleted), summary.CompletedFeedback,
			output.StatusBadge(models.StatusRejected), summary.RejectedFeedback)

		if len(summary.StatusDistribution) > 0 {
			fmt.Print(output.SectionHeader("status distribution"))
			max := 0
			for _, n := range summary.StatusDistribution {
				if n > max {
					max = n
				}
			}
			for _, status := range models.AllStatuses() {
				n := summary.StatusDistribution[string(status)]
				fmt.Printf("  %-12s %4d  %s\n", status, n, output.Bar(n, max, 30))
			}
		}

		// Tag table: ranked with the local projection so ties keep
		// first-seen order instead of map iteration order.
		tags := tagTable(summary, client)
		if len(tags) > 0 {
			fmt.Print(output.SectionHeader("top tags"))
			max := tags[0].Count
			for i, tc := range tags {
				if i >= 10 {
					break
				}
				fmt.Printf("  %-16s %4d  %s\n", tc.Tag, tc.Count, output.Bar(tc.Count, max, 30))
			}
		}

		if len(summary.TopVotedFeedback) > 0 {
			fmt.Print(output.SectionHeader("top voted"))
			for i := range summary.TopVotedFeedback {
				fmt.Println("  " + output.FormatFeedbackShort(&summary.TopVotedFeedback[i]))
			}
		}

		if len(summary.FeedbackTrends) > 0 {
			trend, _ := cmd.Flags().GetBool("trend")
			if trend {
				fmt.Print(output.SectionHeader("daily new feedback"))
				dates := make([]string, 0, len(summary.FeedbackTrends))
				for d := range summary.FeedbackTrends {
					dates = append(dates, d)
				}
				sort.Strings(dates)
				max := 0
				for _, d := range dates {
					if summary.FeedbackTrends[d] > max {
						max = summary.FeedbackTrends[d]
					}
				}
				for _, d := range dates {
					n := summary.FeedbackTrends[d]
					fmt.Printf("  %s %3d  %s\n", d, n, output.Bar(n, max, 40))
				}
			}
		}

		return nil
	},
}

// tagTable ranks tags for display. It prefers counting over the loaded
// feedback set (stable first-seen tie-break); when the item fetch fails it
// falls back to the server's distribution map.
func tagTable(summary *models.Summary, client *apiclient.Client) []views.TagCount {
	items, err := client.ListFeedback(apiclient.ListFilters{})
	if err == nil && len(items) > 0 {
		cache := store.New()
		cache.LoadFeedback(items...)
		if tags := views.TagFrequency(cache.Feedback()); len(tags) > 0 {
			return tags
		}
	}

	tags := make([]views.TagCount, 0, len(summary.TagDistribution))
	for tag, n := range summary.TagDistribution {
		tags = append(tags, views.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	return tags
}

func init() {
	statsCmd.Flags().IntP("days", "n", 30, "Window in days for the summary")
	statsCmd.Flags().Bool("trend", false, "Show the daily trend table")
	statsCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(statsCmd)
}
