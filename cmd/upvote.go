package cmd

import (
	"fmt"
	"strconv"

	"github.com/marcus/fb/internal/mutate"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/store"
	"github.com/spf13/cobra"
)

var upvoteCmd = &cobra.Command{
	Use:     "upvote <id>",
	Aliases: []string{"vote"},
	Short:   "Toggle your upvote on a feedback item",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			output.Error("invalid feedback id: %s", args[0])
			return err
		}

		client, sess, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		item, err := client.GetFeedback(id)
		if err != nil {
			return reportAPIError(err)
		}

		cache := store.New()
		cache.LoadFeedback(*item)

		coord := mutate.New(cache, client,
			mutate.WithNotifier(notifier),
			mutate.WithAuthFailureHook(authFailureHook),
			mutate.WithUser(&sess.User),
		)
		if err := coord.ToggleUpvote(id); err != nil {
			return err
		}

		loaded, _ := cache.GetFeedback(id)
		verb := "Removed upvote from"
		if loaded.IsUpvoted {
			verb = "Upvoted"
		}
		output.Success("%s #%d (%s)", verb, loaded.ID, fmt.Sprintf("%d votes", loaded.UpvoteCount))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(upvoteCmd)
}
