package cmd

import (
	"fmt"
	"strconv"

	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/mutate"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/store"
	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:     "move <id> <status>",
	Aliases: []string{"mv"},
	Short:   "Move a feedback item to a new workflow status",
	GroupID: "core",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			output.Error("invalid feedback id: %s", args[0])
			return err
		}
		target := models.NormalizeStatus(args[1])
		if !models.IsValidStatus(target) {
			err := fmt.Errorf("invalid status: %s (valid: open, in_progress, completed, rejected)", args[1])
			output.Error("%v", err)
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

		if item.Status == target {
			output.Info("#%d is already %s", id, output.StatusBadge(target))
			return nil
		}
		if err := coord.MoveStatus(id, target); err != nil {
			return err
		}

		loaded, _ := cache.GetFeedback(id)
		output.Success("Moved #%d to %s", loaded.ID, output.StatusBadge(loaded.Status))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
