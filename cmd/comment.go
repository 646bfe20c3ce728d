package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/mutate"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/session"
	"github.com/marcus/fb/internal/store"
	"github.com/marcus/fb/internal/views"
	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:     "comment",
	Short:   "Manage comments on feedback items",
	GroupID: "comments",
}

var commentListCmd = &cobra.Command{
	Use:     "list <feedback-id>",
	Aliases: []string{"ls"},
	Short:   "List the comments on a feedback item",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feedbackID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			output.Error("invalid feedback id: %s", args[0])
			return err
		}

		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		comments, err := client.ListComments(feedbackID)
		if err != nil {
			return reportAPIError(err)
		}

		cache := store.New()
		cache.LoadComments(comments...)

		jsonOut, _ := cmd.Flags().GetBool("json")
		list := views.CommentsFor(cache.Comments(), feedbackID)
		if jsonOut {
			return output.JSON(list)
		}
		for i := range list {
			fmt.Println(output.FormatComment(&list[i]))
		}
		if len(list) == 0 {
			fmt.Println("No comments")
		}
		return nil
	},
}

var commentAddCmd = &cobra.Command{
	Use:   "add <feedback-id> <text...>",
	Short: "Add a comment to a feedback item",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		feedbackID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			output.Error("invalid feedback id: %s", args[0])
			return err
		}
		text := strings.Join(args[1:], " ")

		client, sess, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		cache := store.New()
		coord := mutate.New(cache, client,
			mutate.WithNotifier(notifier),
			mutate.WithAuthFailureHook(authFailureHook),
			mutate.WithUser(&sess.User),
		)
		if err := coord.AddComment(feedbackID, text); err != nil {
			return err
		}

		output.Success("Comment added to #%d", feedbackID)
		return nil
	},
}

var commentEditCmd = &cobra.Command{
	Use:   "edit <feedback-id> <comment-id> <text...>",
	Short: "Edit a comment",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommentMutation(args, func(coord *mutate.Coordinator, c *models.Comment, text string) error {
			if err := coord.EditComment(c.Key(), text); err != nil {
				return err
			}
			output.Success("Comment %d updated", c.ID)
			return nil
		})
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:     "rm <feedback-id> <comment-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a comment",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommentMutation(args, func(coord *mutate.Coordinator, c *models.Comment, _ string) error {
			if err := coord.DeleteComment(c.Key()); err != nil {
				return err
			}
			output.Success("Comment %d deleted", c.ID)
			return nil
		})
	},
}

// runCommentMutation loads a feedback item's comments, gates the mutation on
// the edit permission, and hands the target comment to fn. The permission
// check is advisory UI gating only; the server re-validates.
func runCommentMutation(args []string, fn func(*mutate.Coordinator, *models.Comment, string) error) error {
	feedbackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		output.Error("invalid feedback id: %s", args[0])
		return err
	}
	commentID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		output.Error("invalid comment id: %s", args[1])
		return err
	}
	var text string
	if len(args) > 2 {
		text = strings.Join(args[2:], " ")
	}

	client, sess, err := newAuthedClient()
	if err != nil {
		output.Error("%v", err)
		return err
	}

	comments, err := client.ListComments(feedbackID)
	if err != nil {
		return reportAPIError(err)
	}

	cache := store.New()
	cache.LoadComments(comments...)

	var target *models.Comment
	for i := range comments {
		if comments[i].ID == commentID {
			target = &comments[i]
			break
		}
	}
	if target == nil {
		err := fmt.Errorf("comment %d not found on feedback #%d", commentID, feedbackID)
		output.Error("%v", err)
		return err
	}

	user := session.CurrentIdentity(getBaseDir())
	if !models.CanEditComment(user, target) {
		err := fmt.Errorf("you may only modify your own comments")
		output.Error("%v", err)
		return err
	}

	coord := mutate.New(cache, client,
		mutate.WithNotifier(notifier),
		mutate.WithAuthFailureHook(authFailureHook),
		mutate.WithUser(&sess.User),
	)
	return fn(coord, target, text)
}

func init() {
	commentListCmd.Flags().Bool("json", false, "Output as JSON")

	commentCmd.AddCommand(commentListCmd, commentAddCmd, commentEditCmd, commentDeleteCmd)
	rootCmd.AddCommand(commentCmd)
}
