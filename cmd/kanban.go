package cmd

import (
	"time"

	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/session"
	"github.com/marcus/fb/pkg/board"
	"github.com/spf13/cobra"
)

var kanbanCmd = &cobra.Command{
	Use:     "kanban",
	Aliases: []string{"k", "board"},
	Short:   "Open the interactive kanban board",
	GroupID: "core",
	Long: `Open a full-screen kanban board with one column per workflow status.

Keys:
  h/l, arrows   move between columns
  j/k, arrows   move within a column
  space         pick up the selected card
  h/l           carry the card to another column
  enter         drop the card (moves it to that status)
  esc           cancel the drag
  u             toggle your upvote on the selected card
  /             filter cards by text
  b             cycle the board filter
  r             refresh from the server
  q             quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		boardID, _ := cmd.Flags().GetInt64("board")
		interval, _ := cmd.Flags().GetDuration("refresh")

		return board.Run(board.Options{
			Client:   client,
			User:     session.CurrentIdentity(getBaseDir()),
			BoardID:  boardID,
			Interval: interval,
			Version:  version,
		})
	},
}

func init() {
	kanbanCmd.Flags().Int64P("board", "b", 0, "Board ID to filter by")
	kanbanCmd.Flags().Duration("refresh", 30*time.Second, "Auto refresh interval")

	rootCmd.AddCommand(kanbanCmd)
}
