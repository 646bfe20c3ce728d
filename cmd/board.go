package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/config"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/store"
	"github.com/spf13/cobra"
)

var boardsCmd = &cobra.Command{
	Use:     "boards",
	Short:   "List boards",
	GroupID: "boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		boards, err := client.ListBoards()
		if err != nil {
			return reportAPIError(err)
		}

		cache := store.New()
		cache.LoadBoards(boards...)

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			return output.JSON(cache.Boards())
		}

		cfg, _ := config.Load(getBaseDir())
		for _, b := range cache.Boards() {
			line := output.FormatBoardLine(&b)
			if cfg != nil && cfg.DefaultBoardID == b.ID {
				line += "  (default)"
			}
			fmt.Println(line)
		}
		if len(boards) == 0 {
			fmt.Println("No boards")
		}
		return nil
	},
}

var boardsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a board",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		req := &apiclient.CreateBoardRequest{Public: true}
		if len(args) > 0 {
			req.Name = args[0]
		}
		req.Description, _ = cmd.Flags().GetString("description")
		if cmd.Flags().Changed("private") {
			private, _ := cmd.Flags().GetBool("private")
			req.Public = !private
		}

		if req.Name == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Board name").Value(&req.Name),
					huh.NewText().Title("Description").Value(&req.Description),
					huh.NewConfirm().Title("Public board?").Value(&req.Public),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}
		if req.Name == "" {
			err := fmt.Errorf("board name is required")
			output.Error("%v", err)
			return err
		}

		board, err := client.CreateBoard(req)
		if err != nil {
			return reportAPIError(err)
		}

		output.Success("Created board #%d: %s", board.ID, board.Name)
		return nil
	},
}

var boardsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit board name, description, or visibility",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			output.Error("invalid board id: %s", args[0])
			return err
		}

		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		fields := map[string]any{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			fields["name"] = name
		}
		if cmd.Flags().Changed("description") {
			desc, _ := cmd.Flags().GetString("description")
			fields["description"] = desc
		}
		if cmd.Flags().Changed("private") {
			private, _ := cmd.Flags().GetBool("private")
			fields["public"] = !private
		}
		if len(fields) == 0 {
			err := fmt.Errorf("nothing to change: pass --name, --description, or --private")
			output.Error("%v", err)
			return err
		}

		board, err := client.UpdateBoard(id, fields)
		if err != nil {
			return reportAPIError(err)
		}

		output.Success("Updated board #%d: %s", board.ID, board.Name)
		return nil
	},
}

var boardsDefaultCmd = &cobra.Command{
	Use:   "default <id>",
	Short: "Set the default board for create and list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			output.Error("invalid board id: %s", args[0])
			return err
		}
		if err := config.SetDefaultBoard(getBaseDir(), id); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Default board set to #%d", id)
		return nil
	},
}

func init() {
	boardsCmd.Flags().Bool("json", false, "Output as JSON")
	boardsCreateCmd.Flags().StringP("description", "d", "", "Board description")
	boardsCreateCmd.Flags().Bool("private", false, "Create a members-only board")
	boardsEditCmd.Flags().StringP("name", "n", "", "New board name")
	boardsEditCmd.Flags().StringP("description", "d", "", "New board description")
	boardsEditCmd.Flags().Bool("private", false, "Make the board members-only (or --private=false for public)")

	boardsCmd.AddCommand(boardsCreateCmd, boardsEditCmd, boardsDefaultCmd)
	rootCmd.AddCommand(boardsCmd)
}
