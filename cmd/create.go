package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/config"
	"github.com/marcus/fb/internal/output"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:     "create [title]",
	Aliases: []string{"new"},
	Short:   "File a new feedback item",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		cfg, err := config.Load(getBaseDir())
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		req := &apiclient.CreateFeedbackRequest{}
		if len(args) > 0 {
			req.Title = strings.Join(args, " ")
		}
		req.Description, _ = cmd.Flags().GetString("description")
		req.Tags, _ = cmd.Flags().GetString("tags")
		req.BoardID, _ = cmd.Flags().GetInt64("board")
		if req.BoardID == 0 {
			req.BoardID = cfg.DefaultBoardID
		}

		// No title: run the interactive form, with boards fetched for the
		// picker so the user never has to remember ids.
		if req.Title == "" {
			boards, err := client.ListBoards()
			if err != nil {
				return reportAPIError(err)
			}
			if len(boards) == 0 {
				err := fmt.Errorf("no boards available; create one with 'fb boards create'")
				output.Error("%v", err)
				return err
			}

			boardOptions := make([]huh.Option[string], len(boards))
			for i, b := range boards {
				boardOptions[i] = huh.NewOption(b.Name, strconv.FormatInt(b.ID, 10))
			}
			boardValue := strconv.FormatInt(req.BoardID, 10)
			if req.BoardID == 0 {
				boardValue = strconv.FormatInt(boards[0].ID, 10)
			}

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Title").Value(&req.Title),
					huh.NewText().Title("Description").Value(&req.Description),
					huh.NewSelect[string]().Title("Board").Options(boardOptions...).Value(&boardValue),
					huh.NewInput().Title("Tags (comma-separated)").Value(&req.Tags),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			req.BoardID, _ = strconv.ParseInt(boardValue, 10, 64)
		}

		// Minimal pre-validation only; the server is the validation authority.
		req.Title = strings.TrimSpace(req.Title)
		req.Description = strings.TrimSpace(req.Description)
		if req.Title == "" || req.Description == "" {
			err := fmt.Errorf("title and description are required")
			output.Error("%v", err)
			return err
		}
		if req.BoardID == 0 {
			err := fmt.Errorf("board is required (--board or 'fb boards default')")
			output.Error("%v", err)
			return err
		}

		created, err := client.CreateFeedback(req)
		if err != nil {
			return reportAPIError(err)
		}

		output.Success("Created #%d: %s", created.ID, created.Title)
		return nil
	},
}

func init() {
	createCmd.Flags().StringP("description", "d", "", "Description (markdown)")
	createCmd.Flags().Int64P("board", "b", 0, "Board id (defaults to the configured board)")
	createCmd.Flags().String("tags", "", "Comma-separated tags")

	rootCmd.AddCommand(createCmd)
}
