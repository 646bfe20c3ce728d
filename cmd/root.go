package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/config"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/session"
	"github.com/spf13/cobra"
)

var (
	version string
	baseDir string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "fb",
	Short: "Terminal client for the feedback board service",
	Long: `fb - A terminal client for managing feedback boards.

Browse and file feedback, comment, upvote, and move items through the
workflow on a kanban board, all against a remote feedback service. Changes
apply instantly in the client and are confirmed (or rolled back) against the
server.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	cobra.OnInitialize(initBaseDir)

	// Add custom template function for showing aliases
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	// Custom usage template that shows aliases inline
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
	rootCmd.SetUsageTemplate(usageTemplate)

	// Define command groups for organized help output
	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Feedback Commands:"},
		&cobra.Group{ID: "comments", Title: "Comment Commands:"},
		&cobra.Group{ID: "boards", Title: "Board Commands:"},
		&cobra.Group{ID: "session", Title: "Session Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)

	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

func initBaseDir() {
	if dir := os.Getenv("FB_CONFIG_DIR"); dir != "" {
		baseDir = dir
		return
	}
	userDir, err := os.UserConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine config directory: %v\n", err)
		os.Exit(1)
	}
	baseDir = filepath.Join(userDir, "fb")
}

// getBaseDir returns the directory holding config and session files
func getBaseDir() string {
	return baseDir
}

// newClient builds an API client from the saved config, unauthenticated.
func newClient() (*apiclient.Client, error) {
	cfg, err := config.Load(getBaseDir())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return apiclient.New(cfg.EffectiveServerURL(), ""), nil
}

// newAuthedClient builds an API client carrying the saved session's token.
// It fails when no one is logged in.
func newAuthedClient() (*apiclient.Client, *session.Session, error) {
	sess, err := session.Load(getBaseDir())
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, fmt.Errorf("not logged in: run 'fb login' first")
	}

	cfg, err := config.Load(getBaseDir())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	serverURL := sess.ServerURL
	if serverURL == "" {
		serverURL = cfg.EffectiveServerURL()
	}
	client := apiclient.New(serverURL, sess.Access)
	client.Refresh = sess.Refresh
	client.OnTokenRefresh = func(access string) {
		sess.Access = access
		if err := session.Save(getBaseDir(), sess); err != nil {
			output.Warning("could not persist refreshed token: %v", err)
		}
	}
	return client, sess, nil
}

// reportAPIError prints a failure and, when the session has expired, clears
// it so the next command starts from the unauthenticated state.
func reportAPIError(err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		output.Error("session expired or invalid; run 'fb login'")
		if clearErr := session.Clear(getBaseDir()); clearErr != nil {
			output.Warning("could not clear session: %v", clearErr)
		}
		return err
	}

	var vErr *apiclient.ValidationError
	if errors.As(err, &vErr) {
		output.Error("rejected by server: %v", vErr)
		return err
	}

	output.Error("%v", err)
	return err
}

// notifier is the coordinator failure hook for CLI commands: one message per
// failed mutation, with a retry hint. No automatic retry happens.
func notifier(op string, err error) {
	output.Error("%s failed: %v (change rolled back; retry when ready)", op, err)
}

// authFailureHook clears the persisted session after an unauthorized mutation.
func authFailureHook() {
	if err := session.Clear(getBaseDir()); err == nil {
		output.Warning("session cleared; run 'fb login' to sign in again")
	}
}
