package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/harness"
)

// AppInfo describes one built-in app for listing.
type AppInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Events      []string `json:"events"`
}

// NewAppsCommand creates the apps command.
func NewAppsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List the built-in apps scenarios can mount",
		Long: `List the built-in apps available to scenario files.

Each app mounts a small model/view tree and declares the events its
scenarios may emit. A scenario names one of these apps in its "app"
field.

Examples:
  trellis apps
  trellis apps --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApps(rootOpts, cmd)
		},
	}

	return cmd
}

func runApps(opts *RootOptions, cmd *cobra.Command) error {
	apps := harness.Apps()

	infos := make([]AppInfo, 0, len(apps))
	for _, app := range apps {
		infos = append(infos, AppInfo{
			Name:        app.Name,
			Description: app.Description,
			Events:      app.EventNames(),
		})
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(infos)
	}

	w := cmd.OutOrStdout()
	for _, info := range infos {
		fmt.Fprintf(w, "%s - %s\n", info.Name, info.Description)
		fmt.Fprintf(w, "  events: %s\n", strings.Join(info.Events, ", "))
	}
	return nil
}
