package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/version"
)

// versionsCommand creates the versions management command.
func (c *CLI) versionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect and manage built versions of a presentation",
	}

	cmd.AddCommand(c.versionsListCommand())
	cmd.AddCommand(c.versionsCurrentCommand())
	cmd.AddCommand(c.versionsRollbackCommand())
	return cmd
}

// versionsListCommand creates the "versions list" subcommand.
func (c *CLI) versionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <deck>",
		Short: "List all built versions of a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			root := cfg.BuildRoot(args[0])

			versions, err := version.List(root)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				printInfo("No versions built yet for %s", args[0])
				return nil
			}

			active, err := version.Current(root)
			if err != nil {
				return err
			}

			for _, entry := range versionEntries(root, versions, active) {
				marker := "  "
				if entry.active {
					marker = StyleSuccess.Render(iconActive) + " "
				}
				fmt.Println(marker + entry.label)
			}
			return nil
		},
	}
}

// versionEntry is one row of the versions listing and the rollback picker.
type versionEntry struct {
	number int
	active bool
	label  string
}

func versionEntries(root string, versions []int, active int) []versionEntry {
	entries := make([]versionEntry, 0, len(versions))
	for _, n := range versions {
		entry := versionEntry{number: n, active: n == active}
		entry.label = fmt.Sprintf("v%d", n)

		if info, err := version.ReadInfo(version.Dir(root, n)); err == nil {
			entry.label = fmt.Sprintf("v%-4d %s  %s", n,
				info.CreatedAt.Local().Format("2006-01-02 15:04"),
				StyleDim.Render(describeInfo(info)))
		}
		entries = append(entries, entry)
	}
	return entries
}

func describeInfo(info version.Info) string {
	desc := fmt.Sprintf("%d reused, %d regenerated", info.Reused, info.Regenerated)
	if len(info.Failed) > 0 {
		desc += fmt.Sprintf(", %d failed", len(info.Failed))
	}
	return desc
}

// versionsCurrentCommand creates the "versions current" subcommand.
func (c *CLI) versionsCurrentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "current <deck>",
		Short: "Show the active version of a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			active, err := version.Current(cfg.BuildRoot(args[0]))
			if err != nil {
				return err
			}
			if active == 0 {
				printInfo("No active version for %s", args[0])
				return nil
			}
			fmt.Printf("v%d\n", active)
			return nil
		},
	}
}

// versionsRollbackCommand creates the "versions rollback" subcommand.
// Without an explicit version number it opens an interactive picker.
func (c *CLI) versionsRollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <deck> [version]",
		Short: "Repoint the active version of a deck",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			root := cfg.BuildRoot(args[0])

			var target int
			if len(args) == 2 {
				target, err = strconv.Atoi(args[1])
				if err != nil || target <= 0 {
					return errors.New(errors.ErrCodeInvalidVersion, "version must be a positive number, got %q", args[1])
				}
			} else {
				target, err = pickVersion(root)
				if err != nil {
					return err
				}
				if target == 0 {
					printInfo("Rollback cancelled")
					return nil
				}
			}

			// Versions with failed assets are incomplete and stay inactive.
			if info, err := version.ReadInfo(version.Dir(root, target)); err == nil && len(info.Failed) > 0 {
				return errors.New(errors.ErrCodeInvalidVersion,
					"v%d is incomplete (%d failed assets) and cannot be activated", target, len(info.Failed))
			}

			if err := version.Activate(root, target); err != nil {
				return err
			}
			printSuccess("v%d is now current", target)
			return nil
		},
	}
}

// isTerminal reports whether stdout is attached to a terminal. The
// interactive picker only makes sense there.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
