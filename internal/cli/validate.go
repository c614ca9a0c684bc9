package cli

import (
	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/pkg/schema"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema.json>",
		Short: "Check a presentation schema without building anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.Load(args[0])
			if err != nil {
				return err
			}

			specs, err := s.AssetSpecs()
			if err != nil {
				return err
			}

			printSuccess("Schema is valid")
			printDetail("%s", s)
			printDetail("%d assets would be generated on a first build", len(specs))
			return nil
		},
	}
}
