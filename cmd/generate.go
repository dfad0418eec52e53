package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deadpackets/pwnbox-cli/internal/config"
)

var generateForce bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default config to a file",
	Long: `Generate writes the default PwnBox configuration.

Without --config the file is written to ~/.pwnbox/pwnbox.yaml. An existing
file is never overwritten unless --force is given.`,
	Example: `  # Write the default config to the default location
  pwnbox generate

  # Write to a custom location
  pwnbox generate -c ./pwnbox.yaml

  # Overwrite an existing config
  pwnbox generate --force`,
	RunE: func(_ *cobra.Command, _ []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}

		if err := config.WriteDefault(path, generateForce); err != nil {
			return err
		}

		fmt.Println(color.GreenString("=> Generated a default config file at %q!", path))
		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&generateForce, "force", false, "overwrite an existing configuration file")
}
