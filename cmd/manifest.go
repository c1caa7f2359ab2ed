package cmd

import (
	"fmt"
	"os"

	"schema-sentinel/internal/manifest"

	"github.com/spf13/cobra"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Validate and print the effective manifest as YAML",
	Long: `Prints the manifest verify would use: the file named by settings.manifest
(or --manifest) or the built-in one. Useful as a starting point
for a project manifest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("invalid manifest: %w", err)
		}
		return manifest.Encode(os.Stdout, m)
	},
}

func init() {
	RootCmd.AddCommand(manifestCmd)
}
