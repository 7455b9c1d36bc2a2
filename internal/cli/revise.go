// revise.go - Incremental revision of a previously generated site
package cli

import (
	"github.com/spf13/cobra"

	"docsite-generator/internal/config"
	"docsite-generator/internal/docgen"
	"docsite-generator/internal/site"
)

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Regenerate only the stale sections of an existing site",
	Long: `Compare the repository at --repo against the site previously
generated into --output and regenerate only the sections whose inputs
changed. Unchanged sections are reused verbatim, and manual edits made
outside the managed content regions are always preserved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _ := cmd.Flags().GetString("repo")
		sections, _ := cmd.Flags().GetStringSlice("sections")
		return runPipeline(cmd, docgen.Options{
			RootPath: repo,
			Mode:     site.ModeRevise,
			Sections: sections,
		})
	},
}

func init() {
	addGenerationFlags(reviseCmd)
	reviseCmd.Flags().String("policy", config.DefaultConfigRevise.Policy,
		"Staleness policy: fingerprint (regenerate on changed inputs) or always")
	rootCmd.AddCommand(reviseCmd)
}
