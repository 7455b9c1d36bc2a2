// generate.go - Fresh site generation command
package cli

import (
	"github.com/spf13/cobra"

	"docsite-generator/internal/config"
	"docsite-generator/internal/docgen"
	"docsite-generator/internal/site"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Analyze a repository and generate a fresh documentation site",
	Long: `Analyze the repository at --repo and generate every configured
documentation section into --output. Existing pages are replaced; use
the revise command to update a previously generated site instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _ := cmd.Flags().GetString("repo")
		sections, _ := cmd.Flags().GetStringSlice("sections")
		return runPipeline(cmd, docgen.Options{
			RootPath: repo,
			Mode:     site.ModeFresh,
			Sections: sections,
		})
	},
}

func init() {
	addGenerationFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

// addGenerationFlags registers the flags shared by generate and revise.
// Values flow through the configuration layer, so environment variables
// and docsite.yaml fill anything the command line leaves unset.
func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("repo", "r", ".", "Repository to analyze")
	cmd.Flags().StringP("output", "o", config.DefaultConfigSite.Output, "Output site directory")
	cmd.Flags().StringP("model", "m", config.DefaultConfigAI.Model, "Model reference, provider/model")
	cmd.Flags().String("prompts", "", "Prompt configuration file (default: embedded prompts)")
	cmd.Flags().Int("budget", config.DefaultConfigContext.DefaultBudget, "Default per-section context budget in characters")
	cmd.Flags().Int("workers", config.DefaultConfigGenerate.Workers, "Concurrent section generation workers")
	cmd.Flags().StringSlice("sections", nil, "Restrict the run to these section ids")
}
