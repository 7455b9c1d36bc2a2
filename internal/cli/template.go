// template.go - Site skeleton scaffolding without repository analysis
package cli

import (
	"github.com/spf13/cobra"

	"docsite-generator/internal/config"
	"docsite-generator/internal/docgen"
	"docsite-generator/internal/site"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Scaffold a site skeleton with placeholder content",
	Long: `Write a complete, navigable site skeleton with placeholder text
for every section. No repository is analyzed and no AI backend is
consulted, so no model credentials are needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sections, _ := cmd.Flags().GetStringSlice("sections")
		return runPipeline(cmd, docgen.Options{
			Mode:     site.ModeTemplateOnly,
			Sections: sections,
		})
	},
}

func init() {
	templateCmd.Flags().StringP("output", "o", config.DefaultConfigSite.Output, "Output site directory")
	templateCmd.Flags().StringSlice("sections", nil, "Restrict the skeleton to these section ids")
	rootCmd.AddCommand(templateCmd)
}
