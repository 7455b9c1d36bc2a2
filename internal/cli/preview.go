// preview.go - Local preview of a generated site
package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"docsite-generator/internal/config"
	"docsite-generator/internal/server"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Serve a generated site over HTTP",
	Long: `Serve the site previously generated into --output on a local
HTTP address. The run manifest is available at /api/manifest for
inspecting per-section statuses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")

		srv := server.NewServer(deps.Config.Site.Output, deps.Logger)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				deps.Logger.Warn("failed to shut down preview server: %v", err)
			}
		}()

		pterm.Info.Printfln("serving %s on http://%s", deps.Config.Site.Output, addr)
		return srv.Start(addr)
	},
}

func init() {
	previewCmd.Flags().StringP("output", "o", config.DefaultConfigSite.Output, "Site directory to serve")
	previewCmd.Flags().String("addr", "localhost:3000", "Listen address")
	rootCmd.AddCommand(previewCmd)
}
