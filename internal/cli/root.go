// root.go - Root command and the dependencies shared by every subcommand
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"docsite-generator/internal/config"
	"docsite-generator/internal/utils"
	"docsite-generator/pkg/logger"
)

const appName = "docsite-generator"

// Version is overwritten by the linker during release builds.
var Version = "dev"

// RootDependencies carries the configuration, logger and resolved
// application directories every subcommand needs.
type RootDependencies struct {
	Config   *config.Config
	Logger   logger.Logger
	Cwd      string
	CacheDir string
}

var rootCmd = &cobra.Command{
	Use:   "docsite",
	Short: "Generate a documentation site from a source repository",
	Long: `docsite analyzes a source repository and generates a structured,
multi-page documentation site, optionally enhancing the content with an
AI text-generation backend. Sections that fail to generate never block
the rest of the site; the run report lists every section's outcome.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the CLI. Run-fatal errors exit 1; a run that emitted a
// site with failed sections reports partial success and exits 0.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

// handleRootCommand loads .env, the layered configuration and the
// logger. Called once at the top of every subcommand run.
func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	// Provider API keys may live in a local .env; a missing file is fine.
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd, cwd)
	if err != nil {
		return nil, err
	}
	warnings := cfg.Normalize()

	rootDir, err := utils.GetRootDir(appName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application directory: %w", err)
	}

	logsDir := cfg.Log.Dir
	if logsDir == "" {
		logsDir, err = utils.GetLogDir(rootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize log directory: %w", err)
		}
	} else if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logsDir, err)
	}

	log := logger.NewLogger(logsDir, cfg.Log.Level)
	for _, warning := range warnings {
		log.Warn("configuration: %s", warning)
	}

	cacheDir := cfg.Cache.Dir
	if cfg.Cache.Enabled && cacheDir == "" {
		cacheDir, err = utils.GetCacheDir(rootDir)
		if err != nil {
			log.Warn("failed to initialize cache directory, caching disabled: %v", err)
			cacheDir = ""
		}
	}

	return &RootDependencies{
		Config:   cfg,
		Logger:   log,
		Cwd:      cwd,
		CacheDir: cacheDir,
	}, nil
}
