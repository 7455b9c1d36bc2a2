// config.go - Application configuration management

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type ConfigLog struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

type ConfigScan struct {
	ExcludeDirs   []string `mapstructure:"exclude_dirs"`
	MaxFileSizeKB int      `mapstructure:"max_file_size_kb"`
	MaxFiles      int      `mapstructure:"max_files"`
}

type ConfigContext struct {
	DefaultBudget int `mapstructure:"default_budget"`
}

type ConfigAI struct {
	Model             string   `mapstructure:"model"`
	FallbackModels    []string `mapstructure:"fallback_models"`
	BaseURL           string   `mapstructure:"base_url"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds"`
	MaxRetries        int      `mapstructure:"max_retries"`
	BackoffInitialMS  int      `mapstructure:"backoff_initial_ms"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	MaxTokens         int      `mapstructure:"max_tokens"`
	Temperature       float64  `mapstructure:"temperature"`
}

type ConfigSite struct {
	Output   string   `mapstructure:"output"`
	Title    string   `mapstructure:"title"`
	Tagline  string   `mapstructure:"tagline"`
	Sections []string `mapstructure:"sections"`
	Prompts  string   `mapstructure:"prompts"`
}

type ConfigRevise struct {
	Policy string `mapstructure:"policy"`
}

type ConfigCache struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type ConfigGenerate struct {
	Workers int `mapstructure:"workers"`
}

// Application configuration file structure
type Config struct {
	Log      ConfigLog      `mapstructure:"log"`
	Scan     ConfigScan     `mapstructure:"scan"`
	Context  ConfigContext  `mapstructure:"context"`
	AI       ConfigAI       `mapstructure:"ai"`
	Site     ConfigSite     `mapstructure:"site"`
	Revise   ConfigRevise   `mapstructure:"revise"`
	Cache    ConfigCache    `mapstructure:"cache"`
	Generate ConfigGenerate `mapstructure:"generate"`
}

// Directories excluded from every scan, merged with the repository's own
// .gitignore rules
var DefaultExcludeDirs = []string{
	".git", ".svn", ".hg", ".bzr",
	"node_modules", "__pycache__", ".pytest_cache",
	"venv", "env", ".venv", ".env", "virtualenv",
	"build", "dist", "target", "out", "bin",
	".idea", ".vscode", ".vs",
	".nyc_output", "coverage",
}

var DefaultConfigLog = ConfigLog{
	Level: "info", // Default log level
	Dir:   "",     // Empty selects the application log directory
}

var DefaultConfigScan = ConfigScan{
	ExcludeDirs:   DefaultExcludeDirs,
	MaxFileSizeKB: 100,   // Default maximum file size in KB
	MaxFiles:      10000, // Default maximum file count
}

var DefaultConfigContext = ConfigContext{
	DefaultBudget: 12000, // Default context budget in characters
}

var DefaultConfigAI = ConfigAI{
	Model:             "openai/gpt-4o",
	FallbackModels:    nil,
	BaseURL:           "", // Empty selects the provider's default endpoint
	TimeoutSeconds:    60,
	MaxRetries:        3,
	BackoffInitialMS:  1000,
	RequestsPerSecond: 2,
	MaxTokens:         4096,
	Temperature:       0.2,
}

var DefaultConfigSite = ConfigSite{
	Output:   "./docs-site",
	Title:    "", // Empty falls back to the repository name
	Tagline:  "",
	Sections: nil, // Empty selects the built-in section layout
	Prompts:  "",  // Empty selects the embedded prompt configuration
}

var DefaultConfigRevise = ConfigRevise{
	Policy: PolicyFingerprint,
}

var DefaultConfigCache = ConfigCache{
	Enabled: true,
	Dir:     "", // Empty selects the application cache directory
}

var DefaultConfigGenerate = ConfigGenerate{
	Workers: 1, // Sections are generated sequentially unless raised
}

// Default application configuration
var DefaultConfig = Config{
	Log:      DefaultConfigLog,
	Scan:     DefaultConfigScan,
	Context:  DefaultConfigContext,
	AI:       DefaultConfigAI,
	Site:     DefaultConfigSite,
	Revise:   DefaultConfigRevise,
	Cache:    DefaultConfigCache,
	Generate: DefaultConfigGenerate,
}

// Revision staleness policies
const (
	PolicyFingerprint = "fingerprint"
	PolicyAlways      = "always"
)

var cfgFile string

// InitFlags registers the persistent flags shared by every command.
func InitFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file (default ./docsite.yaml)")
	rootCmd.PersistentFlags().String("log-level", DefaultConfigLog.Level, "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-dir", DefaultConfigLog.Dir, "Directory for log files")
}

// LoadConfigs loads the application configuration. Precedence, lowest to
// highest: built-in defaults, docsite.yaml (from cwd or --config),
// DOCSITE_ environment variables, command flags.
func LoadConfigs(cmd *cobra.Command, cwd string) (*Config, error) {
	setDefaults()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	} else {
		viper.SetConfigName("docsite")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(cwd)
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	bindFlags(cmd)

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}

// Set default values using Viper
func setDefaults() {
	viper.SetDefault("log.level", DefaultConfigLog.Level)
	viper.SetDefault("log.dir", DefaultConfigLog.Dir)
	viper.SetDefault("scan.exclude_dirs", DefaultConfigScan.ExcludeDirs)
	viper.SetDefault("scan.max_file_size_kb", DefaultConfigScan.MaxFileSizeKB)
	viper.SetDefault("scan.max_files", DefaultConfigScan.MaxFiles)
	viper.SetDefault("context.default_budget", DefaultConfigContext.DefaultBudget)
	viper.SetDefault("ai.model", DefaultConfigAI.Model)
	viper.SetDefault("ai.fallback_models", DefaultConfigAI.FallbackModels)
	viper.SetDefault("ai.base_url", DefaultConfigAI.BaseURL)
	viper.SetDefault("ai.timeout_seconds", DefaultConfigAI.TimeoutSeconds)
	viper.SetDefault("ai.max_retries", DefaultConfigAI.MaxRetries)
	viper.SetDefault("ai.backoff_initial_ms", DefaultConfigAI.BackoffInitialMS)
	viper.SetDefault("ai.requests_per_second", DefaultConfigAI.RequestsPerSecond)
	viper.SetDefault("ai.max_tokens", DefaultConfigAI.MaxTokens)
	viper.SetDefault("ai.temperature", DefaultConfigAI.Temperature)
	viper.SetDefault("site.output", DefaultConfigSite.Output)
	viper.SetDefault("site.title", DefaultConfigSite.Title)
	viper.SetDefault("site.tagline", DefaultConfigSite.Tagline)
	viper.SetDefault("site.sections", DefaultConfigSite.Sections)
	viper.SetDefault("site.prompts", DefaultConfigSite.Prompts)
	viper.SetDefault("revise.policy", DefaultConfigRevise.Policy)
	viper.SetDefault("cache.enabled", DefaultConfigCache.Enabled)
	viper.SetDefault("cache.dir", DefaultConfigCache.Dir)
	viper.SetDefault("generate.workers", DefaultConfigGenerate.Workers)
}

// Map DOCSITE_ environment variables onto configuration keys
func bindEnv() {
	viper.SetEnvPrefix("DOCSITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Bind command flags to configuration keys. Flags that the executing
// command does not define are skipped.
func bindFlags(cmd *cobra.Command) {
	bindings := map[string]string{
		"log.level":              "log-level",
		"log.dir":                "log-dir",
		"site.output":            "output",
		"site.prompts":           "prompts",
		"ai.model":               "model",
		"context.default_budget": "budget",
		"generate.workers":       "workers",
		"revise.policy":          "policy",
	}
	for key, name := range bindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			_ = viper.BindPFlag(key, flag)
		}
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Normalize replaces invalid configuration values with their defaults and
// returns a warning message for each replacement.
func (c *Config) Normalize() []string {
	var warnings []string
	replace := func(field string, invalid, fallback any) {
		warnings = append(warnings, fmt.Sprintf("invalid %s %v, using %v", field, invalid, fallback))
	}

	if !validLogLevels[c.Log.Level] {
		replace("log.level", c.Log.Level, DefaultConfigLog.Level)
		c.Log.Level = DefaultConfigLog.Level
	}
	if c.Scan.MaxFileSizeKB <= 0 {
		replace("scan.max_file_size_kb", c.Scan.MaxFileSizeKB, DefaultConfigScan.MaxFileSizeKB)
		c.Scan.MaxFileSizeKB = DefaultConfigScan.MaxFileSizeKB
	}
	if c.Scan.MaxFiles <= 0 {
		replace("scan.max_files", c.Scan.MaxFiles, DefaultConfigScan.MaxFiles)
		c.Scan.MaxFiles = DefaultConfigScan.MaxFiles
	}
	if c.Context.DefaultBudget <= 0 {
		replace("context.default_budget", c.Context.DefaultBudget, DefaultConfigContext.DefaultBudget)
		c.Context.DefaultBudget = DefaultConfigContext.DefaultBudget
	}
	if c.AI.Model == "" {
		replace("ai.model", `""`, DefaultConfigAI.Model)
		c.AI.Model = DefaultConfigAI.Model
	}
	if c.AI.TimeoutSeconds <= 0 {
		replace("ai.timeout_seconds", c.AI.TimeoutSeconds, DefaultConfigAI.TimeoutSeconds)
		c.AI.TimeoutSeconds = DefaultConfigAI.TimeoutSeconds
	}
	if c.AI.MaxRetries < 0 {
		replace("ai.max_retries", c.AI.MaxRetries, DefaultConfigAI.MaxRetries)
		c.AI.MaxRetries = DefaultConfigAI.MaxRetries
	}
	if c.AI.BackoffInitialMS <= 0 {
		replace("ai.backoff_initial_ms", c.AI.BackoffInitialMS, DefaultConfigAI.BackoffInitialMS)
		c.AI.BackoffInitialMS = DefaultConfigAI.BackoffInitialMS
	}
	if c.AI.RequestsPerSecond <= 0 {
		replace("ai.requests_per_second", c.AI.RequestsPerSecond, DefaultConfigAI.RequestsPerSecond)
		c.AI.RequestsPerSecond = DefaultConfigAI.RequestsPerSecond
	}
	if c.AI.MaxTokens <= 0 {
		replace("ai.max_tokens", c.AI.MaxTokens, DefaultConfigAI.MaxTokens)
		c.AI.MaxTokens = DefaultConfigAI.MaxTokens
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		replace("ai.temperature", c.AI.Temperature, DefaultConfigAI.Temperature)
		c.AI.Temperature = DefaultConfigAI.Temperature
	}
	if c.Revise.Policy != PolicyFingerprint && c.Revise.Policy != PolicyAlways {
		replace("revise.policy", c.Revise.Policy, DefaultConfigRevise.Policy)
		c.Revise.Policy = DefaultConfigRevise.Policy
	}
	if c.Generate.Workers < 1 {
		replace("generate.workers", c.Generate.Workers, DefaultConfigGenerate.Workers)
		c.Generate.Workers = DefaultConfigGenerate.Workers
	}
	return warnings
}
