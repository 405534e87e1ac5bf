package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the user-level configuration (~/.malcontent-action/config.yaml).
type Config struct {
	Scanner ScannerConfig `mapstructure:"scanner"`
	Comment CommentConfig `mapstructure:"comment"`
}

type ScannerConfig struct {
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	Image     string   `mapstructure:"image"`
	UseDocker bool     `mapstructure:"use_docker"`
	MinRisk   string   `mapstructure:"min_risk"`
}

type CommentConfig struct {
	// MaxChars caps the rendered comment body. Hosting platforms limit
	// comment sizes, so this stays configuration rather than a constant.
	MaxChars int  `mapstructure:"max_chars"`
	Post     bool `mapstructure:"post"`
}

// RepoConfig is the repo-local configuration (.malcontent-action.yaml).
type RepoConfig struct {
	Report ReportConfig `mapstructure:"report"`
	Output OutputConfig `mapstructure:"output"`
}

type ReportConfig struct {
	MinLevel       string `mapstructure:"min_level"`
	FailOnIncrease bool   `mapstructure:"fail_on_increase"`
}

type OutputConfig struct {
	SARIF    string `mapstructure:"sarif"`
	Markdown string `mapstructure:"markdown"`
}

func Defaults() Config {
	return Config{
		Scanner: ScannerConfig{
			Command: "mal",
			Image:   "cgr.dev/chainguard/malcontent:latest",
			MinRisk: "low",
		},
		Comment: CommentConfig{
			MaxChars: 55000,
			Post:     true,
		},
	}
}

func DefaultRepoConfig() RepoConfig {
	return RepoConfig{}
}

func Load(configPath string) (Config, RepoConfig, error) {
	userCfg := Defaults()
	repoCfg := DefaultRepoConfig()

	if err := loadUserConfig(configPath, &userCfg); err != nil {
		return Config{}, RepoConfig{}, err
	}
	if err := loadRepoConfig(&repoCfg); err != nil {
		return Config{}, RepoConfig{}, err
	}

	if userCfg.Scanner.Command == "" {
		userCfg.Scanner.Command = "mal"
	}
	if userCfg.Scanner.Image == "" {
		userCfg.Scanner.Image = "cgr.dev/chainguard/malcontent:latest"
	}
	if userCfg.Scanner.MinRisk == "" {
		userCfg.Scanner.MinRisk = "low"
	}
	if userCfg.Comment.MaxChars == 0 {
		userCfg.Comment.MaxChars = 55000
	}

	return userCfg, repoCfg, nil
}

func loadUserConfig(configPath string, cfg *Config) error {
	path := configPath
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".malcontent-action", "config.yaml")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read user config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load user config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse user config: %w", err)
	}
	return nil
}

func loadRepoConfig(cfg *RepoConfig) error {
	path := filepath.Join(".", ".malcontent-action.yaml")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read repo config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load repo config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse repo config: %w", err)
	}
	return nil
}
