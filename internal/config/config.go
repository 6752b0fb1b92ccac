// Package config resolves pulsar's layered configuration: an explicit
// --config path, then pulsar.toml at the workspace root, then
// release/pulsar.toml, then built-in defaults. Values may also be set via
// PULSAR_* environment variables.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for a pulsar invocation.
type Config struct {
	PackagesDir         string `mapstructure:"packages_dir"`
	ChangesOutputDir    string `mapstructure:"changes_output_dir"`
	UncommittedFilename string `mapstructure:"changes_uncommitted_filename"`
	SinceTagFilename    string `mapstructure:"changes_since_tag_filename"`
	CommitMsgFilename   string `mapstructure:"commit_message_filename"`
	TagMsgFilename      string `mapstructure:"tag_message_filename"`
	TagPrefix           string `mapstructure:"tag_prefix"`
	GitRemote           string `mapstructure:"git_remote"`
	StagingManifestPath string `mapstructure:"staging_pyproject_path"`
	ProdManifestPath    string `mapstructure:"prod_pyproject_path"`
	DryRun              bool   `mapstructure:"dry_run"`
}

// Init points viper at the config sources. Called once from the root
// command before any subcommand runs. cfgFile, when non-empty, bypasses the
// search path entirely.
func Init(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pulsar")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("release")
	}

	viper.SetEnvPrefix("PULSAR")
	viper.AutomaticEnv()
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. A config file that
// exists but cannot be parsed is a fatal error; a missing file is not.
func Load() (Config, error) {
	viper.SetDefault("packages_dir", "packages")
	viper.SetDefault("changes_output_dir", "release/changes")
	viper.SetDefault("changes_uncommitted_filename", "changes_uncommitted.txt")
	viper.SetDefault("changes_since_tag_filename", "changes_since_tag.txt")
	viper.SetDefault("commit_message_filename", "commit_message.txt")
	viper.SetDefault("tag_message_filename", "tag_message.txt")
	viper.SetDefault("tag_prefix", "v")
	viper.SetDefault("git_remote", "origin")
	viper.SetDefault("staging_pyproject_path", "staging/pyproject.toml")
	viper.SetDefault("prod_pyproject_path", "prod/pyproject.toml")
	viper.SetDefault("dry_run", false)

	if err := viper.ReadInConfig(); err != nil {
		// No config file at all is fine; we run on defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Source reports which config file viper settled on, or "<defaults>" when
// none was found.
func Source() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	return "<defaults>"
}
