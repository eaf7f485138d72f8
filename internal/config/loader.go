package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the default configuration file name.
const ConfigFileName = "fleetcheck.yaml"

// Loader handles loading and parsing of fleetcheck configuration.
type Loader struct {
	workDir string
	path    string // explicit config file path, overrides workDir lookup
	viper   *viper.Viper
}

// NewLoader creates a configuration loader for the given working directory.
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir: workDir,
		viper:   viper.New(),
	}
}

// NewLoaderForFile creates a loader bound to an explicit config file path.
func NewLoaderForFile(path string) *Loader {
	return &Loader{
		path:  path,
		viper: viper.New(),
	}
}

// ConfigPath returns the full path to the config file.
func (l *Loader) ConfigPath() string {
	if l.path != "" {
		return l.path
	}
	return filepath.Join(l.workDir, ConfigFileName)
}

// Exists checks if the configuration file exists.
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// Load reads and parses the fleetcheck.yaml configuration file.
// A missing file is not an error: defaults describe the LeKiwi base image,
// so the harness runs unconfigured in that repository's root.
func (l *Loader) Load() (*Config, error) {
	configPath := l.ConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.resolveContext(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	l.viper.SetConfigFile(configPath)
	l.viper.SetConfigType("yaml")

	defaults := DefaultConfig()
	l.viper.SetDefault("image.repository", defaults.Image.Repository)
	l.viper.SetDefault("image.context", defaults.Image.Context)
	l.viper.SetDefault("image.dockerfile", defaults.Image.Dockerfile)
	l.viper.SetDefault("image.base_image", defaults.Image.BaseImage)
	l.viper.SetDefault("image.platforms", defaults.Image.Platforms)
	l.viper.SetDefault("runtime.user", defaults.Runtime.User)
	l.viper.SetDefault("runtime.uid", defaults.Runtime.UID)
	l.viper.SetDefault("runtime.gid", defaults.Runtime.GID)
	l.viper.SetDefault("runtime.default_env", defaults.Runtime.DefaultEnv)
	l.viper.SetDefault("runtime.health_process", defaults.Runtime.HealthProcess)
	l.viper.SetDefault("runtime.import_check", defaults.Runtime.ImportCheck)
	l.viper.SetDefault("runtime.import_marker", defaults.Runtime.ImportMarker)
	l.viper.SetDefault("runtime.smoke_check", defaults.Runtime.SmokeCheck)
	l.viper.SetDefault("runtime.smoke_marker", defaults.Runtime.SmokeMarker)
	l.viper.SetDefault("runtime.startup_markers", defaults.Runtime.StartupMarkers)
	l.viper.SetDefault("ports.command", defaults.Ports.Command)
	l.viper.SetDefault("ports.observation", defaults.Ports.Observation)
	l.viper.SetDefault("secrets.mount_dir", defaults.Secrets.MountDir)
	l.viper.SetDefault("secrets.token_file", defaults.Secrets.TokenFile)
	l.viper.SetDefault("secrets.cert_file", defaults.Secrets.CertFile)
	l.viper.SetDefault("stop.grace_seconds", defaults.Stop.GraceSeconds)
	l.viper.SetDefault("support.image", defaults.Support.Image)

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Lists have no viper defaults (SetDefault on a slice of maps doesn't
	// merge); fall back wholesale when the file omits them.
	if len(cfg.Fleet.Fixtures) == 0 {
		cfg.Fleet.Fixtures = defaults.Fleet.Fixtures
	}
	if len(cfg.Resources) == 0 {
		cfg.Resources = defaults.Resources
	}

	// Viper lowercases map keys, but env var names are case-sensitive.
	// Re-read the YAML to restore original casing for env maps.
	if err := l.fixEnvKeyCase(&cfg, configPath); err != nil {
		return nil, fmt.Errorf("failed to restore env key case: %w", err)
	}

	if err := l.resolveContext(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveContext makes the build context absolute. A relative context is
// resolved against the config file's directory, so the executor's working
// directory, the docker build argument, and Dockerfile reads all name the
// same location regardless of where fleetcheck was invoked from.
func (l *Loader) resolveContext(cfg *Config) error {
	if filepath.IsAbs(cfg.Image.Context) {
		return nil
	}
	abs, err := filepath.Abs(filepath.Join(filepath.Dir(l.ConfigPath()), cfg.Image.Context))
	if err != nil {
		return fmt.Errorf("failed to resolve build context: %w", err)
	}
	cfg.Image.Context = abs
	return nil
}

// fixEnvKeyCase re-reads the YAML to preserve original case for env var keys.
func (l *Loader) fixEnvKeyCase(cfg *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	// Partial struct just for extracting env maps with original case.
	var raw struct {
		Runtime struct {
			DefaultEnv map[string]string `yaml:"default_env"`
		} `yaml:"runtime"`
		Fleet struct {
			Fixtures []struct {
				Name string            `yaml:"name"`
				Env  map[string]string `yaml:"env"`
			} `yaml:"fixtures"`
		} `yaml:"fleet"`
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Runtime.DefaultEnv) > 0 {
		cfg.Runtime.DefaultEnv = raw.Runtime.DefaultEnv
	}
	for _, rf := range raw.Fleet.Fixtures {
		for i := range cfg.Fleet.Fixtures {
			if cfg.Fleet.Fixtures[i].Name == rf.Name && len(rf.Env) > 0 {
				cfg.Fleet.Fixtures[i].Env = rf.Env
			}
		}
	}

	return nil
}
