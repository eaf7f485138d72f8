package config

// Config is the root configuration for a fleetcheck run, loaded from
// fleetcheck.yaml in the project directory. Every field has a default that
// matches the LeKiwi base image conventions, so a missing config file still
// produces a runnable harness.
type Config struct {
	// Image describes the container image under test.
	Image ImageConfig `yaml:"image,omitempty" mapstructure:"image"`

	// Runtime describes what the built image is expected to look like at
	// runtime: user identity, default environment, health probe, and the
	// startup markers emitted to the container log.
	Runtime RuntimeConfig `yaml:"runtime,omitempty" mapstructure:"runtime"`

	// Ports are the in-container command/observation ports exposed to the
	// fleet controller.
	Ports PortsConfig `yaml:"ports,omitempty" mapstructure:"ports"`

	// Fleet holds the environment fixtures injected by the fleet manager
	// during provisioning scenarios.
	Fleet FleetConfig `yaml:"fleet,omitempty" mapstructure:"fleet"`

	// Resources are the resource limit profiles the image must tolerate.
	Resources []ResourceProfile `yaml:"resources,omitempty" mapstructure:"resources"`

	// Secrets configures the read-only secrets mount checked by the
	// production suite.
	Secrets SecretsConfig `yaml:"secrets,omitempty" mapstructure:"secrets"`

	// Stop configures graceful shutdown expectations.
	Stop StopConfig `yaml:"stop,omitempty" mapstructure:"stop"`

	// Support names auxiliary images the harness itself depends on.
	Support SupportConfig `yaml:"support,omitempty" mapstructure:"support"`

	// Logging configures fleetcheck's own file logging.
	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
}

// ImageConfig describes the image under test and how to build it.
type ImageConfig struct {
	// Repository is the image repository used for test tags
	// (e.g. "lekiwi-base" → "lekiwi-base:test-amd64").
	Repository string `yaml:"repository,omitempty" mapstructure:"repository"`
	// Context is the build context directory. Relative paths resolve
	// against the config file's directory; the loader makes it absolute.
	Context string `yaml:"context,omitempty" mapstructure:"context"`
	// Dockerfile is the Dockerfile path relative to the context.
	Dockerfile string `yaml:"dockerfile,omitempty" mapstructure:"dockerfile"`
	// BaseImage is the required base image prefix in the Dockerfile FROM line.
	BaseImage string `yaml:"base_image,omitempty" mapstructure:"base_image"`
	// Platforms are the target platforms for the multi-arch build stage.
	Platforms []string `yaml:"platforms,omitempty" mapstructure:"platforms"`
}

// RuntimeConfig describes the expected runtime posture of the image.
type RuntimeConfig struct {
	// User is the non-root user the container must run as.
	User string `yaml:"user,omitempty" mapstructure:"user"`
	// UID and GID are the expected numeric identity of User.
	UID int `yaml:"uid,omitempty" mapstructure:"uid"`
	GID int `yaml:"gid,omitempty" mapstructure:"gid"`
	// DefaultEnv are environment variables the image must bake in.
	DefaultEnv map[string]string `yaml:"default_env,omitempty" mapstructure:"default_env"`
	// HealthProcess is the process pattern the image health check pgreps for.
	HealthProcess string `yaml:"health_process,omitempty" mapstructure:"health_process"`
	// ImportCheck is the in-container command proving the robot runtime
	// dependencies are importable; its stdout must contain ImportMarker.
	ImportCheck  []string `yaml:"import_check,omitempty" mapstructure:"import_check"`
	ImportMarker string   `yaml:"import_marker,omitempty" mapstructure:"import_marker"`
	// SmokeCheck is the in-container command used by the smoke stage; its
	// stdout must contain SmokeMarker.
	SmokeCheck  []string `yaml:"smoke_check,omitempty" mapstructure:"smoke_check"`
	SmokeMarker string   `yaml:"smoke_marker,omitempty" mapstructure:"smoke_marker"`
	// StartupMarkers are log lines the container must emit on startup.
	StartupMarkers []string `yaml:"startup_markers,omitempty" mapstructure:"startup_markers"`
}

// PortsConfig holds the in-container ports for fleet traffic.
type PortsConfig struct {
	// Command is the port the robot receives commands on.
	Command int `yaml:"command,omitempty" mapstructure:"command"`
	// Observation is the port the robot publishes observations on.
	Observation int `yaml:"observation,omitempty" mapstructure:"observation"`
}

// FleetConfig holds fleet-manager provisioning fixtures.
type FleetConfig struct {
	// Fixtures are named environment sets replayed against the container.
	Fixtures []EnvFixture `yaml:"fixtures,omitempty" mapstructure:"fixtures"`
}

// EnvFixture is one named set of environment variables injected by the
// fleet manager. Values are test fixtures, not real credentials.
type EnvFixture struct {
	Name string            `yaml:"name" mapstructure:"name"`
	Env  map[string]string `yaml:"env" mapstructure:"env"`
}

// ResourceProfile is one memory/cpu limit combination the image must run
// under. Memory uses docker-style size strings ("512m", "1g").
type ResourceProfile struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Memory string `yaml:"memory" mapstructure:"memory"`
	CPUs   string `yaml:"cpus" mapstructure:"cpus"`
}

// SecretsConfig configures the production secrets mount check.
type SecretsConfig struct {
	// MountDir is the in-container directory secrets are mounted at.
	MountDir string `yaml:"mount_dir,omitempty" mapstructure:"mount_dir"`
	// TokenFile is the bootstrap token file name inside MountDir.
	TokenFile string `yaml:"token_file,omitempty" mapstructure:"token_file"`
	// CertFile is the device certificate file name inside MountDir.
	CertFile string `yaml:"cert_file,omitempty" mapstructure:"cert_file"`
}

// StopConfig configures graceful shutdown expectations.
type StopConfig struct {
	// GraceSeconds is the docker stop grace period; shutdown must complete
	// within it and the container must exit 0.
	GraceSeconds int `yaml:"grace_seconds,omitempty" mapstructure:"grace_seconds"`
}

// SupportConfig names images the harness itself uses.
type SupportConfig struct {
	// Image is a small utility image pulled by the dependency stage and used
	// for volume scratch work.
	Image string `yaml:"image,omitempty" mapstructure:"image"`
}

// LoggingConfig configures fleetcheck's own file logging.
// File logging is enabled by default; disable via fleetcheck.yaml.
type LoggingConfig struct {
	FileEnabled *bool `yaml:"file_enabled,omitempty" mapstructure:"file_enabled"`
	MaxSizeMB   int   `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxAgeDays  int   `yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	MaxBackups  int   `yaml:"max_backups,omitempty" mapstructure:"max_backups"`
}

// DefaultConfig returns the configuration matching the LeKiwi base image
// conventions. Used both as viper defaults and as the zero-config fallback.
func DefaultConfig() *Config {
	return &Config{
		Image: ImageConfig{
			Repository: "lekiwi-base",
			Context:    ".",
			Dockerfile: "Dockerfile",
			BaseImage:  "python:",
			Platforms:  []string{"linux/arm64"},
		},
		Runtime: RuntimeConfig{
			User: "robot",
			UID:  1000,
			GID:  1000,
			DefaultEnv: map[string]string{
				"ROBOT_ID":   "my-kiwi",
				"DEPLOY_ENV": "production",
			},
			HealthProcess: "lerobot.robots.lekiwi.lekiwi_host",
			ImportCheck: []string{
				"python", "-c",
				"import lerobot; import zmq; import cv2; print('Dependencies OK')",
			},
			ImportMarker: "Dependencies OK",
			SmokeCheck: []string{
				"python", "-c",
				"import lerobot; from lerobot.robots.lekiwi.lekiwi_host import main; print('Smoke test passed')",
			},
			SmokeMarker: "Smoke test passed",
			StartupMarkers: []string{
				"Configuring LeKiwi",
				"Connecting LeKiwi",
				"Starting HostAgent",
			},
		},
		Ports: PortsConfig{
			Command:     5555,
			Observation: 5556,
		},
		Fleet: FleetConfig{
			Fixtures: []EnvFixture{
				{
					Name: "standard_token",
					Env: map[string]string{
						"ROBOT_ID":           "fleet-robot-001",
						"DEPLOY_ENV":         "production",
						"SD_BOOTSTRAP_TOKEN": "bt_1234567890abcdef",
						"SD_DEVICE_ID":       "device-uuid-12345",
					},
				},
				{
					Name: "development_token",
					Env: map[string]string{
						"ROBOT_ID":           "dev-robot-test",
						"DEPLOY_ENV":         "development",
						"SD_BOOTSTRAP_TOKEN": "bt_dev_token_test",
						"SD_DEVICE_ID":       "dev-device-001",
					},
				},
			},
		},
		Resources: []ResourceProfile{
			{Name: "minimal", Memory: "256m", CPUs: "0.5"},
			{Name: "standard", Memory: "512m", CPUs: "1.0"},
			{Name: "high", Memory: "1g", CPUs: "2.0"},
		},
		Secrets: SecretsConfig{
			MountDir:  "/etc/streamdeploy/secrets",
			TokenFile: "bootstrap_token",
			CertFile:  "device.crt",
		},
		Stop: StopConfig{
			GraceSeconds: 10,
		},
		Support: SupportConfig{
			Image: "busybox:latest",
		},
	}
}

// TestTagPattern returns the reference filter matching every image tag the
// harness creates ("<repo>:*test*"). Cleanup removes images matching it.
func (c *Config) TestTagPattern() string {
	return c.Image.Repository + ":*test*"
}

// TestTag builds a test image tag with the given suffix.
func (c *Config) TestTag(suffix string) string {
	return c.Image.Repository + ":" + suffix
}
