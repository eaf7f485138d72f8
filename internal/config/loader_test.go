package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(dir)
	assert.False(t, loader.Exists())

	cfg, err := loader.Load()
	require.NoError(t, err)

	// The default "." context resolves to the working directory.
	want := DefaultConfig()
	want.Image.Context = dir
	assert.Equal(t, want, cfg)
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := writeConfig(t, `
image:
  repository: my-robot
`)
	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, "my-robot", cfg.Image.Repository)
	// Everything else falls back to the LeKiwi defaults.
	assert.Equal(t, "Dockerfile", cfg.Image.Dockerfile)
	assert.Equal(t, "robot", cfg.Runtime.User)
	assert.Equal(t, 5555, cfg.Ports.Command)
	assert.Equal(t, 5556, cfg.Ports.Observation)
	assert.Len(t, cfg.Fleet.Fixtures, 2)
	assert.Len(t, cfg.Resources, 3)
}

func TestLoadOverrides(t *testing.T) {
	dir := writeConfig(t, `
image:
  repository: custom-base
  context: ./docker
  base_image: "debian:"
  platforms: ["linux/arm64", "linux/arm/v7"]
runtime:
  user: operator
  uid: 2000
  gid: 2000
ports:
  command: 6000
  observation: 6001
stop:
  grace_seconds: 30
resources:
  - name: tiny
    memory: 128m
    cpus: "0.25"
`)
	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-base", cfg.Image.Repository)
	assert.Equal(t, filepath.Join(dir, "docker"), cfg.Image.Context)
	assert.Equal(t, []string{"linux/arm64", "linux/arm/v7"}, cfg.Image.Platforms)
	assert.Equal(t, "operator", cfg.Runtime.User)
	assert.Equal(t, 2000, cfg.Runtime.UID)
	assert.Equal(t, 6000, cfg.Ports.Command)
	assert.Equal(t, 30, cfg.Stop.GraceSeconds)
	require.Len(t, cfg.Resources, 1)
	assert.Equal(t, ResourceProfile{Name: "tiny", Memory: "128m", CPUs: "0.25"}, cfg.Resources[0])
}

func TestLoadPreservesEnvKeyCase(t *testing.T) {
	dir := writeConfig(t, `
runtime:
  default_env:
    ROBOT_ID: bench-kiwi
    DEPLOY_ENV: staging
fleet:
  fixtures:
    - name: ci_token
      env:
        SD_BOOTSTRAP_TOKEN: bt_ci
        SD_DEVICE_ID: ci-device
`)
	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	// Viper lowercases map keys; the loader restores the YAML's casing.
	assert.Equal(t, "bench-kiwi", cfg.Runtime.DefaultEnv["ROBOT_ID"])
	assert.Equal(t, "staging", cfg.Runtime.DefaultEnv["DEPLOY_ENV"])

	require.Len(t, cfg.Fleet.Fixtures, 1)
	assert.Equal(t, "bt_ci", cfg.Fleet.Fixtures[0].Env["SD_BOOTSTRAP_TOKEN"])
	assert.Equal(t, "ci-device", cfg.Fleet.Fixtures[0].Env["SD_DEVICE_ID"])
}

func TestLoadResolvesRelativeContext(t *testing.T) {
	dir := writeConfig(t, `
image:
  context: docker
`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docker"), 0o755))

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	// A relative context resolves against the config file's directory and
	// comes out absolute, so the executor's working directory and the build
	// argument name the same location instead of stacking.
	assert.True(t, filepath.IsAbs(cfg.Image.Context))
	assert.Equal(t, filepath.Join(dir, "docker"), cfg.Image.Context)
}

func TestLoadResolvesRelativeContextForExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image:\n  context: build/ctx\n"), 0o644))

	cfg, err := NewLoaderForFile(path).Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "build", "ctx"), cfg.Image.Context)
}

func TestLoadKeepsAbsoluteContext(t *testing.T) {
	ctx := t.TempDir()
	dir := writeConfig(t, "image:\n  context: "+ctx+"\n")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, ctx, cfg.Image.Context)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := writeConfig(t, `
ports:
  command: 5555
  observation: 5555
`)
	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := writeConfig(t, "image: [unclosed")
	_, err := NewLoader(dir).Load()
	require.Error(t, err)
}

func TestNewLoaderForFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image:\n  repository: from-flag\n"), 0o644))

	loader := NewLoaderForFile(path)
	assert.Equal(t, path, loader.ConfigPath())
	assert.True(t, loader.Exists())

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Image.Repository)
}

func TestTestTagHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "lekiwi-base:*test*", cfg.TestTagPattern())
	assert.Equal(t, "lekiwi-base:smoke-test", cfg.TestTag("smoke-test"))
}
