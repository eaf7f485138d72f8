package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty repository",
			mutate:  func(c *Config) { c.Image.Repository = "" },
			wantErr: "image.repository",
		},
		{
			name:    "empty context",
			mutate:  func(c *Config) { c.Image.Context = "" },
			wantErr: "image.context",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Ports.Command = 70000 },
			wantErr: "ports.command",
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.Ports.Observation = -1 },
			wantErr: "ports.observation",
		},
		{
			name: "command equals observation",
			mutate: func(c *Config) {
				c.Ports.Command = 5555
				c.Ports.Observation = 5555
			},
			wantErr: "must differ",
		},
		{
			name: "unnamed resource profile",
			mutate: func(c *Config) {
				c.Resources = []ResourceProfile{{Memory: "512m", CPUs: "1.0"}}
			},
			wantErr: "empty name",
		},
		{
			name: "bad memory size",
			mutate: func(c *Config) {
				c.Resources = []ResourceProfile{{Name: "bad", Memory: "lots", CPUs: "1.0"}}
			},
			wantErr: "invalid memory",
		},
		{
			name: "bad cpus",
			mutate: func(c *Config) {
				c.Resources = []ResourceProfile{{Name: "bad", Memory: "512m", CPUs: "one"}}
			},
			wantErr: "invalid cpus",
		},
		{
			name: "duplicate fixture names",
			mutate: func(c *Config) {
				c.Fleet.Fixtures = []EnvFixture{
					{Name: "token", Env: map[string]string{"A": "1"}},
					{Name: "token", Env: map[string]string{"B": "2"}},
				}
			},
			wantErr: "duplicate fixture",
		},
		{
			name:    "zero grace period",
			mutate:  func(c *Config) { c.Stop.GraceSeconds = 0 },
			wantErr: "grace_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
