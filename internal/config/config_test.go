// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/googlegenomics/argo/internal/screen"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "argo.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(viper.New(), writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, screen.DefaultEndpoint, c.Endpoint)
	assert.Equal(t, "grch38", c.Assembly)
	assert.Equal(t, screen.DefaultBatchSize, c.BatchSize)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Empty(t, c.Server.Buckets)
}

func TestLoad_File(t *testing.T) {
	file := writeConfig(t, `
endpoint: https://example.com/graphql
assembly: mm10
batch-size: 5000
server:
  port: 9000
  buckets: [regions, uploads]
  track-usage: true
`)

	c, err := Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/graphql", c.Endpoint)
	assert.Equal(t, "mm10", c.Assembly)
	assert.Equal(t, 5000, c.BatchSize)
	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, []string{"regions", "uploads"}, c.Server.Buckets)
	assert.True(t, c.Server.TrackUsage)
}

func TestLoad_Environment(t *testing.T) {
	file := writeConfig(t, "batch-size: 5000\n")
	t.Setenv("ARGO_BATCH_SIZE", "250")
	t.Setenv("ARGO_SERVER_PORT", "9999")

	c, err := Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, 250, c.BatchSize)
	assert.Equal(t, 9999, c.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{Endpoint: "https://example.com/graphql", Server: Server{Port: 80}}
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"no endpoint", func(c *Config) { c.Endpoint = "" }},
		{"negative batch size", func(c *Config) { c.BatchSize = -1 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"secure without key", func(c *Config) { c.Server.Secure, c.Server.HTTPSCert = true, "cert.pem" }},
		{"unknown profile", func(c *Config) { c.Server.Profile = "trace" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}
