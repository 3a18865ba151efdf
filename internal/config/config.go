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

// Package config holds the settings of the argo command, read by viper from
// an argo.yaml file, ARGO_ environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/googlegenomics/argo/internal/argo"
	"github.com/googlegenomics/argo/internal/screen"
	"github.com/spf13/viper"
)

// Server holds the settings of the HTTP service.
type Server struct {
	Port int `mapstructure:"port"`
	// Buckets restricts region objects to the listed buckets.  An empty list
	// allows any bucket.
	Buckets []string `mapstructure:"buckets"`
	// Secure serves HTTPS only and forwards client bearer tokens to storage.
	Secure    bool   `mapstructure:"secure"`
	HTTPSCert string `mapstructure:"https-cert"`
	HTTPSKey  string `mapstructure:"https-key"`
	// TrackUsage sends anonymous usage events to Google Analytics.
	TrackUsage bool `mapstructure:"track-usage"`
	// Profile is empty, "cpu" or "mem".
	Profile string `mapstructure:"profile"`
}

// Config is the root of the settings.
type Config struct {
	// Endpoint is the GraphQL endpoint data is fetched from.
	Endpoint  string `mapstructure:"endpoint"`
	Assembly  string `mapstructure:"assembly"`
	BatchSize int    `mapstructure:"batch-size"`
	Verbose   bool   `mapstructure:"verbose"`
	Server    Server `mapstructure:"server"`
}

// SetDefaults registers the default value of every setting with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", screen.DefaultEndpoint)
	v.SetDefault("assembly", argo.DefaultAssembly)
	v.SetDefault("batch-size", screen.DefaultBatchSize)
	v.SetDefault("verbose", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.buckets", []string{})
	v.SetDefault("server.secure", false)
	v.SetDefault("server.https-cert", "")
	v.SetDefault("server.https-key", "")
	v.SetDefault("server.track-usage", false)
	v.SetDefault("server.profile", "")
}

// Load reads the settings into a Config.  When file is empty argo.yaml is
// looked up in the working directory and $HOME/.argo and may be absent.
// Environment variables such as ARGO_BATCH_SIZE and ARGO_SERVER_PORT
// override the file.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("argo")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.argo")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %v", err)
		}
	}

	v.SetEnvPrefix("ARGO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %v", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint must be set")
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch-size must not be negative, got %d", c.BatchSize)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.Secure && (c.Server.HTTPSCert == "" || c.Server.HTTPSKey == "") {
		return errors.New("server.https-cert and server.https-key are required in secure mode")
	}
	switch c.Server.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("unsupported profile %q", c.Server.Profile)
	}
	return nil
}
