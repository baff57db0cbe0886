// Copyright 2026 The ldap2fa-proxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config is the ldap2fa-proxy configuration, loaded once at
// startup by cmd/ldap2fa-proxy.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("ldap2fa-proxy:config")

var format = logging.MustStringFormatter(
	"%{color}%{time:15:04:05.000} %{module} ▶ %{level:.4s} %{id:03x} %{message}%{color:reset}",
)

// TLSConfig names certificate/key files for one side of a TLS connection.
type TLSConfig struct {
	CertFile string `toml:"cert-file"`
	KeyFile  string `toml:"key-file"`
}

// UpstreamTLSConfig controls how the proxy connects to the upstream LDAP
// server.
type UpstreamTLSConfig struct {
	Enabled            bool `toml:"enabled"`
	InsecureSkipVerify bool `toml:"insecure-skip-verify"`
}

// SecondFactorConfig configures the external second-factor service.
type SecondFactorConfig struct {
	URL     string `toml:"url"`
	Timeout Delay  `toml:"timeout"`
}

// Config is the top-level configuration structure, unmarshalled once from
// a TOML file at process startup.
type Config struct {
	// Listen is the address the proxy listens for client connections on.
	Listen string `toml:"listen"`

	// Upstream is the address of the real LDAP directory server.
	Upstream string `toml:"upstream"`

	// ServiceAccounts is the set of login names exempted from second
	// factor enforcement, compared case-insensitively.
	ServiceAccounts []string `toml:"service-accounts"`

	TLS         TLSConfig         `toml:"tls"`
	UpstreamTLS UpstreamTLSConfig `toml:"upstream-tls"`

	SecondFactor SecondFactorConfig `toml:"second-factor"`

	Logging []struct {
		Output string `toml:"output"`
		Level  string `toml:"level"`
	} `toml:"logging"`
}

// Default holds the defaults (a listen address) that the loaded file
// overrides.
var Default = Config{
	Listen: "0.0.0.0:389",
}

// Load decodes a TOML configuration from r into c and configures the
// op/go-logging backends named by c.Logging.
func (c *Config) Load(r io.Reader) error {
	if _, err := toml.DecodeReader(r, c); err != nil {
		return err
	}

	if len(c.Logging) == 0 {
		fmt.Println("Warning: no logging backends configured. Add one to view log messages.")
	}

	var logBackends []logging.Backend
	for _, l := range c.Logging {
		var err error
		var output io.Writer

		switch l.Output {
		case "stdout":
			output = os.Stdout
		case "stderr":
			output = os.Stderr
		default:
			output, err = os.OpenFile(os.ExpandEnv(l.Output), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0660)
		}

		if err != nil {
			return err
		}

		backend := logging.NewLogBackend(output, "", 0)
		backendFormatter := logging.NewBackendFormatter(backend, format)
		backendLeveled := logging.AddModuleLevel(backendFormatter)

		level, err := logging.LogLevel(l.Level)
		if err != nil {
			return err
		}

		backendLeveled.SetLevel(level, "")
		logBackends = append(logBackends, backendLeveled)
	}

	logging.SetBackend(logBackends...)

	return nil
}

// LoadFile opens path and loads configuration from it.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := Default
	if err := c.Load(f); err != nil {
		return nil, err
	}

	return &c, nil
}

// SecondFactorTimeout returns the configured second-factor call timeout,
// or a sane default if unset.
func (c *Config) SecondFactorTimeout() time.Duration {
	if c.SecondFactor.Timeout == 0 {
		return 5 * time.Second
	}
	return c.SecondFactor.Timeout.Duration()
}
