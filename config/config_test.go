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
package config

import (
	"strings"
	"testing"
	"time"
)

const testConfig = `
listen = "0.0.0.0:389"
upstream = "ldap.internal:389"
service-accounts = ["svc-backup", "svc-sync"]

[second-factor]
url = "http://2fa.internal/authenticate"
timeout = "3s"

[[logging]]
output = "stdout"
level = "debug"
`

func TestLoadDecodesConfig(t *testing.T) {
	c := Default
	if err := c.Load(strings.NewReader(testConfig)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Listen != "0.0.0.0:389" {
		t.Fatalf("Listen = %q", c.Listen)
	}
	if c.Upstream != "ldap.internal:389" {
		t.Fatalf("Upstream = %q", c.Upstream)
	}
	if len(c.ServiceAccounts) != 2 || c.ServiceAccounts[0] != "svc-backup" {
		t.Fatalf("ServiceAccounts = %v", c.ServiceAccounts)
	}
	if c.SecondFactor.URL != "http://2fa.internal/authenticate" {
		t.Fatalf("SecondFactor.URL = %q", c.SecondFactor.URL)
	}
	if c.SecondFactorTimeout() != 3*time.Second {
		t.Fatalf("SecondFactorTimeout = %s, want 3s", c.SecondFactorTimeout())
	}
}

func TestSecondFactorTimeoutDefault(t *testing.T) {
	c := Config{}
	if got := c.SecondFactorTimeout(); got != 5*time.Second {
		t.Fatalf("SecondFactorTimeout = %s, want default 5s", got)
	}
}
