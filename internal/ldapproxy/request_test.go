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
package ldapproxy

import "testing"

func TestRDNValue(t *testing.T) {
	cases := []struct {
		dn   string
		want string
	}{
		{"CN=svc,OU=s,DC=x", "svc"},
		{"uid=alice,ou=people,dc=example,dc=com", "alice"},
		{"", ""},
		{"nocomma", ""},
		{"=noattr,dc=x", "noattr"},
	}
	for _, c := range cases {
		if got := rdnValue(c.dn); got != c.want {
			t.Errorf("rdnValue(%q) = %q, want %q", c.dn, got, c.want)
		}
	}
}
