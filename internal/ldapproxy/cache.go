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

// Package ldapproxy implements the per-connection LDAP proxy session: the
// state machine that watches a bind/search conversation go by, resolves a
// bound distinguished name back to the login the directory searched for,
// and consults a second-factor service before letting a successful bind
// reach the client.
package ldapproxy

import "sync"

// DNCache maps a distinguished name observed in a SearchResultEntry back to
// the login attribute value the search was filtered on. It is process-wide,
// unbounded and safe for concurrent use from every session's goroutines.
type DNCache struct {
	m sync.Map
}

// NewDNCache returns an empty cache.
func NewDNCache() *DNCache {
	return &DNCache{}
}

// Put records that dn corresponds to login. A later Put for the same dn
// overwrites the earlier login, matching the most recent search result.
func (c *DNCache) Put(dn, login string) {
	c.m.Store(dn, login)
}

// Get returns the login previously recorded for dn, and whether one was
// found. Keys are compared case-sensitively; the cache never normalizes a
// distinguished name's case.
func (c *DNCache) Get(dn string) (string, bool) {
	v, ok := c.m.Load(dn)
	if !ok {
		return "", false
	}
	return v.(string), true
}
