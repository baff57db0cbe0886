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

import (
	"sync"
	"testing"
)

func TestDNCacheGetMiss(t *testing.T) {
	c := NewDNCache()
	if _, ok := c.Get("cn=nobody,dc=example,dc=com"); ok {
		t.Fatal("Get on empty cache returned ok=true")
	}
}

func TestDNCachePutGet(t *testing.T) {
	c := NewDNCache()
	c.Put("cn=alice,dc=example,dc=com", "alice")

	login, ok := c.Get("cn=alice,dc=example,dc=com")
	if !ok {
		t.Fatal("Get after Put returned ok=false")
	}
	if login != "alice" {
		t.Fatalf("login = %q, want alice", login)
	}
}

func TestDNCaseSensitive(t *testing.T) {
	c := NewDNCache()
	c.Put("cn=alice,dc=example,dc=com", "alice")

	if _, ok := c.Get("CN=alice,dc=example,dc=com"); ok {
		t.Fatal("Get matched a differently-cased DN, want case-sensitive miss")
	}
}

func TestDNCacheOverwrite(t *testing.T) {
	c := NewDNCache()
	c.Put("cn=alice,dc=example,dc=com", "alice")
	c.Put("cn=alice,dc=example,dc=com", "alice2")

	login, _ := c.Get("cn=alice,dc=example,dc=com")
	if login != "alice2" {
		t.Fatalf("login = %q, want most recent value alice2", login)
	}
}

func TestDNCacheConcurrentAccess(t *testing.T) {
	c := NewDNCache()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put("cn=user,dc=example,dc=com", "user")
			c.Get("cn=user,dc=example,dc=com")
		}(i)
	}
	wg.Wait()

	if login, ok := c.Get("cn=user,dc=example,dc=com"); !ok || login != "user" {
		t.Fatalf("Get after concurrent writes = (%q, %v)", login, ok)
	}
}
