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
	"strings"

	"github.com/sentrygate/ldap2fa-proxy/event"
	"github.com/sentrygate/ldap2fa-proxy/internal/ldapwire"
)

// lookupAttributes are the equality-filter attributes the proxy treats as
// a user-dn lookup, compared case-insensitively.
var lookupAttributes = map[string]bool{
	"cn":             true,
	"uid":            true,
	"samaccountname": true,
}

// inspectRequest applies the client->server state transitions described
// by the session's authentication state machine. It never rewrites the
// chunk: the return value is always chunk itself, decode failures and
// structural mismatches included.
func (s *Session) inspectRequest(chunk []byte) []byte {
	msg, err := ldapwire.Parse(chunk)
	if err != nil {
		s.logf("request: %s", err)
		s.emit(event.DecodeFailed, event.Error(err), event.Custom("ldap.direction", "request"))
		return chunk
	}

	switch msg.Operation() {
	case ldapwire.OpSearchRequest:
		s.observeSearchRequest(msg)
	case ldapwire.OpBindRequest:
		s.observeBindRequest(msg)
	}

	return chunk
}

func (s *Session) observeSearchRequest(msg *ldapwire.Message) {
	filter, err := msg.SearchRequestFilter()
	if err != nil {
		s.logf("request: search filter: %s", err)
		return
	}
	if filter == nil || !lookupAttributes[strings.ToLower(filter.Attribute)] {
		return
	}

	s.setState(state{
		phase:              UserDnSearch,
		pendingLookupLogin: filter.Value,
	})

	s.emit(event.SearchObserved, event.Custom("ldap.attribute", filter.Attribute), event.Custom("ldap.value", filter.Value))
}

func (s *Session) observeBindRequest(msg *ldapwire.Message) {
	req, err := msg.BindRequest()
	if err != nil {
		s.logf("request: bind request: %s", err)
		return
	}

	if !req.Simple {
		// SASL bind: passed through unmodified, no second factor applied.
		return
	}
	if req.DN == "" {
		// Anonymous bind.
		return
	}

	login := s.deriveLogin(req.DN)
	if s.isServiceAccount(login) || s.isServiceAccount(rdnValue(req.DN)) {
		return
	}

	s.setState(state{
		phase:       BindRequested,
		sessionUser: login,
	})

	s.emit(event.BindObserved, event.Custom("ldap.dn", req.DN), event.Custom("ldap.login", login))
}

// deriveLogin resolves a bind DN to the login that should be passed to
// the second-factor client: the cached login for that DN if one was
// observed, otherwise the DN itself.
func (s *Session) deriveLogin(dn string) string {
	if login, ok := s.cache.Get(dn); ok {
		return login
	}
	return dn
}

func (s *Session) isServiceAccount(login string) bool {
	return s.serviceAccounts[strings.ToLower(login)]
}

// rdnValue returns the attribute value of the first relative distinguished
// name component of dn, e.g. "svc" for "CN=svc,OU=s,DC=x". Administrators
// commonly configure service accounts by their short account name rather
// than their full bind DN; this lets that short name match a bind that
// never went through a search. Returns "" if dn has no "=" in its first
// component.
func rdnValue(dn string) string {
	first := dn
	if i := strings.IndexByte(dn, ','); i >= 0 {
		first = dn[:i]
	}
	i := strings.IndexByte(first, '=')
	if i < 0 {
		return ""
	}
	return first[i+1:]
}
