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
	"context"

	"github.com/sentrygate/ldap2fa-proxy/event"
	"github.com/sentrygate/ldap2fa-proxy/internal/ldapwire"
)

// inspectResponse applies the server->client state transitions. It
// returns the bytes that should actually be relayed to the client: either
// chunk unchanged, or a freshly built invalidCredentials BindResponse
// when the second factor refuses a login.
func (s *Session) inspectResponse(ctx context.Context, chunk []byte) []byte {
	msg, err := ldapwire.Parse(chunk)
	if err != nil {
		s.logf("response: %s", err)
		s.emit(event.DecodeFailed, event.Error(err), event.Custom("ldap.direction", "response"))
		return chunk
	}

	cur := s.getState()

	switch cur.phase {
	case UserDnSearch:
		s.observeSearchResult(msg, cur)
		return chunk
	case BindRequested:
		if msg.Operation() != ldapwire.OpBindResponse {
			return chunk
		}
		return s.observeBindResponse(ctx, msg, cur, chunk)
	default:
		return chunk
	}
}

func (s *Session) observeSearchResult(msg *ldapwire.Message, cur state) {
	defer s.setState(state{phase: None})

	if msg.Operation() != ldapwire.OpSearchResultEntry {
		return
	}

	entry, err := msg.SearchResultEntry()
	if err != nil {
		s.logf("response: search result entry: %s", err)
		return
	}

	s.cache.Put(entry.ObjectName, cur.pendingLookupLogin)
	s.emit(event.SearchObserved, event.Custom("ldap.dn", entry.ObjectName), event.Custom("ldap.login", cur.pendingLookupLogin))
}

func (s *Session) observeBindResponse(ctx context.Context, msg *ldapwire.Message, cur state, chunk []byte) []byte {
	resp, err := msg.BindResponse()
	if err != nil {
		s.logf("response: bind response: %s", err)
		s.setState(state{phase: None})
		return chunk
	}

	if resp.ResultCode != ldapwire.ResultSuccess {
		s.setState(state{phase: None})
		return chunk
	}

	s.emit(event.SecondFactorInvoked, event.SecondFactorSensor, event.Custom("ldap.login", cur.sessionUser))

	if s.secondFactor.Authenticate(ctx, cur.sessionUser) {
		s.setState(state{phase: None})
		s.emit(event.SecondFactorAccepted, event.SecondFactorSensor, event.Custom("ldap.login", cur.sessionUser))
		return chunk
	}

	s.setState(state{phase: AuthenticationFailed})
	s.emit(event.SecondFactorRefused, event.SecondFactorSensor, event.Custom("ldap.login", cur.sessionUser))

	return ldapwire.BuildBindResponse(msg.MessageID(), ldapwire.ResultInvalidCredentials)
}
