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
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"

	logging "github.com/op/go-logging"

	"github.com/sentrygate/ldap2fa-proxy/event"
	"github.com/sentrygate/ldap2fa-proxy/pushers"
	"github.com/sentrygate/ldap2fa-proxy/secondfactor"
)

var log = logging.MustGetLogger("ldap2fa-proxy:ldapproxy")

// readBufferSize is the fixed chunk size the copy loop reads and decodes
// independently. Messages that straddle two reads are not reassembled:
// such a chunk fails to decode, is forwarded unchanged, and causes no
// state transition.
const readBufferSize = 8 * 1024

// Session owns one accepted client connection paired with its upstream
// connection, relays bytes between them, and enforces the authentication
// state machine described in the package doc.
type Session struct {
	ID string

	client net.Conn
	server net.Conn

	cache           *DNCache
	serviceAccounts map[string]bool
	secondFactor    secondfactor.Client
	bus             pushers.Channel

	state atomic.Value
}

// New builds a Session ready to run. serviceAccounts is the set of login
// names exempted from second-factor enforcement, compared
// case-insensitively against the derived login and against the value of
// the bind DN's first RDN.
func New(id string, client, server net.Conn, serviceAccounts []string, cache *DNCache, secondFactor secondfactor.Client, bus pushers.Channel) *Session {
	accounts := make(map[string]bool, len(serviceAccounts))
	for _, a := range serviceAccounts {
		accounts[strings.ToLower(a)] = true
	}

	s := &Session{
		ID:              id,
		client:          client,
		server:          server,
		cache:           cache,
		serviceAccounts: accounts,
		secondFactor:    secondFactor,
		bus:             bus,
	}
	s.setState(state{phase: None})

	return s
}

func (s *Session) getState() state {
	return s.state.Load().(state)
}

func (s *Session) setState(st state) {
	s.state.Store(st)
}

func (s *Session) logf(format string, args ...interface{}) {
	log.Debugf("session %s: "+format, append([]interface{}{s.ID}, args...)...)
}

func (s *Session) emit(typ event.Option, opts ...event.Option) {
	if s.bus == nil {
		return
	}
	all := append([]event.Option{
		event.ProxySensor,
		typ,
		event.Custom("session.id", s.ID),
		event.SourceAddr(s.client.RemoteAddr()),
		event.DestinationAddr(s.server.RemoteAddr()),
	}, opts...)
	s.bus.Send(event.New(all...))
}

// Start runs the session's two copy tasks to completion. It returns once
// either direction terminates; the caller is responsible for observing
// that the peer connection is then unblocked by the resulting Close and
// will wind down on its own.
func (s *Session) Start(ctx context.Context) {
	done := make(chan struct{}, 2)

	go func() {
		s.copyLoop(ctx, s.server, s.client, s.inspectRequestChunk)
		s.client.Close()
		s.server.Close()
		done <- struct{}{}
	}()
	go func() {
		s.copyLoop(ctx, s.client, s.server, s.inspectResponseChunk)
		s.client.Close()
		s.server.Close()
		done <- struct{}{}
	}()

	s.emit(event.SessionOpened)
	<-done
	s.emit(event.SessionClosed)
}

type inspectFn func(ctx context.Context, chunk []byte) []byte

func (s *Session) inspectRequestChunk(_ context.Context, chunk []byte) []byte {
	return s.inspectRequest(chunk)
}

func (s *Session) inspectResponseChunk(ctx context.Context, chunk []byte) []byte {
	return s.inspectResponse(ctx, chunk)
}

// copyLoop reads from src, inspects each chunk, writes the (possibly
// rewritten) result to dst, and closes src once the session has entered
// AuthenticationFailed so the opposite task unblocks on EOF.
func (s *Session) copyLoop(ctx context.Context, dst, src net.Conn, inspect inspectFn) {
	buf := make([]byte, readBufferSize)

	for {
		n, err := src.Read(buf)
		if n > 0 {
			out := inspect(ctx, buf[:n])
			if _, werr := dst.Write(out); werr != nil {
				if !isClosedConnError(werr) {
					log.Errorf("session %s: write: %s", s.ID, werr)
					s.emit(event.ConnectionError, event.Error(werr), event.Custom("ldap.op", "write"))
				}
				return
			}

			if s.getState().phase == AuthenticationFailed {
				src.Close()
				return
			}
		}

		if err != nil {
			if err != io.EOF && !isClosedConnError(err) {
				log.Errorf("session %s: read: %s", s.ID, err)
				s.emit(event.ConnectionError, event.Error(err), event.Custom("ldap.op", "read"))
			}
			return
		}
	}
}

func isClosedConnError(err error) bool {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection reset by peer") ||
		strings.Contains(err.Error(), "broken pipe")
}
