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

// Package director abstracts how the proxy obtains the upstream
// connection that is paired with an accepted client connection.
package director

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	logging "github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("ldap2fa-proxy:director")

// Director dials the upstream LDAP server for a client connection. It is
// deliberately narrower than a container orchestrator: this proxy always
// dials the single configured upstream address.
type Director interface {
	Dial(ctx context.Context, client net.Conn) (net.Conn, error)
}

// StaticDirector dials a single, fixed upstream address, optionally
// wrapping the resulting connection in TLS.
type StaticDirector struct {
	Address string
	Timeout time.Duration

	TLS                bool
	InsecureSkipVerify bool
}

// Dial connects to the configured upstream. The client connection is
// accepted but unused beyond logging; a future Director implementation
// (e.g. one that picks an upstream based on the client's source address)
// can make use of it.
func (d *StaticDirector) Dial(ctx context.Context, client net.Conn) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "director: dialing upstream %q", d.Address)
	}

	if !d.TLS {
		return conn, nil
	}

	tlsConn := tls.Client(conn, &tls.Config{
		InsecureSkipVerify: d.InsecureSkipVerify,
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "director: upstream TLS handshake")
	}

	log.Debugf("director: dialed upstream %s (tls=%v) for client %s", d.Address, d.TLS, client.RemoteAddr())

	return tlsConn, nil
}
