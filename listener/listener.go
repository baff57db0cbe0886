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

// Package listener accepts client connections, dials the paired upstream
// connection through a director.Director, and hands both streams to an
// internal/ldapproxy.Session.
package listener

import (
	"context"
	"crypto/tls"
	"net"
	"runtime"
	"sync"
	"time"

	logging "github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"golang.org/x/time/rate"

	"github.com/sentrygate/ldap2fa-proxy/director"
	"github.com/sentrygate/ldap2fa-proxy/internal/ldapproxy"
	"github.com/sentrygate/ldap2fa-proxy/pushers"
	"github.com/sentrygate/ldap2fa-proxy/secondfactor"
)

var log = logging.MustGetLogger("ldap2fa-proxy:listener")

// rateLimitInterval and rateLimitBurst bound how many connections a
// single source IP may open.
const (
	rateLimitInterval = time.Minute
	rateLimitBurst    = 20
)

// Listener accepts client connections on Addr, optionally TLS-wrapping
// them, and starts one ldapproxy.Session per accepted connection.
type Listener struct {
	Addr string
	TLS  *tls.Config

	Director        director.Director
	ServiceAccounts []string
	Cache           *ldapproxy.DNCache
	SecondFactor    secondfactor.Client
	Bus             pushers.Channel

	limiters sync.Map
}

// Run listens on l.Addr until ctx is canceled or accepting fails.
func (l *Listener) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return errors.Wrapf(err, "listener: binding %q", l.Addr)
	}
	if l.TLS != nil {
		ln = tls.NewListener(ln, l.TLS)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Infof("listener: accepting connections on %s", l.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return errors.Wrap(err, "listener: accept")
			}
		}

		if !l.allow(conn.RemoteAddr()) {
			log.Warningf("listener: rate limit exceeded for %s", conn.RemoteAddr())
			conn.Close()
			continue
		}

		go l.handle(ctx, conn)

		runtime.Gosched()
	}
}

func (l *Listener) allow(addr net.Addr) bool {
	ta, ok := addr.(*net.TCPAddr)
	if !ok {
		return true
	}

	limiter := rate.NewLimiter(rate.Every(rateLimitInterval), rateLimitBurst)
	v, _ := l.limiters.LoadOrStore(ta.IP.String(), limiter)
	return v.(*rate.Limiter).Allow()
}

func (l *Listener) handle(ctx context.Context, client net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("listener: recovered panic handling %s: %v", client.RemoteAddr(), r)
			client.Close()
		}
	}()

	server, err := l.Director.Dial(ctx, client)
	if err != nil {
		log.Errorf("listener: dialing upstream for %s: %s", client.RemoteAddr(), err)
		client.Close()
		return
	}

	id := xid.New().String()

	sess := ldapproxy.New(id, client, server, l.ServiceAccounts, l.Cache, l.SecondFactor, l.Bus)
	sess.Start(ctx)
}
