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

// Package server wires configuration, the DN cache, the second-factor
// client and the listener into one running process.
package server

import (
	"context"
	"crypto/tls"
	"time"

	logging "github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/sentrygate/ldap2fa-proxy/config"
	"github.com/sentrygate/ldap2fa-proxy/director"
	"github.com/sentrygate/ldap2fa-proxy/internal/ldapproxy"
	"github.com/sentrygate/ldap2fa-proxy/listener"
	"github.com/sentrygate/ldap2fa-proxy/pushers"
	"github.com/sentrygate/ldap2fa-proxy/secondfactor"
)

var log = logging.MustGetLogger("ldap2fa-proxy:server")

// upstreamDialTimeout bounds how long dialing the upstream directory may
// take; the core's own budget is governed by the second-factor timeout.
const upstreamDialTimeout = 10 * time.Second

// Server owns the listener for the lifetime of the process.
type Server struct {
	config *config.Config

	listener *listener.Listener
	cancel   context.CancelFunc
}

// New builds a Server from conf. bus receives every event emitted by
// every session; pass pushers.Dummy() if no backend is configured.
func New(conf *config.Config, bus pushers.Channel) (*Server, error) {
	var tlsConfig *tls.Config
	if conf.TLS.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(conf.TLS.CertFile, conf.TLS.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "server: loading client-facing TLS certificate")
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	dir := &director.StaticDirector{
		Address:            conf.Upstream,
		Timeout:            upstreamDialTimeout,
		TLS:                conf.UpstreamTLS.Enabled,
		InsecureSkipVerify: conf.UpstreamTLS.InsecureSkipVerify,
	}

	sf := secondfactor.NewHTTPClient(conf.SecondFactor.URL, conf.SecondFactorTimeout())

	l := &listener.Listener{
		Addr:            conf.Listen,
		TLS:             tlsConfig,
		Director:        dir,
		ServiceAccounts: conf.ServiceAccounts,
		Cache:           ldapproxy.NewDNCache(),
		SecondFactor:    sf,
		Bus:             bus,
	}

	return &Server{config: conf, listener: l}, nil
}

// Run starts accepting connections. It returns once ctx is canceled or
// the listener fails to bind.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	log.Infof("server: ldap2fa-proxy listening on %s, forwarding to %s", s.config.Listen, s.config.Upstream)

	return s.listener.Run(ctx)
}

// Stop cancels the running listener's context.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
