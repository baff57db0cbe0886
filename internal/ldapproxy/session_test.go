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
	"net"
	"sync"
	"testing"
	"time"

	ber "github.com/go-asn1-ber/asn1-ber"

	"github.com/sentrygate/ldap2fa-proxy/internal/ldapwire"
)

// fakeSecondFactor records every login it is asked about and answers
// according to a scripted map, defaulting to refuse.
type fakeSecondFactor struct {
	mu      sync.Mutex
	answers map[string]bool
	calls   []string
}

func newFakeSecondFactor(answers map[string]bool) *fakeSecondFactor {
	return &fakeSecondFactor{answers: answers}
}

func (f *fakeSecondFactor) Authenticate(_ context.Context, login string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, login)
	return f.answers[login]
}

func (f *fakeSecondFactor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSecondFactor) calledWith() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func buildBindRequest(t *testing.T, msgID int64, dn, password string) []byte {
	t.Helper()

	reply := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAPMessage")
	reply.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, msgID, "MessageID"))

	bind := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ber.Tag(ldapwire.OpBindRequest), nil, "BindRequest")
	bind.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, 3, "version"))
	bind.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, dn, "name"))
	auth := ber.NewString(ber.ClassContext, ber.TypePrimitive, ber.Tag(0), password, "simple")
	bind.AppendChild(auth)

	reply.AppendChild(bind)
	return reply.Bytes()
}

func buildSASLBindRequest(t *testing.T, msgID int64, mechanism string) []byte {
	t.Helper()

	reply := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAPMessage")
	reply.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, msgID, "MessageID"))

	bind := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ber.Tag(ldapwire.OpBindRequest), nil, "BindRequest")
	bind.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, 3, "version"))
	bind.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "", "name"))

	sasl := ber.Encode(ber.ClassContext, ber.TypeConstructed, ber.Tag(3), nil, "sasl")
	sasl.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, mechanism, "mechanism"))
	bind.AppendChild(sasl)

	reply.AppendChild(bind)
	return reply.Bytes()
}

func buildBindResponse(t *testing.T, msgID, resultCode int64) []byte {
	t.Helper()
	return ldapwire.BuildBindResponse(msgID, resultCode)
}

func buildSearchRequestFilter(t *testing.T, msgID int64, attr, value string) []byte {
	t.Helper()

	reply := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAPMessage")
	reply.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, msgID, "MessageID"))

	search := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ber.Tag(ldapwire.OpSearchRequest), nil, "SearchRequest")
	search.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "dc=example,dc=com", "baseObject"))
	search.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, 2, "scope"))
	search.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, 0, "derefAliases"))
	search.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, 0, "sizeLimit"))
	search.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, 0, "timeLimit"))
	search.AppendChild(ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, false, "typesOnly"))

	filter := ber.Encode(ber.ClassContext, ber.TypeConstructed, ber.Tag(3), nil, "equalityMatch")
	filter.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, attr, "attributeDesc"))
	filter.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, value, "assertionValue"))
	search.AppendChild(filter)
	search.AppendChild(ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "attributes"))

	reply.AppendChild(search)
	return reply.Bytes()
}

func buildSearchResultEntry(t *testing.T, msgID int64, dn string) []byte {
	t.Helper()

	reply := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAPMessage")
	reply.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, msgID, "MessageID"))

	entry := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ber.Tag(ldapwire.OpSearchResultEntry), nil, "SearchResultEntry")
	entry.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, dn, "objectName"))
	entry.AppendChild(ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "attributes"))

	reply.AppendChild(entry)
	return reply.Bytes()
}

// harness wires a Session between two net.Pipe pairs and hands back the
// client-facing and server-facing ends a test drives directly.
type harness struct {
	clientSide net.Conn
	serverSide net.Conn
	secondFact *fakeSecondFactor
	cache      *DNCache
	done       chan struct{}
}

func newHarness(t *testing.T, serviceAccounts []string, answers map[string]bool) *harness {
	t.Helper()

	clientSide, proxyClient := net.Pipe()
	serverSide, proxyServer := net.Pipe()

	sf := newFakeSecondFactor(answers)
	cache := NewDNCache()

	sess := New("test-session", proxyClient, proxyServer, serviceAccounts, cache, sf, nil)

	h := &harness{
		clientSide: clientSide,
		serverSide: serverSide,
		secondFact: sf,
		cache:      cache,
		done:       make(chan struct{}),
	}

	go func() {
		sess.Start(context.Background())
		close(h.done)
	}()

	return h
}

func readWithTimeout(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, n)
	read, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return buf[:read]
}

func TestSessionSimpleBindSecondFactorAccepts(t *testing.T) {
	h := newHarness(t, nil, map[string]bool{"CN=alice,OU=u,DC=x": true})

	go func() {
		h.clientSide.Write(buildBindRequest(t, 1, "CN=alice,OU=u,DC=x", "pw"))
	}()

	fromServer := readWithTimeout(t, h.serverSide, 4096)
	h.serverSide.Write(buildBindResponse(t, 1, ldapwire.ResultSuccess))

	toClient := readWithTimeout(t, h.clientSide, 4096)

	m, err := ldapwire.Parse(toClient)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	resp, err := m.BindResponse()
	if err != nil {
		t.Fatalf("BindResponse: %v", err)
	}
	if resp.ResultCode != ldapwire.ResultSuccess {
		t.Fatalf("ResultCode = %d, want success", resp.ResultCode)
	}
	if h.secondFact.callCount() != 1 {
		t.Fatalf("second factor called %d times, want 1", h.secondFact.callCount())
	}
	_ = fromServer
}

func TestSessionSimpleBindSecondFactorRefuses(t *testing.T) {
	h := newHarness(t, nil, map[string]bool{"CN=alice,OU=u,DC=x": false})

	go func() {
		h.clientSide.Write(buildBindRequest(t, 1, "CN=alice,OU=u,DC=x", "pw"))
	}()

	readWithTimeout(t, h.serverSide, 4096)
	h.serverSide.Write(buildBindResponse(t, 1, ldapwire.ResultSuccess))

	toClient := readWithTimeout(t, h.clientSide, 4096)

	m, err := ldapwire.Parse(toClient)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	resp, err := m.BindResponse()
	if err != nil {
		t.Fatalf("BindResponse: %v", err)
	}
	if resp.ResultCode != ldapwire.ResultInvalidCredentials {
		t.Fatalf("ResultCode = %d, want invalidCredentials", resp.ResultCode)
	}
	if m.MessageID() != 1 {
		t.Fatalf("MessageID = %d, want 1", m.MessageID())
	}

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate after AuthenticationFailed")
	}

	if calls := h.secondFact.calledWith(); len(calls) != 1 || calls[0] != "CN=alice,OU=u,DC=x" {
		t.Fatalf("calledWith = %v, want exactly one call with the bind DN", calls)
	}
}

func TestSessionSearchThenBindUsesCachedLogin(t *testing.T) {
	h := newHarness(t, nil, map[string]bool{"alice": true})

	go func() {
		h.clientSide.Write(buildSearchRequestFilter(t, 1, "uid", "alice"))
	}()
	readWithTimeout(t, h.serverSide, 4096)
	h.serverSide.Write(buildSearchResultEntry(t, 1, "CN=alice,OU=u,DC=x"))
	readWithTimeout(t, h.clientSide, 4096)

	go func() {
		h.clientSide.Write(buildBindRequest(t, 2, "CN=alice,OU=u,DC=x", "pw"))
	}()
	readWithTimeout(t, h.serverSide, 4096)
	h.serverSide.Write(buildBindResponse(t, 2, ldapwire.ResultSuccess))
	readWithTimeout(t, h.clientSide, 4096)

	calls := h.secondFact.calledWith()
	if len(calls) != 1 || calls[0] != "alice" {
		t.Fatalf("calledWith = %v, want exactly one call with login \"alice\"", calls)
	}
}

func TestSessionServiceAccountBindSkipsSecondFactor(t *testing.T) {
	h := newHarness(t, []string{"svc"}, nil)

	go func() {
		h.clientSide.Write(buildBindRequest(t, 1, "CN=svc,OU=s,DC=x", "pw"))
	}()
	readWithTimeout(t, h.serverSide, 4096)
	h.serverSide.Write(buildBindResponse(t, 1, ldapwire.ResultSuccess))
	readWithTimeout(t, h.clientSide, 4096)

	if h.secondFact.callCount() != 0 {
		t.Fatalf("second factor called %d times, want 0 for a service account", h.secondFact.callCount())
	}
}

func TestSessionAnonymousBindSkipsSecondFactor(t *testing.T) {
	h := newHarness(t, nil, nil)

	go func() {
		h.clientSide.Write(buildBindRequest(t, 1, "", ""))
	}()
	readWithTimeout(t, h.serverSide, 4096)
	h.serverSide.Write(buildBindResponse(t, 1, ldapwire.ResultSuccess))
	readWithTimeout(t, h.clientSide, 4096)

	if h.secondFact.callCount() != 0 {
		t.Fatalf("second factor called %d times, want 0 for anonymous bind", h.secondFact.callCount())
	}
}

func TestSessionSASLBindSkipsSecondFactor(t *testing.T) {
	h := newHarness(t, nil, nil)

	go func() {
		h.clientSide.Write(buildSASLBindRequest(t, 1, "CRAM-MD5"))
	}()
	readWithTimeout(t, h.serverSide, 4096)
	h.serverSide.Write(buildBindResponse(t, 1, ldapwire.ResultSuccess))
	readWithTimeout(t, h.clientSide, 4096)

	if h.secondFact.callCount() != 0 {
		t.Fatalf("second factor called %d times, want 0 for a SASL bind", h.secondFact.callCount())
	}
}
