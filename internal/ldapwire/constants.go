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

// Package ldapwire is the thin codec adapter the proxy core uses to
// inspect and rewrite LDAP messages. It wraps github.com/go-asn1-ber/asn1-ber
// and exposes nothing beyond the operations the proxy session needs:
// message id, operation kind, bind/search field extraction and a
// synthetic BindResponse builder.
package ldapwire

import ber "github.com/go-asn1-ber/asn1-ber"

// Operation identifies the LDAP protocol operation carried by a message's
// top-level (application-tagged) child.
type Operation int64

// LDAP application operation codes, as assigned by RFC 4511.
const (
	OpUnknown                Operation = -1
	OpBindRequest            Operation = 0
	OpBindResponse           Operation = 1
	OpUnbindRequest          Operation = 2
	OpSearchRequest          Operation = 3
	OpSearchResultEntry      Operation = 4
	OpSearchResultDone       Operation = 5
	OpModifyRequest          Operation = 6
	OpModifyResponse         Operation = 7
	OpAddRequest             Operation = 8
	OpAddResponse            Operation = 9
	OpDelRequest             Operation = 10
	OpDelResponse            Operation = 11
	OpModifyDNRequest        Operation = 12
	OpModifyDNResponse       Operation = 13
	OpCompareRequest         Operation = 14
	OpCompareResponse        Operation = 15
	OpAbandonRequest         Operation = 16
	OpSearchResultReference  Operation = 19
	OpExtendedRequest        Operation = 23
	OpExtendedResponse       Operation = 24
)

// LDAP result codes relevant to the proxy.
const (
	ResultSuccess            int64 = 0
	ResultInvalidCredentials int64 = 49
)

// Authentication choice tags inside a BindRequest (RFC 4511 §4.2).
const (
	authChoiceSimple = ber.Tag(0)
	authChoiceSASL   = ber.Tag(3)
)

// Filter choice tags inside a SearchRequest (RFC 4511 §4.5.1).
const (
	filterChoiceEqualityMatch = ber.Tag(3)
	filterChoicePresent       = ber.Tag(7)
)

// checkPacket verifies a packet's class, type and tag.
func checkPacket(p *ber.Packet, cl ber.Class, ty ber.Type, ta ber.Tag) bool {
	if p == nil {
		return false
	}
	return p.ClassType == cl && p.TagType == ty && p.Tag == ta
}

func forceInt64(v interface{}) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case int32:
		return int64(v)
	case uint32:
		return int64(v)
	case int:
		return int64(v)
	case byte:
		return int64(v)
	default:
		return 0
	}
}
