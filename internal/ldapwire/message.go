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
package ldapwire

import (
	"bytes"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/pkg/errors"
)

// Message is a decoded LDAPMessage envelope: a message id and an ordered
// sequence of children, the first of which is the operation-tagged
// protocolOp.
type Message struct {
	Packet *ber.Packet
}

// Parse decodes the first top-level LDAPMessage found in data. It
// tolerates trailing bytes after that message, since asn1-ber's
// ReadPacket only consumes what one packet needs.
func Parse(data []byte) (*Message, error) {
	p, err := ber.ReadPacket(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "ldapwire: decoding LDAP message")
	}
	if !checkPacket(p, ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence) {
		return nil, errors.New("ldapwire: not an LDAPMessage sequence")
	}
	if len(p.Children) < 1 {
		return nil, errors.New("ldapwire: LDAPMessage missing messageID")
	}
	if !checkPacket(p.Children[0], ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger) {
		return nil, errors.New("ldapwire: LDAPMessage messageID has unexpected shape")
	}

	return &Message{Packet: p}, nil
}

// MessageID returns the message's id.
func (m *Message) MessageID() int64 {
	return forceInt64(m.Packet.Children[0].Value)
}

// Operation returns the operation kind of the message's top-level
// protocolOp child, or OpUnknown if there is none or its shape is
// unrecognized.
func (m *Message) Operation() Operation {
	if len(m.Packet.Children) < 2 {
		return OpUnknown
	}
	op := m.Packet.Children[1]
	if op.ClassType != ber.ClassApplication {
		return OpUnknown
	}
	return Operation(op.Tag)
}

// protocolOp returns the message's second child (the operation-tagged
// body), or nil if absent.
func (m *Message) protocolOp() *ber.Packet {
	if len(m.Packet.Children) < 2 {
		return nil
	}
	return m.Packet.Children[1]
}

func replyEnvelope(messageID int64) *ber.Packet {
	reply := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAPMessage")
	reply.AppendChild(
		ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, messageID, "MessageID"))
	return reply
}

// BuildBindResponse serializes a minimal, well-formed BindResponse
// carrying messageID and resultCode, with empty matchedDN and
// diagnosticMessage fields.
func BuildBindResponse(messageID int64, resultCode int64) []byte {
	reply := replyEnvelope(messageID)

	bindResponse := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ber.Tag(OpBindResponse), nil, "BindResponse")
	bindResponse.AppendChild(
		ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, resultCode, "resultCode"))
	bindResponse.AppendChild(
		ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "", "matchedDN"))
	bindResponse.AppendChild(
		ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, "", "diagnosticMessage"))

	reply.AppendChild(bindResponse)

	return reply.Bytes()
}
