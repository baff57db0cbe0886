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
	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/pkg/errors"
)

// BindRequest is the subset of a BindRequest's positional children the
// proxy needs: protocol version, bind DN, and the authentication choice.
type BindRequest struct {
	Version int64
	DN      string

	// Simple is true for a simple bind (password carried in the clear),
	// false for a SASL bind.
	Simple   bool
	Password []byte

	SASLMechanism string
}

// BindRequest extracts the BindRequest fields from m. It returns an error
// if m is not a BindRequest or its positional children do not have the
// expected shape.
func (m *Message) BindRequest() (*BindRequest, error) {
	op := m.protocolOp()
	if !checkPacket(op, ber.ClassApplication, ber.TypeConstructed, ber.Tag(OpBindRequest)) {
		return nil, errors.New("ldapwire: message is not a BindRequest")
	}
	if len(op.Children) < 3 {
		return nil, errors.New("ldapwire: BindRequest missing positional children")
	}

	version := op.Children[0]
	if !checkPacket(version, ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger) {
		return nil, errors.New("ldapwire: BindRequest version has unexpected shape")
	}

	dn := op.Children[1]
	if !checkPacket(dn, ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString) {
		return nil, errors.New("ldapwire: BindRequest DN has unexpected shape")
	}

	auth := op.Children[2]

	req := &BindRequest{
		Version: forceInt64(version.Value),
		DN:      string(dn.ByteValue),
	}

	switch {
	case auth.ClassType == ber.ClassContext && auth.TagType == ber.TypePrimitive && auth.Tag == authChoiceSimple:
		req.Simple = true
		req.Password = auth.Data.Bytes()
	case auth.ClassType == ber.ClassContext && auth.TagType == ber.TypeConstructed && auth.Tag == authChoiceSASL:
		req.Simple = false
		if len(auth.Children) > 0 {
			req.SASLMechanism = string(auth.Children[0].ByteValue)
		}
	default:
		return nil, errors.New("ldapwire: BindRequest authentication choice has unexpected shape")
	}

	return req, nil
}

// IsUnbindRequest reports whether m is an UnbindRequest.
func (m *Message) IsUnbindRequest() bool {
	op := m.protocolOp()
	return checkPacket(op, ber.ClassApplication, ber.TypePrimitive, ber.Tag(OpUnbindRequest))
}
