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

// BindResponse is the subset of a BindResponse's positional children the
// proxy needs: result code, matched DN and diagnostic message.
type BindResponse struct {
	ResultCode        int64
	MatchedDN         string
	DiagnosticMessage string
}

// BindResponse extracts the BindResponse fields from m.
func (m *Message) BindResponse() (*BindResponse, error) {
	op := m.protocolOp()
	if !checkPacket(op, ber.ClassApplication, ber.TypeConstructed, ber.Tag(OpBindResponse)) {
		return nil, errors.New("ldapwire: message is not a BindResponse")
	}
	if len(op.Children) < 3 {
		return nil, errors.New("ldapwire: BindResponse missing positional children")
	}

	resultCode := op.Children[0]
	if !checkPacket(resultCode, ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated) {
		return nil, errors.New("ldapwire: BindResponse resultCode has unexpected shape")
	}

	return &BindResponse{
		ResultCode:        forceInt64(resultCode.Value),
		MatchedDN:         string(op.Children[1].ByteValue),
		DiagnosticMessage: string(op.Children[2].ByteValue),
	}, nil
}
