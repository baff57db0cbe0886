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

// searchRequestFilterIndex is the fixed positional index of the filter
// child within a SearchRequest's children (RFC 4511 §4.5.1: baseObject,
// scope, derefAliases, sizeLimit, timeLimit, typesOnly, filter, attributes).
const searchRequestFilterIndex = 6

// EqualityFilter is the proxy's only search filter concern: a top-level
// equalityMatch filter of the form attr=value.
type EqualityFilter struct {
	Attribute string
	Value     string
}

// SearchRequestFilter extracts the equalityMatch filter from a
// SearchRequest, if the filter is exactly that shape. It returns
// (nil, nil) for any other filter choice (present, substrings, and/or,
// etc.) since the proxy only ever correlates on simple equality filters.
func (m *Message) SearchRequestFilter() (*EqualityFilter, error) {
	op := m.protocolOp()
	if !checkPacket(op, ber.ClassApplication, ber.TypeConstructed, ber.Tag(OpSearchRequest)) {
		return nil, errors.New("ldapwire: message is not a SearchRequest")
	}
	if len(op.Children) <= searchRequestFilterIndex {
		return nil, errors.New("ldapwire: SearchRequest missing filter")
	}

	filter := op.Children[searchRequestFilterIndex]
	if filter.ClassType != ber.ClassContext || filter.TagType != ber.TypeConstructed || filter.Tag != filterChoiceEqualityMatch {
		return nil, nil
	}
	if len(filter.Children) != 2 {
		return nil, errors.New("ldapwire: equalityMatch filter missing attribute/value pair")
	}

	return &EqualityFilter{
		Attribute: string(filter.Children[0].ByteValue),
		Value:     string(filter.Children[1].ByteValue),
	}, nil
}

// SearchResultEntry is the subset of a SearchResultEntry's fields the
// proxy needs: the entry's distinguished name.
type SearchResultEntry struct {
	ObjectName string
}

// SearchResultEntry extracts the objectName from m.
func (m *Message) SearchResultEntry() (*SearchResultEntry, error) {
	op := m.protocolOp()
	if !checkPacket(op, ber.ClassApplication, ber.TypeConstructed, ber.Tag(OpSearchResultEntry)) {
		return nil, errors.New("ldapwire: message is not a SearchResultEntry")
	}
	if len(op.Children) < 1 {
		return nil, errors.New("ldapwire: SearchResultEntry missing objectName")
	}

	return &SearchResultEntry{
		ObjectName: string(op.Children[0].ByteValue),
	}, nil
}
