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
package pushers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sentrygate/ldap2fa-proxy/event"
)

func TestWriterChannelFormatsFields(t *testing.T) {
	var buf bytes.Buffer
	c := NewWriterChannel(&buf)

	c.Send(event.New(
		event.Sensor("proxy"),
		event.Category("ldap"),
		event.Custom("login", "alice"),
	))

	deadline := time.Now().Add(time.Second)
	for buf.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	line := buf.String()
	if !strings.Contains(line, "proxy > ldap >") {
		t.Fatalf("line = %q, missing sensor/category prefix", line)
	}
	if !strings.Contains(line, "login=alice") {
		t.Fatalf("line = %q, missing login field", line)
	}
}

func TestPrintifyEscapesNonPrintable(t *testing.T) {
	if got := printify("a\x01b"); got != `a\x01b` {
		t.Fatalf("printify = %q", got)
	}
}
