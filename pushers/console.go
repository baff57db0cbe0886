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
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sentrygate/ldap2fa-proxy/event"
)

// NewConsole returns a Channel that writes every event to os.Stdout, one
// line per event, fields sorted by key.
func NewConsole() Channel {
	return NewWriterChannel(os.Stdout)
}

// NewWriterChannel returns a Channel that writes every event to w.
func NewWriterChannel(w io.Writer) Channel {
	ch := make(chan map[string]interface{}, 100)
	c := &writerChannel{Writer: w, ch: ch}
	go c.run()
	return c
}

type writerChannel struct {
	io.Writer
	ch chan map[string]interface{}
}

func printify(s string) string {
	o := ""
	for _, r := range s {
		if !unicode.IsPrint(r) {
			buf := make([]byte, 4)
			n := utf8.EncodeRune(buf, r)
			o += fmt.Sprintf("\\x%s", hex.EncodeToString(buf[:n]))
			continue
		}
		o += string(r)
	}
	return o
}

func (b *writerChannel) run() {
	for e := range b.ch {
		var params []string
		for k, v := range e {
			switch x := v.(type) {
			case net.IP:
				params = append(params, fmt.Sprintf("%s=%s", k, x.String()))
			case uint32, uint16, uint8, uint,
				int32, int16, int8, int:
				params = append(params, fmt.Sprintf("%s=%d", k, v))
			case time.Time:
				params = append(params, fmt.Sprintf("%s=%s", k, x.String()))
			case string:
				params = append(params, fmt.Sprintf("%s=%s", k, printify(x)))
			default:
				params = append(params, fmt.Sprintf("%s=%#v", k, v))
			}
		}
		sort.Strings(params)
		fmt.Fprintf(b.Writer, "%s > %s > %s\n", e["sensor"], e["category"], strings.Join(params, ", "))
	}
}

// Send delivers ev onto the write queue.
func (b *writerChannel) Send(e event.Event) {
	mp := make(map[string]interface{})
	e.Range(func(key, value interface{}) bool {
		if keyName, ok := key.(string); ok {
			mp[keyName] = value
		}
		return true
	})
	b.ch <- mp
}
