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
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/sentrygate/ldap2fa-proxy/event"
)

// NewFileChannel returns a Channel that appends one JSON object per event
// to the file at path, creating it (mode 0600) if necessary.
func NewFileChannel(path string) (Channel, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "ldap2fa-proxy: opening log file %q", path)
	}
	return &fileChannel{f: f}, nil
}

type fileChannel struct {
	mu sync.Mutex
	f  *os.File
}

// Send appends ev to the backing file. A marshal or write failure is
// logged and dropped: the proxy's own correctness never depends on
// logging succeeding.
func (c *fileChannel) Send(e event.Event) {
	data, err := e.MarshalJSON()
	if err != nil {
		log.Errorf("ldap2fa-proxy: marshalling event: %s", err)
		return
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.f.Write(data); err != nil {
		log.Errorf("ldap2fa-proxy: writing event log: %s", err)
	}
}
