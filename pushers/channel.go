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
	logging "github.com/op/go-logging"

	"github.com/sentrygate/ldap2fa-proxy/event"
)

var log = logging.MustGetLogger("ldap2fa-proxy:pushers")

// Channel is anything that can receive events. Sessions are handed a
// Channel at construction time and never know what backend (console, file,
// ...) is behind it.
type Channel interface {
	Send(event.Event)
}

// EventBus fans a single Send out to every subscribed Channel.
type EventBus struct {
	subscribers []Channel
}

// NewEventBus returns an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe adds channels to the bus.
func (e *EventBus) Subscribe(channels ...Channel) {
	e.subscribers = append(e.subscribers, channels...)
}

// Send delivers ev to every subscriber.
func (e *EventBus) Send(ev event.Event) {
	for _, subscriber := range e.subscribers {
		subscriber.Send(ev)
	}
}

// Dummy returns a Channel that discards everything sent to it, for tests
// and for configurations that define no logging backend.
func Dummy() Channel {
	return dummyChannel{}
}

type dummyChannel struct{}

func (dummyChannel) Send(event.Event) {}
