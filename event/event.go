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
package event

import (
	"fmt"
	"net"
)

// Event types emitted around the lifecycle of a proxy session.
var (
	SessionOpened        = Type("SESSION:OPENED")
	SessionClosed        = Type("SESSION:CLOSED")
	BindObserved         = Type("LDAP:BIND")
	SearchObserved       = Type("LDAP:SEARCH")
	SecondFactorInvoked  = Type("2FA:INVOKED")
	SecondFactorRefused  = Type("2FA:REFUSED")
	SecondFactorAccepted = Type("2FA:ACCEPTED")
	DecodeFailed         = Type("LDAP:DECODE-FAILED")
	ConnectionError      = Type("CONNECTION:ERROR")
)

// Sensor names used to tag events by originating subsystem.
var (
	ProxySensor       = Sensor("proxy")
	SecondFactorSensor = Sensor("secondfactor")
)

// Option defines a function type for event modifications.
type Option func(Event)

// Apply applies all options to the Event, returning it once done.
func Apply(e Event, opts ...Option) Event {
	for _, option := range opts {
		option(e)
	}
	return e
}

// NewWith combines a set of options into a single option which applies
// all of them in sequence when called.
func NewWith(opts ...Option) Option {
	return func(e Event) {
		for _, option := range opts {
			option(e)
		}
	}
}

// Category returns an option for setting the category value.
func Category(s string) Option {
	return func(m Event) {
		m.Store("category", s)
	}
}

// Type returns an option for setting the type value.
func Type(s string) Option {
	return func(m Event) {
		m.Store("type", s)
	}
}

// Sensor returns an option for setting the sensor value.
func Sensor(s string) Option {
	return func(m Event) {
		m.Store("sensor", s)
	}
}

// Error returns an option for setting the error value.
func Error(err error) Option {
	return func(m Event) {
		if err != nil {
			m.Store("error", err.Error())
		}
	}
}

// SourceAddr returns an option for setting the source address.
func SourceAddr(addr net.Addr) Option {
	return func(m Event) {
		if addr == nil {
			return
		}
		if ta, ok := addr.(*net.TCPAddr); ok {
			m.Store("source-ip", ta.IP.String())
			m.Store("source-port", ta.Port)
			return
		}
		m.Store("source-addr", addr.String())
	}
}

// DestinationAddr returns an option for setting the destination address.
func DestinationAddr(addr net.Addr) Option {
	return func(m Event) {
		if addr == nil {
			return
		}
		if ta, ok := addr.(*net.TCPAddr); ok {
			m.Store("destination-ip", ta.IP.String())
			m.Store("destination-port", ta.Port)
			return
		}
		m.Store("destination-addr", addr.String())
	}
}

// Custom returns an option for setting an arbitrary key-value pair.
func Custom(name string, value interface{}) Option {
	return func(m Event) {
		m.Store(name, value)
	}
}

// Message returns an option setting a formatted human-readable message.
func Message(format string, a ...interface{}) Option {
	return func(m Event) {
		m.Store("message", fmt.Sprintf(format, a...))
	}
}

// ToMap returns a map containing all data stored on the event.
func ToMap(ev Event) map[string]interface{} {
	mp := make(map[string]interface{})
	ev.Range(func(key, value interface{}) bool {
		if keyName, ok := key.(string); ok {
			mp[keyName] = value
		}
		return true
	})
	return mp
}
