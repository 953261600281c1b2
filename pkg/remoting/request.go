// Copyright The Dubbo Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package remoting defines the message model and codec contracts shared
// by the exchange layer: requests, responses, invocations, the byte
// buffer consumed by codecs, and the fallback text codec.
package remoting

import "sync/atomic"

// ProtocolVersion is the exchange protocol version written into
// request metadata.
const ProtocolVersion = "2.0.2"

var requestID uint64

// NextRequestID returns a message id unique within this process. Ids
// are monotonically increasing so a transport session never reuses one.
func NextRequestID() uint64 {
	return atomic.AddUint64(&requestID, 1)
}

// A Request is a single outbound message. TwoWay requests expect a
// correlated Response carrying the same ID.
type Request struct {
	ID      uint64
	Version string
	TwoWay  bool
	Event   bool

	// Broken marks a request whose body failed to decode; Data then
	// holds the decode error.
	Broken bool

	Data any
}

// NewRequest returns a two-way Request with a fresh id.
func NewRequest() *Request {
	return &Request{
		ID:      NextRequestID(),
		Version: ProtocolVersion,
		TwoWay:  true,
	}
}

// NewHeartbeat returns a heartbeat event request.
func NewHeartbeat() *Request {
	r := NewRequest()
	r.Event = true
	return r
}

// Heartbeat reports whether the request is a heartbeat: an event frame
// with no payload.
func (r *Request) Heartbeat() bool {
	return r.Event && r.Data == nil
}
