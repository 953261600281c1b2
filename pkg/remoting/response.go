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

package remoting

// Response status codes carried in the frame header.
const (
	StatusOK              byte = 20
	StatusClientTimeout   byte = 30
	StatusServerTimeout   byte = 31
	StatusBadRequest      byte = 40
	StatusBadResponse     byte = 50
	StatusServiceNotFound byte = 60
	StatusServiceError    byte = 70
	StatusServerError     byte = 80
	StatusClientError     byte = 90
)

// A Response answers the Request with the same ID. When Status is not
// StatusOK the Error field carries the failure message and Result is nil.
type Response struct {
	ID     uint64
	Status byte
	Event  bool
	Error  string
	Result any
}

// NewResponse returns an OK response for the given request id.
func NewResponse(id uint64) *Response {
	return &Response{ID: id, Status: StatusOK}
}

// OK reports whether the response carries a successful status.
func (r *Response) OK() bool { return r.Status == StatusOK }

// Heartbeat reports whether the response is a heartbeat event.
func (r *Response) Heartbeat() bool {
	return r.Event && r.Result == nil
}
