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

import (
	"errors"
	"fmt"
)

// ErrNeedMoreInput is the sentinel returned by Decode when the buffer
// does not yet hold a complete message. It is not a failure: the caller
// retries after more bytes arrive, and the buffer's reader index is
// left where it was.
var ErrNeedMoreInput = errors.New("remoting: need more input")

// ExceedPayloadError reports a message body larger than the configured
// payload limit.
type ExceedPayloadError struct {
	Size  int
	Limit int
}

func (e *ExceedPayloadError) Error() string {
	return fmt.Sprintf("remoting: data length %d exceeds payload limit %d", e.Size, e.Limit)
}

// A Codec translates between messages and buffered bytes. Encode
// appends one complete frame; Decode consumes at most one message and
// returns ErrNeedMoreInput when the frame is incomplete.
type Codec interface {
	Encode(buf *Buffer, msg any) error
	Decode(buf *Buffer) (any, error)
}
