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
	"bytes"
	"fmt"
	"strings"
)

// TelnetCodec is the fallback codec for bytes that do not start a
// binary frame: it treats the stream as newline-terminated text
// commands. The exchange codec delegates to it when magic
// resynchronization skips leading garbage.
type TelnetCodec struct{}

var _ Codec = (*TelnetCodec)(nil)

// Encode writes msg as a text line. Strings are written verbatim with a
// trailing CRLF; other values use their default formatting.
func (c *TelnetCodec) Encode(buf *Buffer, msg any) error {
	s, ok := msg.(string)
	if !ok {
		s = fmt.Sprint(msg)
	}
	buf.WriteBytes([]byte(s))
	buf.WriteBytes([]byte("\r\n"))
	return nil
}

// Decode consumes one newline-terminated command and returns it with
// surrounding whitespace trimmed. Without a newline the input is left
// untouched and ErrNeedMoreInput is returned.
func (c *TelnetCodec) Decode(buf *Buffer) (any, error) {
	i := bytes.IndexByte(buf.Bytes(), '\n')
	if i < 0 {
		return nil, ErrNeedMoreInput
	}
	line := buf.ReadBytes(i + 1)
	return strings.TrimSpace(string(line)), nil
}
