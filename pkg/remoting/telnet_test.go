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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelnetRoundTrip(t *testing.T) {
	codec := &TelnetCodec{}
	buf := NewBuffer(0)

	require.NoError(t, codec.Encode(buf, "status"))
	got, err := codec.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "status", got)
	assert.Equal(t, 0, buf.ReadableBytes())
}

func TestTelnetNeedsNewline(t *testing.T) {
	codec := &TelnetCodec{}
	buf := WrappedBuffer([]byte("partial command"))

	_, err := codec.Decode(buf)
	assert.ErrorIs(t, err, ErrNeedMoreInput)
	assert.Equal(t, len("partial command"), buf.ReadableBytes())
}
