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

package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhengjianglong915/dubbo/pkg/extension"
)

func TestBuiltinSerializationsAreLoaded(t *testing.T) {
	reg := extension.For(Point)
	names := reg.SupportedNames()
	assert.Contains(t, names, "hessian2")
	assert.Contains(t, names, "json")
	assert.Contains(t, names, "protobuf")
	assert.Equal(t, DefaultName, reg.DefaultName())
}

func TestByName(t *testing.T) {
	s, err := ByName("json")
	require.NoError(t, err)
	assert.Equal(t, JSONID, s.ContentTypeID())

	_, err = ByName("bogus")
	require.Error(t, err)
}

func TestByID(t *testing.T) {
	s, err := ByID(JSONID)
	require.NoError(t, err)
	assert.Equal(t, JSONID, s.ContentTypeID())

	s, err = ByID(Hessian2ID)
	require.NoError(t, err)
	assert.Equal(t, Hessian2ID, s.ContentTypeID())

	_, err = ByID(0x1f)
	require.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	s := &JSONSerialization{}

	in := map[string]any{"method": "sayHello", "args": []any{"world"}}
	data, err := s.Serialize(in)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, s.Deserialize(data, &out))
	assert.Equal(t, "sayHello", out["method"])

	// Typed targets round-trip as well.
	type payload struct {
		Method string `json:"method"`
	}
	var typed payload
	require.NoError(t, s.Deserialize(data, &typed))
	assert.Equal(t, "sayHello", typed.Method)
}

func TestJSONSerializeNil(t *testing.T) {
	s := &JSONSerialization{}

	data, err := s.Serialize(nil)
	require.NoError(t, err)

	var out any = "sentinel"
	require.NoError(t, s.Deserialize(data, &out))
	assert.Nil(t, out)
}

func TestProtobufRejectsNonMessages(t *testing.T) {
	s := &ProtobufSerialization{}
	_, err := s.Serialize("not a message")
	require.Error(t, err)
	require.Error(t, s.Deserialize([]byte{}, "not a message"))
}
