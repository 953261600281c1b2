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
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/zhengjianglong915/dubbo/pkg/extension"
)

// ProtobufSerialization encodes bodies as protobuf. Values must be
// proto.Message; anything else is a serialization error.
type ProtobufSerialization struct{}

var _ Serialization = (*ProtobufSerialization)(nil)

func (s *ProtobufSerialization) ContentTypeID() byte { return ProtobufID }

func (s *ProtobufSerialization) Serialize(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("serialize: protobuf requires a proto.Message, got %T", v)
	}
	return proto.Marshal(m)
}

func (s *ProtobufSerialization) Deserialize(data []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("serialize: protobuf requires a proto.Message target, got %T", v)
	}
	return proto.Unmarshal(data, m)
}

func init() {
	extension.RegisterImplementation("dubbo.serialize.ProtobufSerialization",
		func() Serialization { return &ProtobufSerialization{} })
}
