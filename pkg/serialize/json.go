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
	"encoding/json"

	"github.com/zhengjianglong915/dubbo/pkg/extension"
)

// JSONSerialization encodes bodies as JSON, mainly for debugging and
// cross-language interop.
type JSONSerialization struct{}

var _ Serialization = (*JSONSerialization)(nil)

func (s *JSONSerialization) ContentTypeID() byte { return JSONID }

func (s *JSONSerialization) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (s *JSONSerialization) Deserialize(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func init() {
	extension.RegisterImplementation("dubbo.serialize.JSONSerialization",
		func() Serialization { return &JSONSerialization{} })
}
