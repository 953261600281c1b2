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
	hessian "github.com/apache/dubbo-go-hessian2"

	"github.com/zhengjianglong915/dubbo/pkg/extension"
)

// Hessian2Serialization is the default wire serializer, compatible with
// the Java hessian2 body encoding.
type Hessian2Serialization struct{}

var _ Serialization = (*Hessian2Serialization)(nil)

func (s *Hessian2Serialization) ContentTypeID() byte { return Hessian2ID }

func (s *Hessian2Serialization) Serialize(v any) ([]byte, error) {
	e := hessian.NewEncoder()
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return e.Buffer(), nil
}

func (s *Hessian2Serialization) Deserialize(data []byte, v any) error {
	raw, err := hessian.NewDecoder(data).Decode()
	if err != nil {
		return err
	}
	if p, ok := v.(*any); ok {
		*p = raw
		return nil
	}
	return hessian.ReflectResponse(raw, v)
}

func init() {
	extension.RegisterImplementation("dubbo.serialize.Hessian2Serialization",
		func() Serialization { return &Hessian2Serialization{} })
}
