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

// Package serialize declares the body-serialization extension point and
// the built-in wire serializers. The exchange codec picks a serializer
// by name on encode (URL parameter "serialization") and by content type
// id on decode (low five bits of the frame flag byte).
package serialize

import (
	"embed"
	"fmt"
	"sync"

	"github.com/zhengjianglong915/dubbo/pkg/extension"
)

//go:embed META-INF
var builtinDescriptors embed.FS

// DefaultName is the serializer used when a URL does not specify one.
const DefaultName = "hessian2"

// KeySerialization is the URL parameter naming the serializer.
const KeySerialization = "serialization"

// Content type ids written into the frame header.
const (
	Hessian2ID byte = 2
	JSONID     byte = 6
	ProtobufID byte = 21
)

// Serialization converts message bodies to and from bytes. Every
// implementation carries the content type id written into the frame
// header so the peer can resolve the same serializer.
type Serialization interface {
	ContentTypeID() byte
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, v any) error
}

// Point declares the Serialization extension point.
var Point = &extension.Point{
	ID:      "dubbo.serialize.Serialization",
	Type:    extension.TypeOf[Serialization](),
	Default: DefaultName,
}

// ByName returns the serializer registered under name.
func ByName(name string) (Serialization, error) {
	v, err := extension.For(Point).Get(name)
	if err != nil {
		return nil, err
	}
	return v.(Serialization), nil
}

var byID sync.Map // byte -> Serialization

// ByID returns the serializer with the given content type id, loading
// every registered serializer on first use to build the id table.
func ByID(id byte) (Serialization, error) {
	if s, ok := byID.Load(id); ok {
		return s.(Serialization), nil
	}

	reg := extension.For(Point)
	for _, name := range reg.SupportedNames() {
		v, err := reg.Get(name)
		if err != nil {
			continue
		}
		s := v.(Serialization)
		byID.LoadOrStore(s.ContentTypeID(), s)
	}

	if s, ok := byID.Load(id); ok {
		return s.(Serialization), nil
	}
	return nil, fmt.Errorf("serialize: no serialization registered with id %d", id)
}

func init() {
	extension.RegisterResources(builtinDescriptors)
}
