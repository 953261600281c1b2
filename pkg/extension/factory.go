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

package extension

import (
	"embed"
	"reflect"
	"sync"
)

//go:embed META-INF
var builtinDescriptors embed.FS

// ExtensionFactory is the extension point injection resolves
// dependencies through. It is itself loaded through descriptors; its
// adaptive record is the hand-written AdaptiveExtensionFactory, which
// breaks the bootstrap cycle.
type ExtensionFactory interface {
	// GetExtension returns a value satisfying the interface type t for
	// the named property, or nil when the factory cannot provide one.
	GetExtension(t reflect.Type, name string) any
}

var factoryType = TypeOf[ExtensionFactory]()

// FactoryPoint declares the ExtensionFactory extension point.
var FactoryPoint = &Point{
	ID:   "dubbo.extension.ExtensionFactory",
	Type: factoryType,
}

// SPIExtensionFactory resolves a dependency to the adaptive extension
// of its declared point.
type SPIExtensionFactory struct{}

var _ ExtensionFactory = (*SPIExtensionFactory)(nil)

func (f *SPIExtensionFactory) GetExtension(t reflect.Type, _ string) any {
	if t == nil || t.Kind() != reflect.Interface {
		return nil
	}
	p, ok := PointFor(t)
	if !ok {
		return nil
	}
	v, err := For(p).GetAdaptive()
	if err != nil {
		return nil
	}
	return v
}

// AdaptiveExtensionFactory is the factory point's adaptive record: it
// asks every registered factory in turn.
type AdaptiveExtensionFactory struct {
	factories []ExtensionFactory
}

var _ ExtensionFactory = (*AdaptiveExtensionFactory)(nil)

func newAdaptiveExtensionFactory() ExtensionFactory {
	reg := For(FactoryPoint)
	a := &AdaptiveExtensionFactory{}
	for _, name := range reg.SupportedNames() {
		v, err := reg.Get(name)
		if err != nil {
			continue
		}
		if f, ok := v.(ExtensionFactory); ok {
			a.factories = append(a.factories, f)
		}
	}
	return a
}

func (a *AdaptiveExtensionFactory) GetExtension(t reflect.Type, name string) any {
	for _, f := range a.factories {
		if v := f.GetExtension(t, name); v != nil {
			return v
		}
	}
	return nil
}

var factoryOnce struct {
	sync.Once
	v ExtensionFactory
}

// sharedFactory returns the adaptive ExtensionFactory used for
// injection, built once per process.
func sharedFactory() ExtensionFactory {
	factoryOnce.Do(func() {
		v, err := For(FactoryPoint).GetAdaptive()
		if err != nil {
			log.WithError(err).Error("failed to build extension factory")
			return
		}
		f, ok := v.(ExtensionFactory)
		if !ok {
			return
		}
		factoryOnce.v = f
	})
	return factoryOnce.v
}

func init() {
	RegisterImplementation("dubbo.extension.SPIExtensionFactory",
		func() ExtensionFactory { return &SPIExtensionFactory{} })
	RegisterImplementation("dubbo.extension.AdaptiveExtensionFactory",
		newAdaptiveExtensionFactory, WithAdaptive())
	RegisterResources(builtinDescriptors)
}
