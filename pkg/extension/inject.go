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
	"reflect"
	"strings"
	"unicode"
)

// inject assigns the adaptive extension of every dependency an instance
// declares through a setter: an exported method named Set<Property>
// taking a single interface parameter that names a known extension
// point. Non-extension parameters are skipped; failures are logged and
// never abort construction.
func (r *Registry) inject(v any) {
	factory := r.injector()
	if factory == nil || v == nil {
		return
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if !strings.HasPrefix(m.Name, "Set") || len(m.Name) <= 3 {
			continue
		}
		if m.Type.NumIn() != 2 || m.Type.NumOut() != 0 {
			continue
		}
		pt := m.Type.In(1)
		if pt.Kind() != reflect.Interface {
			continue
		}

		dep := factory.GetExtension(pt, propertyName(m.Name))
		if dep == nil {
			continue
		}
		dv := reflect.ValueOf(dep)
		if !dv.Type().AssignableTo(pt) {
			r.log.WithField("property", propertyName(m.Name)).
				Warnf("adaptive extension %s is not assignable to %s, skipping injection", dv.Type(), pt)
			continue
		}

		func() {
			defer func() {
				if p := recover(); p != nil {
					r.log.WithField("property", propertyName(m.Name)).
						Warnf("injection into %s failed: %v", rt, p)
				}
			}()
			rv.Method(i).Call([]reflect.Value{dv})
		}()
	}
}

// injector returns the shared adaptive ExtensionFactory. The factory
// point itself is never injected, which breaks the bootstrap cycle.
func (r *Registry) injector() ExtensionFactory {
	if r.point.Type == factoryType {
		return nil
	}
	return sharedFactory()
}

func propertyName(setter string) string {
	prop := setter[len("Set"):]
	return string(unicode.ToLower(rune(prop[0]))) + prop[1:]
}
