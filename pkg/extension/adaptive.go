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
	"fmt"
	"reflect"

	"github.com/zhengjianglong915/dubbo/pkg/remoting"
	"github.com/zhengjianglong915/dubbo/pkg/url"
)

var urlType = reflect.TypeOf((*url.URL)(nil))

// An AdaptiveDispatch selects a concrete implementation per call from
// the call's URL. One dispatch exists per extension point; each
// adaptive method carries a precomputed key-walk plan built from the
// point declaration.
type AdaptiveDispatch struct {
	reg   *Registry
	plans map[string]*keyWalk
}

// A keyWalk is the resolution plan of one adaptive method: the ordered
// parameter keys consulted right to left, seeded by the registry
// default.
type keyWalk struct {
	method string
	keys   []string
}

func newAdaptiveDispatch(r *Registry) (*AdaptiveDispatch, error) {
	if len(r.point.Methods) == 0 {
		return nil, fmt.Errorf("can not synthesize adaptive for point %s: no adaptive methods declared", r.point.id())
	}
	plans := make(map[string]*keyWalk, len(r.point.Methods))
	for _, m := range r.point.Methods {
		keys := m.Keys
		if len(keys) == 0 {
			keys = deriveKeys(r.point)
		}
		plans[m.Name] = &keyWalk{method: m.Name, keys: keys}
	}
	return &AdaptiveDispatch{reg: r, plans: plans}, nil
}

// ExtensionFor resolves the implementation an adaptive method call must
// delegate to. Non-adaptive methods are unsupported; a call without a
// reachable URL is an argument error; a key walk that resolves no name
// is a state error naming the point, URL and keys.
func (d *AdaptiveDispatch) ExtensionFor(method string, args ...any) (any, error) {
	plan, ok := d.plans[method]
	if !ok {
		return nil, fmt.Errorf("method %s of extension point %s is not adaptive: %w", method, d.reg.point.id(), errUnsupported)
	}

	u, err := findURL(args)
	if err != nil {
		return nil, err
	}

	m := ""
	if inv := findInvocation(args); inv != nil {
		m = inv.MethodName()
	}

	// Walk the keys right to left: each key falls back on the value
	// produced by the keys to its right, seeded by the default name.
	name := d.reg.DefaultName()
	for i := len(plan.keys) - 1; i >= 0; i-- {
		switch k := plan.keys[i]; {
		case k == "protocol":
			if p := u.Protocol(); p != "" {
				name = p
			}
		case m != "":
			name = u.MethodParameterOr(m, k, name)
		default:
			name = u.ParameterOr(k, name)
		}
	}
	if name == "" {
		return nil, fmt.Errorf("fail to get extension(%s) name from url(%s) use keys(%v)", d.reg.point.id(), u, plan.keys)
	}
	return d.reg.Get(name)
}

// Invoke resolves the implementation for an adaptive method and
// delegates the call by reflection, returning the method's results.
func (d *AdaptiveDispatch) Invoke(method string, args ...any) ([]any, error) {
	impl, err := d.ExtensionFor(method, args...)
	if err != nil {
		return nil, err
	}
	mv := reflect.ValueOf(impl).MethodByName(method)
	if !mv.IsValid() {
		return nil, fmt.Errorf("extension for point %s has no method %s", d.reg.point.id(), method)
	}

	mt := mv.Type()
	if mt.NumIn() != len(args) {
		return nil, fmt.Errorf("method %s of point %s takes %d arguments, got %d", method, d.reg.point.id(), mt.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.Zero(mt.In(i))
			continue
		}
		in[i] = reflect.ValueOf(a)
	}
	outs := mv.Call(in)

	results := make([]any, len(outs))
	for i, o := range outs {
		results[i] = o.Interface()
	}
	return results, nil
}

// findURL locates the call's URL: either an argument of type *url.URL,
// or the first argument exposing an exported zero-argument method
// returning one.
func findURL(args []any) (*url.URL, error) {
	for _, a := range args {
		if u, ok := a.(*url.URL); ok {
			if u == nil {
				return nil, fmt.Errorf("url argument is nil")
			}
			return u, nil
		}
	}
	for _, a := range args {
		if a == nil {
			continue
		}
		av := reflect.ValueOf(a)
		at := av.Type()
		for i := 0; i < at.NumMethod(); i++ {
			mt := at.Method(i).Type
			if mt.NumIn() != 1 || mt.NumOut() != 1 || mt.Out(0) != urlType {
				continue
			}
			u, _ := av.Method(i).Call(nil)[0].Interface().(*url.URL)
			if u == nil {
				return nil, fmt.Errorf("url accessor %s.%s returned nil", at, at.Method(i).Name)
			}
			return u, nil
		}
	}
	return nil, fmt.Errorf("no url argument in adaptive call")
}

// findInvocation returns the first argument carrying an invocation, if
// any; its method name scopes parameter lookups.
func findInvocation(args []any) remoting.Invocation {
	for _, a := range args {
		if inv, ok := a.(remoting.Invocation); ok {
			return inv
		}
	}
	return nil
}

// GetAdaptive returns the point's adaptive extension: the registered
// adaptive record when the descriptors name one, otherwise a dispatcher
// synthesized from the point's adaptive methods (wrapped by the point's
// NewAdaptive shim when declared). The value is built once and cached.
func (r *Registry) GetAdaptive() (any, error) {
	if err := r.load(); err != nil {
		return nil, err
	}

	r.adaptive.mu.Lock()
	defer r.adaptive.mu.Unlock()
	if r.adaptive.v != nil {
		return r.adaptive.v, nil
	}

	var v any
	if impl := r.set.adaptive; impl != nil {
		inst, err := construct(impl, nil)
		if err != nil {
			return nil, err
		}
		v = inst
	} else {
		d, err := newAdaptiveDispatch(r)
		if err != nil {
			return nil, err
		}
		v = any(d)
		if r.point.NewAdaptive != nil {
			v = r.point.NewAdaptive(d)
		}
	}
	r.inject(v)
	r.adaptive.v = v
	return v, nil
}
