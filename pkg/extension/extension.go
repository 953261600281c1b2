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

// Package extension implements the service-provider engine: descriptor
// loading, per-point registries with singleton instances, decorator
// wrapping, dependency injection, URL-driven adaptive dispatch and
// conditional activation.
//
// An extension point is declared as a Point naming a Go interface type.
// Implementations register a constructor under a reference string (the
// analogue of a fully-qualified class name); descriptor files bind
// extension names to those references. Constructors come in two shapes:
//
//	func() T   — an ordinary implementation
//	func(T) T  — a wrapper (decorator) around the point type
//
// and a registration flagged WithAdaptive supplies the hand-written
// adaptive record for its point.
package extension

import (
	"fmt"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// TypeOf returns the reflect.Type of the interface type T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// An AdaptiveMethod marks one interface method as adaptive and lists
// the URL parameter keys consulted to pick an implementation. An empty
// key list derives a single key from the point's type name by
// lower-splitting on case boundaries (LoadBalance -> "load.balance").
type AdaptiveMethod struct {
	Name string
	Keys []string
}

// A Point declares one extension point.
type Point struct {
	// ID is the descriptor filename for this point. When empty it is
	// derived from the interface type ("<pkg>.<Type>").
	ID string

	// Type is the interface type implementations must satisfy.
	Type reflect.Type

	// Default is the extension name resolved by Get("true"). Naming
	// more than one default (comma-separated) is a load failure.
	Default string

	// Methods lists the adaptive-eligible methods. Points without
	// adaptive methods and without a registered adaptive record fail
	// GetAdaptive.
	Methods []AdaptiveMethod

	// NewAdaptive optionally wraps the generic dispatch in a typed
	// implementation of the interface so the adaptive extension can be
	// injected and called without reflection at the call site.
	NewAdaptive func(*AdaptiveDispatch) any
}

func (p *Point) id() string {
	if p.ID != "" {
		return p.ID
	}
	return path.Base(p.Type.PkgPath()) + "." + p.Type.Name()
}

// Activation carries the conditional-activation metadata of one
// implementation.
type Activation struct {
	// Group restricts activation to matching requested groups. An
	// implementation without groups only activates when no group is
	// requested.
	Group []string

	// Value lists URL parameter keys; the implementation activates when
	// any key (or a key with suffix ".<key>") is present with a
	// non-empty value. No keys means always active within the group.
	Value []string

	// Ordering hints. Before and After name other extensions; Order
	// breaks remaining ties before the stable name comparison.
	Before []string
	After  []string
	Order  int
}

// An implementation is one registered constructor.
type implementation struct {
	ref        string
	ctor       reflect.Value
	concrete   reflect.Type
	name       string
	adaptive   bool
	activation *Activation
}

// ImplOption configures an implementation registration.
type ImplOption func(*implementation)

// WithName sets the extension name used when a descriptor entry does
// not name the implementation explicitly.
func WithName(name string) ImplOption {
	return func(i *implementation) { i.name = name }
}

// WithAdaptive marks the implementation as its point's hand-written
// adaptive record.
func WithAdaptive() ImplOption {
	return func(i *implementation) { i.adaptive = true }
}

// WithActivation attaches activation metadata.
func WithActivation(a Activation) ImplOption {
	return func(i *implementation) { i.activation = &a }
}

var (
	implMu sync.RWMutex
	impls  = make(map[string]*implementation)
)

// RegisterImplementation registers ctor under the reference string used
// on the right-hand side of descriptor entries. The constructor must be
// a func returning exactly one value, taking either no parameters or a
// single parameter (the wrapper shape). Registration is expected from
// package init functions; invalid constructors panic, and so does a
// reference registered again with a different constructor.
func RegisterImplementation(ref string, ctor any, opts ...ImplOption) {
	if ref == "" {
		panic("extension: empty implementation reference")
	}
	cv := reflect.ValueOf(ctor)
	ct := cv.Type()
	if ct.Kind() != reflect.Func || ct.NumOut() != 1 || ct.NumIn() > 1 || ct.IsVariadic() {
		panic(fmt.Sprintf("extension: constructor for %q must be func() T or func(T) T", ref))
	}

	impl := &implementation{ref: ref, ctor: cv, concrete: ct.Out(0)}
	for _, opt := range opts {
		opt(impl)
	}

	implMu.Lock()
	defer implMu.Unlock()
	if prior, ok := impls[ref]; ok && prior.ctor.Pointer() != cv.Pointer() {
		panic(fmt.Sprintf("extension: implementation %q registered twice", ref))
	}
	impls[ref] = impl
}

func lookupImplementation(ref string) (*implementation, bool) {
	implMu.RLock()
	defer implMu.RUnlock()
	impl, ok := impls[ref]
	return impl, ok
}

var (
	regMu        sync.Mutex
	registries   = make(map[string]*Registry)
	pointsByType = make(map[reflect.Type]*Point)

	log logrus.FieldLogger = logrus.StandardLogger().WithField("context", "extension")
)

// SetLogger replaces the package logger. Components default to the
// logrus standard logger scoped with context=extension.
func SetLogger(l logrus.FieldLogger) {
	regMu.Lock()
	defer regMu.Unlock()
	log = l
}

// For returns the process-wide Registry of the given point, creating it
// on first use. Point declarations are programmer-supplied; a nil point
// or a non-interface type panics.
func For(p *Point) *Registry {
	if p == nil {
		panic("extension: nil point")
	}
	if p.Type == nil || p.Type.Kind() != reflect.Interface {
		panic(fmt.Sprintf("extension: point %q must name an interface type", p.ID))
	}

	regMu.Lock()
	defer regMu.Unlock()
	if r, ok := registries[p.id()]; ok {
		return r
	}
	r := &Registry{
		point:     p,
		log:       log.WithField("point", p.id()),
		resources: DefaultResources,
	}
	registries[p.id()] = r
	pointsByType[p.Type] = p
	return r
}

// PointFor returns the declared point for an interface type, if any.
func PointFor(t reflect.Type) (*Point, bool) {
	regMu.Lock()
	defer regMu.Unlock()
	p, ok := pointsByType[t]
	return p, ok
}

// deriveName infers an extension name from the short type name of the
// implementation reference (its last dot-separated element), stripping
// the point's type-name suffix and lower-casing the remainder
// (DubboProtocol for point Protocol -> "dubbo").
func deriveName(ref string, point *Point) string {
	n := ref[strings.LastIndex(ref, ".")+1:]
	if suffix := point.Type.Name(); strings.HasSuffix(n, suffix) && len(n) > len(suffix) {
		n = n[:len(n)-len(suffix)]
	}
	return strings.ToLower(n)
}

// deriveKeys derives the URL key for an adaptive method with no
// explicit keys from the point's type name: LoadBalance -> "load.balance".
func deriveKeys(point *Point) []string {
	name := point.Type.Name()
	var parts []string
	start := 0
	for i := 1; i < len(name); i++ {
		if name[i] >= 'A' && name[i] <= 'Z' {
			parts = append(parts, strings.ToLower(name[start:i]))
			start = i
		}
	}
	parts = append(parts, strings.ToLower(name[start:]))
	return []string{strings.Join(parts, ".")}
}

func sortedNames(m map[string]*implementation) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
