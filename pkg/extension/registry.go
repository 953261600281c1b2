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
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/zhengjianglong915/dubbo/internal/metrics"
)

// DefaultName is the special extension name resolving to the point's
// configured default.
const DefaultName = "true"

var metricsSink *metrics.Metrics

// SetMetrics attaches a metric set recording per-point load results.
func SetMetrics(m *metrics.Metrics) {
	regMu.Lock()
	defer regMu.Unlock()
	metricsSink = m
}

// A NotFoundError reports an extension name with no usable
// implementation, carrying any load-time errors recorded for lines
// that mention the name.
type NotFoundError struct {
	Point  string
	Name   string
	Causes map[string]error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no extension %q for point %s", e.Name, e.Point)
	if len(e.Causes) == 0 {
		return msg
	}
	lines := make([]string, 0, len(e.Causes))
	for line, err := range e.Causes {
		lines = append(lines, fmt.Sprintf("%s: %v", line, err))
	}
	sort.Strings(lines)
	return msg + ", possible causes: " + strings.Join(lines, "; ")
}

// holder is the two-phase initialization cell of one named instance:
// a lock-free read path over a per-slot mutex for construction.
type holder struct {
	mu sync.Mutex
	v  atomic.Value // stores box
}

type box struct{ v any }

func (h *holder) get() (any, bool) {
	if b, ok := h.v.Load().(box); ok {
		return b.v, true
	}
	return nil, false
}

func (h *holder) set(v any) {
	h.v.Store(box{v})
}

// A Registry owns one extension point: the loaded name table, the
// per-name instance cache, wrapper composition and injection. There is
// exactly one Registry per point, obtained with For.
type Registry struct {
	point     *Point
	log       logrus.FieldLogger
	resources Resources

	loadOnce sync.Once
	set      *descriptorSet
	loadErr  error

	mu    sync.Mutex
	added map[string]*implementation

	holders  sync.Map // name -> *holder
	loaded   sync.Map // name -> struct{} for instantiated names
	adaptive struct {
		mu sync.Mutex
		v  any
	}
}

// Point returns the registry's point declaration.
func (r *Registry) Point() *Point { return r.point }

func (r *Registry) load() error {
	r.loadOnce.Do(func() {
		r.set, r.loadErr = loadDescriptors(r.point, r.resources)
		if r.loadErr != nil {
			r.log.WithError(r.loadErr).Error("failed to load extension descriptors")
			return
		}
		for line, err := range r.set.lineErrors {
			r.log.WithError(err).WithField("line", line).Warn("skipping descriptor entry")
		}
		regMu.Lock()
		sink := metricsSink
		regMu.Unlock()
		if sink != nil {
			sink.SetExtensionNames(r.point.id(), len(r.set.names))
			sink.SetExtensionErrors(r.point.id(), len(r.set.lineErrors))
		}
	})
	return r.loadErr
}

func (r *Registry) record(name string) *implementation {
	r.mu.Lock()
	impl, ok := r.added[name]
	r.mu.Unlock()
	if ok {
		return impl
	}
	return r.set.names[name]
}

// Get returns the wrapper-composed singleton registered under name.
// The name "true" resolves the configured default and yields nil when
// the point has none.
func (r *Registry) Get(name string) (any, error) {
	if name == "" {
		return nil, fmt.Errorf("extension name is empty for point %s", r.point.id())
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	if name == DefaultName {
		if r.set.defaultName == "" {
			return nil, nil
		}
		name = r.set.defaultName
	}

	impl := r.record(name)
	if impl == nil {
		return nil, r.notFound(name)
	}

	hi, _ := r.holders.LoadOrStore(name, &holder{})
	h := hi.(*holder)
	if v, ok := h.get(); ok {
		return v, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.get(); ok {
		return v, nil
	}
	v, err := r.compose(impl)
	if err != nil {
		return nil, err
	}
	h.set(v)
	r.loaded.Store(name, struct{}{})
	return v, nil
}

// compose builds the value returned for one name: the shared bare
// instance, injected, then wrapped by every wrapper in descriptor
// iteration order with injection after each layer.
func (r *Registry) compose(impl *implementation) (any, error) {
	v, err := bareInstance(impl)
	if err != nil {
		return nil, err
	}
	r.inject(v)

	for _, w := range r.wrappers() {
		out, err := construct(w, v)
		if err != nil {
			return nil, err
		}
		r.inject(out)
		v = out
	}
	return v, nil
}

func (r *Registry) wrappers() []*implementation {
	if r.set == nil {
		return nil
	}
	return r.set.wrappers
}

func (r *Registry) notFound(name string) error {
	causes := make(map[string]error)
	lower := strings.ToLower(name)
	for line, err := range r.set.lineErrors {
		if strings.Contains(strings.ToLower(line), lower) {
			causes[line] = err
		}
	}
	return &NotFoundError{Point: r.point.id(), Name: name, Causes: causes}
}

// Has reports whether name is registered for this point.
func (r *Registry) Has(name string) bool {
	if err := r.load(); err != nil {
		return false
	}
	return r.record(name) != nil
}

// SupportedNames returns every registered ordinary extension name in
// sorted order.
func (r *Registry) SupportedNames() []string {
	if err := r.load(); err != nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make(map[string]*implementation, len(r.set.names)+len(r.added))
	for n, i := range r.set.names {
		names[n] = i
	}
	for n, i := range r.added {
		names[n] = i
	}
	return sortedNames(names)
}

// LoadedNames returns the names whose singletons have been constructed.
func (r *Registry) LoadedNames() []string {
	var out []string
	r.loaded.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	sort.Strings(out)
	return out
}

// DefaultName returns the point's configured default extension name.
func (r *Registry) DefaultName() string {
	if err := r.load(); err != nil {
		return ""
	}
	return r.set.defaultName
}

// Add registers a constructor under name programmatically. The name
// must not already be taken.
func (r *Registry) Add(name string, ctor any, opts ...ImplOption) error {
	return r.put(name, ctor, false, opts)
}

// Replace swaps the implementation registered under name. The name
// must already exist; any cached instance is discarded.
func (r *Registry) Replace(name string, ctor any, opts ...ImplOption) error {
	return r.put(name, ctor, true, opts)
}

func (r *Registry) put(name string, ctor any, replace bool, opts []ImplOption) error {
	if name == "" {
		return fmt.Errorf("extension name is empty for point %s", r.point.id())
	}
	if err := r.load(); err != nil {
		return err
	}

	cv := reflect.ValueOf(ctor)
	ct := cv.Type()
	if ct.Kind() != reflect.Func || ct.NumOut() != 1 || ct.NumIn() != 0 {
		return fmt.Errorf("constructor for extension %q must be func() T", name)
	}
	if !ct.Out(0).AssignableTo(r.point.Type) {
		return fmt.Errorf("constructor for extension %q returns %s, which does not satisfy %s", name, ct.Out(0), r.point.id())
	}

	impl := &implementation{ref: "<programmatic:" + name + ">", ctor: cv, concrete: ct.Out(0), name: name}
	for _, opt := range opts {
		opt(impl)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	exists := r.set.names[name] != nil || r.added[name] != nil
	if !replace && exists {
		return fmt.Errorf("extension %q already exists for point %s", name, r.point.id())
	}
	if replace && !exists {
		return fmt.Errorf("extension %q does not exist for point %s", name, r.point.id())
	}
	if r.added == nil {
		r.added = make(map[string]*implementation)
	}
	r.added[name] = impl
	if impl.activation != nil {
		r.set.activations[name] = *impl.activation
	}
	r.holders.Delete(name)
	r.loaded.Delete(name)
	return nil
}

// construct invokes an implementation constructor, passing the wrapped
// value for the wrapper shape.
func construct(impl *implementation, wrapped any) (any, error) {
	var args []reflect.Value
	if impl.ctor.Type().NumIn() == 1 {
		args = []reflect.Value{reflect.ValueOf(wrapped)}
	}
	out := impl.ctor.Call(args)[0]
	switch out.Kind() {
	case reflect.Ptr, reflect.Interface:
		if out.IsNil() {
			return nil, fmt.Errorf("constructor for %s returned nil", impl.ref)
		}
	}
	return out.Interface(), nil
}

// The bare-instance cache shares one no-arg instance per registered
// implementation, so two points naming the same implementation
// reference observe the same underlying value.
var (
	bareMu    sync.Mutex
	bareCells = make(map[*implementation]*bareCell)
)

type bareCell struct {
	once sync.Once
	v    any
	err  error
}

func bareInstance(impl *implementation) (any, error) {
	bareMu.Lock()
	cell, ok := bareCells[impl]
	if !ok {
		cell = &bareCell{}
		bareCells[impl] = cell
	}
	bareMu.Unlock()

	cell.once.Do(func() {
		cell.v, cell.err = construct(impl, nil)
	})
	return cell.v, cell.err
}

// errUnsupported distinguishes calls to non-adaptive methods on a
// synthesized dispatcher.
var errUnsupported = errors.New("unsupported operation")
