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
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"
)

// Resources resolves a descriptor filename to the readable streams
// found for it, in search order. The default implementation searches
// every registered fs.FS under the three descriptor roots.
type Resources func(id string) []io.ReadCloser

// Descriptor search roots, highest priority first.
var descriptorRoots = []string{
	"META-INF/dubbo/internal",
	"META-INF/dubbo",
	"META-INF/services",
}

var (
	resMu       sync.RWMutex
	resourceFSs []fs.FS
)

// RegisterResources adds a filesystem to the descriptor search path.
// Packages shipping built-in extensions register their embedded
// descriptor trees from init; callers may add directories with
// os.DirFS for user-provided descriptors.
func RegisterResources(fsys fs.FS) {
	resMu.Lock()
	defer resMu.Unlock()
	resourceFSs = append(resourceFSs, fsys)
}

// DefaultResources is the Resources implementation backed by every
// filesystem passed to RegisterResources.
func DefaultResources(id string) []io.ReadCloser {
	resMu.RLock()
	fss := make([]fs.FS, len(resourceFSs))
	copy(fss, resourceFSs)
	resMu.RUnlock()

	var out []io.ReadCloser
	for _, root := range descriptorRoots {
		for _, fsys := range fss {
			f, err := fsys.Open(root + "/" + id)
			if err != nil {
				continue
			}
			out = append(out, f)
		}
	}
	return out
}

// A descriptorSet is the result of loading all descriptor files of one
// point: the name table plus the side tables populated during loading.
type descriptorSet struct {
	names       map[string]*implementation
	order       []string
	wrappers    []*implementation
	adaptive    *implementation
	activations map[string]Activation
	lineErrors  map[string]error
	defaultName string
}

// loadDescriptors reads every descriptor stream of the point and
// classifies each entry. Unresolvable or ill-typed entries are recorded
// per line and do not abort the load; duplicate names bound to
// different implementations and duplicate adaptive records are fatal.
func loadDescriptors(point *Point, resources Resources) (*descriptorSet, error) {
	set := &descriptorSet{
		names:       make(map[string]*implementation),
		activations: make(map[string]Activation),
		lineErrors:  make(map[string]error),
	}

	if strings.Contains(point.Default, ",") {
		return nil, fmt.Errorf("extension point %s declares more than one default name %q", point.id(), point.Default)
	}
	set.defaultName = strings.TrimSpace(point.Default)

	for _, rc := range resources(point.id()) {
		if err := loadStream(point, rc, set); err != nil {
			rc.Close()
			return nil, err
		}
		rc.Close()
	}
	return set, nil
}

func loadStream(point *Point, r io.Reader, set *descriptorSet) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := loadLine(point, line, set); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading descriptor for %s: %w", point.id(), err)
	}
	return nil
}

func loadLine(point *Point, line string, set *descriptorSet) error {
	var names []string
	ref := line
	if i := strings.Index(line, "="); i >= 0 {
		for _, n := range strings.Split(line[:i], ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		ref = strings.TrimSpace(line[i+1:])
	}
	if ref == "" {
		set.lineErrors[line] = fmt.Errorf("missing implementation reference")
		return nil
	}

	impl, ok := lookupImplementation(ref)
	if !ok {
		set.lineErrors[line] = fmt.Errorf("implementation %q is not registered", ref)
		return nil
	}
	if !impl.concrete.AssignableTo(point.Type) {
		set.lineErrors[line] = fmt.Errorf("implementation %q (%s) does not satisfy extension point %s", ref, impl.concrete, point.id())
		return nil
	}

	if impl.adaptive {
		if set.adaptive != nil && set.adaptive.ref != impl.ref {
			return fmt.Errorf("extension point %s has more than one adaptive implementation: %s and %s", point.id(), set.adaptive.ref, impl.ref)
		}
		set.adaptive = impl
		return nil
	}

	ct := impl.ctor.Type()
	if ct.NumIn() == 1 {
		// The single-argument constructor shape classifies a wrapper.
		if ct.In(0) != point.Type {
			set.lineErrors[line] = fmt.Errorf("wrapper %q constructor takes %s, want %s", ref, ct.In(0), point.Type)
			return nil
		}
		for _, w := range set.wrappers {
			if w.ref == impl.ref {
				return nil
			}
		}
		set.wrappers = append(set.wrappers, impl)
		return nil
	}

	if len(names) == 0 {
		name := impl.name
		if name == "" {
			name = deriveName(impl.ref, point)
		}
		names = []string{name}
	}

	for i, name := range names {
		if prior, ok := set.names[name]; ok {
			if prior.ref != impl.ref {
				return fmt.Errorf("duplicate extension name %q for point %s: %s and %s", name, point.id(), prior.ref, impl.ref)
			}
			continue
		}
		set.names[name] = impl
		set.order = append(set.order, name)
		if i == 0 && impl.activation != nil {
			set.activations[name] = *impl.activation
		}
	}
	return nil
}
