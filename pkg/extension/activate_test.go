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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhengjianglong915/dubbo/pkg/url"
)

// Filter is the activation fixture point.
type Filter interface {
	Name() string
}

type namedFilter struct{ name string }

func (f *namedFilter) Name() string { return f.name }

func filterCtor(name string) func() Filter {
	return func() Filter { return &namedFilter{name: name} }
}

func init() {
	RegisterImplementation("test.CacheFilter", filterCtor("cache"),
		WithActivation(Activation{Group: []string{"provider"}, Value: []string{"cache"}}))
	RegisterImplementation("test.AccessFilter", filterCtor("access"),
		WithActivation(Activation{Group: []string{"consumer"}}))
	RegisterImplementation("test.TraceFilter", filterCtor("trace"),
		WithActivation(Activation{Group: []string{"provider"}, Order: 10}))
	RegisterImplementation("test.AuthFilter", filterCtor("auth"),
		WithActivation(Activation{Group: []string{"provider"}, Order: 20, Before: []string{"trace"}}))
	RegisterImplementation("test.PlainFilter", filterCtor("plain"))
}

const filterDescriptor = "cache=test.CacheFilter\naccess=test.AccessFilter\ntrace=test.TraceFilter\nauth=test.AuthFilter\nplain=test.PlainFilter\n"

func filterNames(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.(Filter).Name())
	}
	return out
}

func activateURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestGetActivate(t *testing.T) {
	point := &Point{ID: "test.activate.Filter", Type: TypeOf[Filter]()}
	reg := newTestRegistry(t, point, map[string]string{point.ID: filterDescriptor})

	tests := map[string]struct {
		raw   string
		names []string
		group string
		want  []string
	}{
		"group and key predicate": {
			raw:   "dubbo://h:1/p?cache=lru",
			names: []string{"-access"},
			group: "provider",
			// cache sorts first on its zero order hint; auth precedes
			// trace through its Before hint.
			want: []string{"cache", "auth", "trace"},
		},
		"no group matches all groups": {
			raw:   "dubbo://h:1/p?cache=lru",
			names: []string{"-access"},
			group: "",
			want:  []string{"cache", "auth", "trace"},
		},
		"key predicate requires non-empty value": {
			raw:   "dubbo://h:1/p?cache=",
			group: "provider",
			want:  []string{"auth", "trace"},
		},
		"suffix key match": {
			raw:   "dubbo://h:1/p?demo.cache=lfu",
			group: "provider",
			want:  []string{"cache", "auth", "trace"},
		},
		"explicit names appended in order": {
			raw:   "dubbo://h:1/p",
			names: []string{"plain", "access"},
			group: "provider",
			want:  []string{"auth", "trace", "plain", "access"},
		},
		"default positions the implicit batch": {
			raw:   "dubbo://h:1/p",
			names: []string{"plain", "default", "access"},
			group: "provider",
			want:  []string{"plain", "auth", "trace", "access"},
		},
		"-default suppresses implicit batch": {
			raw:   "dubbo://h:1/p?cache=lru",
			names: []string{"plain", "-default"},
			group: "provider",
			want:  []string{"plain"},
		},
		"-name removes from both lists": {
			raw:   "dubbo://h:1/p",
			names: []string{"plain", "-trace", "-plain"},
			group: "provider",
			want:  []string{"auth"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := reg.GetActivate(activateURL(t, tc.raw), tc.names, tc.group)
			require.NoError(t, err)
			assert.Equal(t, tc.want, filterNames(got))
		})
	}
}

func TestGetActivateConsumerGroup(t *testing.T) {
	point := &Point{ID: "test.activate.consumer.Filter", Type: TypeOf[Filter]()}
	reg := newTestRegistry(t, point, map[string]string{point.ID: filterDescriptor})

	got, err := reg.GetActivate(activateURL(t, "dubbo://h:1/p?cache=lru"), []string{"-access"}, "consumer")
	require.NoError(t, err)
	// Only access carries the consumer group, and it is explicitly
	// removed.
	assert.Empty(t, filterNames(got))
}
