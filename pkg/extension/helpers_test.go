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
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/zhengjianglong915/dubbo/internal/fixture"
)

// mapResources serves descriptor files from a map keyed by point id.
func mapResources(files map[string]string) Resources {
	return func(id string) []io.ReadCloser {
		content, ok := files[id]
		if !ok {
			return nil
		}
		return []io.ReadCloser{io.NopCloser(strings.NewReader(content))}
	}
}

// newTestRegistry builds the singleton registry for p backed by the
// given descriptor files. Each test must use a unique point ID.
func newTestRegistry(t *testing.T, p *Point, files map[string]string) *Registry {
	t.Helper()
	r := For(p)
	r.log = fixture.NewTestLogger(t).WithField("point", p.id())
	r.resources = mapResources(files)
	return r
}

// Hello is the wrapper-composition fixture point.
type Hello interface {
	Say() string
}

type helloPlain struct{}

func (h *helloPlain) Say() string { return "o" }

type helloWrapOne struct{ next Hello }

func (h *helloWrapOne) Say() string { return "w1(" + h.next.Say() + ")" }

type helloWrapTwo struct{ next Hello }

func (h *helloWrapTwo) Say() string { return "w2(" + h.next.Say() + ")" }

type greetHello struct{}

func (h *greetHello) Say() string { return "g" }

var helloBuilds atomic.Int32

func init() {
	RegisterImplementation("test.HelloPlain", func() Hello {
		helloBuilds.Add(1)
		return &helloPlain{}
	})
	RegisterImplementation("test.HelloWrapOne", func(next Hello) Hello { return &helloWrapOne{next: next} })
	RegisterImplementation("test.HelloWrapTwo", func(next Hello) Hello { return &helloWrapTwo{next: next} })
	RegisterImplementation("test.GreetHello", func() Hello { return &greetHello{} })
}
