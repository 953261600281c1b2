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

// Wire is the dependency point for the injection test. Injection
// resolves setter parameters by interface type, so the fixture needs a
// type of its own.
type Wire interface {
	Connect(inv Invoker) (string, error)
}

type tcpWire struct{}

func (w *tcpWire) Connect(Invoker) (string, error) { return "tcp", nil }

type quicWire struct{}

func (w *quicWire) Connect(Invoker) (string, error) { return "quic", nil }

type adaptiveWire struct {
	d *AdaptiveDispatch
}

func (a *adaptiveWire) Connect(inv Invoker) (string, error) {
	v, err := a.d.ExtensionFor("Connect", inv)
	if err != nil {
		return "", err
	}
	return v.(Wire).Connect(inv)
}

var wirePoint = &Point{
	ID:      "test.inject.Wire",
	Type:    TypeOf[Wire](),
	Default: "tcp",
	Methods: []AdaptiveMethod{{Name: "Connect", Keys: []string{"wire"}}},
	NewAdaptive: func(d *AdaptiveDispatch) any {
		return &adaptiveWire{d: d}
	},
}

// Exporter depends on a Wire through a setter; the registry must
// assign the wire point's adaptive extension during construction.
type Exporter interface {
	ExportAll(inv Invoker) (string, error)
}

type defaultExporter struct {
	wire     Wire
	nickname string
}

func (e *defaultExporter) SetWire(w Wire) { e.wire = w }

// SetNickname names a non-extension type: injection must skip it.
func (e *defaultExporter) SetNickname(s string) { e.nickname = s }

func (e *defaultExporter) ExportAll(inv Invoker) (string, error) {
	if e.wire == nil {
		return "", nil
	}
	return e.wire.Connect(inv)
}

func init() {
	RegisterImplementation("test.TCPWire", func() Wire { return &tcpWire{} })
	RegisterImplementation("test.QUICWire", func() Wire { return &quicWire{} })
	RegisterImplementation("test.DefaultExporter", func() Exporter { return &defaultExporter{} })
}

func TestInjectionAssignsAdaptiveDependency(t *testing.T) {
	// The dependency point must be registered before injection can
	// resolve it by type.
	newTestRegistry(t, wirePoint, map[string]string{
		wirePoint.ID: "tcp=test.TCPWire\nquic=test.QUICWire\n",
	})

	expPoint := &Point{ID: "test.inject.Exporter", Type: TypeOf[Exporter]()}
	reg := newTestRegistry(t, expPoint, map[string]string{
		expPoint.ID: "default=test.DefaultExporter\n",
	})

	v, err := reg.Get("default")
	require.NoError(t, err)
	exp := v.(*defaultExporter)

	require.NotNil(t, exp.wire, "adaptive wire must be injected")
	assert.Empty(t, exp.nickname, "non-extension setters are skipped")

	u, _ := url.Parse("x://h:1/p?wire=quic")
	got, err := exp.ExportAll(&staticInvoker{u: u})
	require.NoError(t, err)
	assert.Equal(t, "quic", got)

	// The default wire is selected when the URL does not name one.
	u, _ = url.Parse("x://h:1/p")
	got, err = exp.ExportAll(&staticInvoker{u: u})
	require.NoError(t, err)
	assert.Equal(t, "tcp", got)
}
