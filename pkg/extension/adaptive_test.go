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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhengjianglong915/dubbo/pkg/remoting"
	"github.com/zhengjianglong915/dubbo/pkg/url"
)

// Protocol is the adaptive-dispatch fixture point, mirroring the shape
// of a real RPC protocol extension.
type Protocol interface {
	Export(inv Invoker) (string, error)
}

// Invoker exposes the URL adaptive dispatch extracts through the
// zero-argument accessor.
type Invoker interface {
	URL() *url.URL
}

type staticInvoker struct{ u *url.URL }

func (i *staticInvoker) URL() *url.URL { return i.u }

type dubboProtocol struct{}

func (p *dubboProtocol) Export(Invoker) (string, error) { return "dubbo", nil }

type grpcProtocol struct{}

func (p *grpcProtocol) Export(Invoker) (string, error) { return "grpc", nil }

// adaptiveProtocol is the typed shim around the synthesized dispatch.
type adaptiveProtocol struct {
	d *AdaptiveDispatch
}

func (a *adaptiveProtocol) Export(inv Invoker) (string, error) {
	v, err := a.d.ExtensionFor("Export", inv)
	if err != nil {
		return "", err
	}
	return v.(Protocol).Export(inv)
}

func init() {
	RegisterImplementation("test.DubboProtocol", func() Protocol { return &dubboProtocol{} })
	RegisterImplementation("test.GrpcProtocol", func() Protocol { return &grpcProtocol{} })
}

func protocolPoint(id string, defaultName string) *Point {
	return &Point{
		ID:      id,
		Type:    TypeOf[Protocol](),
		Default: defaultName,
		Methods: []AdaptiveMethod{{Name: "Export", Keys: []string{"protocol"}}},
		NewAdaptive: func(d *AdaptiveDispatch) any {
			return &adaptiveProtocol{d: d}
		},
	}
}

const protocolDescriptor = "dubbo=test.DubboProtocol\ngrpc=test.GrpcProtocol\n"

func TestAdaptiveRoutesByURLProtocol(t *testing.T) {
	point := protocolPoint("test.adaptive.route.Protocol", "dubbo")
	reg := newTestRegistry(t, point, map[string]string{point.ID: protocolDescriptor})

	v, err := reg.GetAdaptive()
	require.NoError(t, err)
	p := v.(Protocol)

	u, err := url.Parse("grpc://10.0.0.1:20880/com.example.Demo")
	require.NoError(t, err)

	got, err := p.Export(&staticInvoker{u: u})
	require.NoError(t, err)
	assert.Equal(t, "grpc", got)

	u, err = url.Parse("dubbo://10.0.0.1:20880/com.example.Demo")
	require.NoError(t, err)
	got, err = p.Export(&staticInvoker{u: u})
	require.NoError(t, err)
	assert.Equal(t, "dubbo", got)

	again, err := reg.GetAdaptive()
	require.NoError(t, err)
	assert.Same(t, v, again)
}

func TestAdaptiveKeyWalkFallsBackToDefault(t *testing.T) {
	point := &Point{
		ID:      "test.adaptive.fallback.Protocol",
		Type:    TypeOf[Protocol](),
		Default: "dubbo",
		Methods: []AdaptiveMethod{{Name: "Export", Keys: []string{"transporter", "server"}}},
	}
	reg := newTestRegistry(t, point, map[string]string{point.ID: protocolDescriptor})

	v, err := reg.GetAdaptive()
	require.NoError(t, err)
	d := v.(*AdaptiveDispatch)

	// No keys set: the walk bottoms out at the registry default.
	u, _ := url.Parse("x://h:1/p")
	got, err := d.ExtensionFor("Export", &staticInvoker{u: u})
	require.NoError(t, err)
	assert.IsType(t, &dubboProtocol{}, got)

	// The rightmost key is the deepest fallback; the leftmost wins.
	u, _ = url.Parse("x://h:1/p?server=grpc")
	got, err = d.ExtensionFor("Export", &staticInvoker{u: u})
	require.NoError(t, err)
	assert.IsType(t, &grpcProtocol{}, got)

	u, _ = url.Parse("x://h:1/p?server=grpc&transporter=dubbo")
	got, err = d.ExtensionFor("Export", &staticInvoker{u: u})
	require.NoError(t, err)
	assert.IsType(t, &dubboProtocol{}, got)
}

func TestAdaptiveMethodParameterScoping(t *testing.T) {
	point := &Point{
		ID:      "test.adaptive.method.Protocol",
		Type:    TypeOf[Protocol](),
		Default: "dubbo",
		Methods: []AdaptiveMethod{{Name: "Export", Keys: []string{"proto.select"}}},
	}
	reg := newTestRegistry(t, point, map[string]string{point.ID: protocolDescriptor})

	v, err := reg.GetAdaptive()
	require.NoError(t, err)
	d := v.(*AdaptiveDispatch)

	u, _ := url.Parse("x://h:1/p?ping.proto.select=grpc")
	inv := &remoting.RPCInvocation{Method: "ping"}

	got, err := d.ExtensionFor("Export", u, inv)
	require.NoError(t, err)
	assert.IsType(t, &grpcProtocol{}, got)

	// A different invocation method does not see the scoped value.
	got, err = d.ExtensionFor("Export", u, &remoting.RPCInvocation{Method: "pong"})
	require.NoError(t, err)
	assert.IsType(t, &dubboProtocol{}, got)
}

func TestAdaptiveErrors(t *testing.T) {
	point := &Point{
		ID:      "test.adaptive.errors.Protocol",
		Type:    TypeOf[Protocol](),
		Methods: []AdaptiveMethod{{Name: "Export", Keys: []string{"missing.key"}}},
	}
	reg := newTestRegistry(t, point, map[string]string{point.ID: protocolDescriptor})

	v, err := reg.GetAdaptive()
	require.NoError(t, err)
	d := v.(*AdaptiveDispatch)

	// No URL among the arguments.
	_, err = d.ExtensionFor("Export", "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no url argument")

	// A nil accessor result is an argument error.
	_, err = d.ExtensionFor("Export", &staticInvoker{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned nil")

	// No key resolves and the point has no default.
	u, _ := url.Parse("x://h:1/p")
	_, err = d.ExtensionFor("Export", &staticInvoker{u: u})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail to get extension(test.adaptive.errors.Protocol) name from url")
	assert.Contains(t, err.Error(), "missing.key")

	// Non-adaptive methods are unsupported.
	_, err = d.ExtensionFor("Destroy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUnsupported))
}

func TestAdaptiveWithoutMethodsFails(t *testing.T) {
	point := &Point{ID: "test.adaptive.none.Protocol", Type: TypeOf[Protocol]()}
	reg := newTestRegistry(t, point, map[string]string{point.ID: protocolDescriptor})

	_, err := reg.GetAdaptive()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no adaptive methods")
}

func TestAdaptiveInvokeDelegates(t *testing.T) {
	point := protocolPoint("test.adaptive.invoke.Protocol", "dubbo")
	reg := newTestRegistry(t, point, map[string]string{point.ID: protocolDescriptor})

	v, err := reg.GetAdaptive()
	require.NoError(t, err)
	shim := v.(*adaptiveProtocol)

	u, _ := url.Parse("grpc://h:1/p")
	out, err := shim.d.Invoke("Export", &staticInvoker{u: u})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "grpc", out[0])
	assert.Nil(t, out[1])
}
