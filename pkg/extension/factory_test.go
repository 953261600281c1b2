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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryBootstrap(t *testing.T) {
	// The factory point loads from the embedded internal descriptor;
	// its adaptive record is the hand-written factory, so resolution
	// needs no synthesis.
	reg := For(FactoryPoint)

	require.Contains(t, reg.SupportedNames(), "spi")

	v, err := reg.GetAdaptive()
	require.NoError(t, err)
	af, ok := v.(*AdaptiveExtensionFactory)
	require.True(t, ok)
	require.NotEmpty(t, af.factories)

	// Unknown interface types resolve to nil rather than failing.
	type unknown interface{ Never() }
	assert.Nil(t, af.GetExtension(TypeOf[unknown](), "dep"))
	assert.Nil(t, af.GetExtension(reflect.TypeOf(0), "dep"))
}

func TestSharedFactoryIsSingleton(t *testing.T) {
	a := sharedFactory()
	b := sharedFactory()
	require.NotNil(t, a)
	assert.Same(t, a.(*AdaptiveExtensionFactory), b.(*AdaptiveExtensionFactory))
}
