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

package remoting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDsAreUnique(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		r := NewRequest()
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}
}

func TestHeartbeatClassification(t *testing.T) {
	hb := NewHeartbeat()
	assert.True(t, hb.Heartbeat())
	assert.True(t, hb.TwoWay)

	ev := NewRequest()
	ev.Event = true
	ev.Data = "readonly"
	assert.False(t, ev.Heartbeat())
}

func TestResponseStatus(t *testing.T) {
	ok := NewResponse(7)
	assert.True(t, ok.OK())
	assert.Equal(t, uint64(7), ok.ID)

	bad := &Response{ID: 7, Status: StatusBadResponse, Error: "unencodable"}
	assert.False(t, bad.OK())
}
