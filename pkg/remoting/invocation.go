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

// An Invocation describes one method call travelling through the
// framework. Adaptive dispatch consults MethodName to resolve
// method-scoped URL parameters.
type Invocation interface {
	MethodName() string
	Arguments() []any
	Attachments() map[string]string
}

// RPCInvocation is the plain Invocation implementation used for
// request payloads.
type RPCInvocation struct {
	Method      string
	Args        []any
	Attachment  map[string]string
	ServiceName string
}

var _ Invocation = (*RPCInvocation)(nil)

func (i *RPCInvocation) MethodName() string { return i.Method }

func (i *RPCInvocation) Arguments() []any { return i.Args }

func (i *RPCInvocation) Attachments() map[string]string {
	if i.Attachment == nil {
		i.Attachment = make(map[string]string)
	}
	return i.Attachment
}
