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

// Package url provides the immutable parameter bag that drives extension
// selection. A URL names a protocol, an address, a path and a flat
// string-to-string parameter map; it is the sole runtime input consulted
// by adaptive dispatch and serializer negotiation.
package url

import (
	"fmt"
	"net"
	neturl "net/url"
	"sort"
	"strconv"
	"strings"
)

// A URL is an immutable description of an endpoint plus its parameters.
// All With* methods return a copy; a URL value is safe for concurrent use.
type URL struct {
	protocol string
	host     string
	port     int
	path     string
	params   map[string]string
}

// New constructs a URL. The parameter map is copied.
func New(protocol, host string, port int, path string, params map[string]string) *URL {
	u := &URL{
		protocol: protocol,
		host:     host,
		port:     port,
		path:     strings.TrimPrefix(path, "/"),
		params:   make(map[string]string, len(params)),
	}
	for k, v := range params {
		u.params[k] = v
	}
	return u
}

// Parse parses a string of the form
// "protocol://host:port/path?key=value&..." into a URL.
func Parse(raw string) (*URL, error) {
	parsed, err := neturl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("invalid url %q: missing protocol", raw)
	}

	host := parsed.Host
	port := 0
	if h, p, err := net.SplitHostPort(parsed.Host); err == nil {
		host = h
		if port, err = strconv.Atoi(p); err != nil {
			return nil, fmt.Errorf("invalid url %q: bad port: %w", raw, err)
		}
	}

	params := make(map[string]string)
	for k, vs := range parsed.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	return &URL{
		protocol: parsed.Scheme,
		host:     host,
		port:     port,
		path:     strings.TrimPrefix(parsed.Path, "/"),
		params:   params,
	}, nil
}

// Protocol returns the URL scheme.
func (u *URL) Protocol() string { return u.protocol }

// Host returns the host portion of the address.
func (u *URL) Host() string { return u.host }

// Port returns the port portion of the address, zero if unset.
func (u *URL) Port() int { return u.port }

// Path returns the path with any leading slash removed.
func (u *URL) Path() string { return u.path }

// Address returns "host:port", or just the host when no port is set.
func (u *URL) Address() string {
	if u.port <= 0 {
		return u.host
	}
	return net.JoinHostPort(u.host, strconv.Itoa(u.port))
}

// Parameter returns the value for key, or the empty string.
func (u *URL) Parameter(key string) string { return u.params[key] }

// ParameterOr returns the value for key, or def when the value is absent
// or empty.
func (u *URL) ParameterOr(key, def string) string {
	if v := u.params[key]; v != "" {
		return v
	}
	return def
}

// HasParameter reports whether key is present with a non-empty value.
func (u *URL) HasParameter(key string) bool { return u.params[key] != "" }

// MethodParameter returns the value of "<method>.<key>", falling back to
// the plain key.
func (u *URL) MethodParameter(method, key string) string {
	if v := u.params[method+"."+key]; v != "" {
		return v
	}
	return u.params[key]
}

// MethodParameterOr is MethodParameter with a default.
func (u *URL) MethodParameterOr(method, key, def string) string {
	if v := u.MethodParameter(method, key); v != "" {
		return v
	}
	return def
}

// IntParameter returns the value for key parsed as an int, or def when
// absent or unparseable.
func (u *URL) IntParameter(key string, def int) int {
	v := u.params[key]
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Parameters returns a copy of the parameter map.
func (u *URL) Parameters() map[string]string {
	out := make(map[string]string, len(u.params))
	for k, v := range u.params {
		out[k] = v
	}
	return out
}

// WithParameter returns a copy of u with key set to value.
func (u *URL) WithParameter(key, value string) *URL {
	out := u.clone()
	out.params[key] = value
	return out
}

// WithProtocol returns a copy of u with the protocol replaced.
func (u *URL) WithProtocol(protocol string) *URL {
	out := u.clone()
	out.protocol = protocol
	return out
}

func (u *URL) clone() *URL {
	return New(u.protocol, u.host, u.port, u.path, u.params)
}

// String renders the URL in parseable form with parameters in sorted
// key order.
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(u.protocol)
	b.WriteString("://")
	b.WriteString(u.Address())
	if u.path != "" {
		b.WriteString("/")
		b.WriteString(u.path)
	}
	if len(u.params) > 0 {
		keys := make([]string, 0, len(u.params))
		for k := range u.params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sep := "?"
		for _, k := range keys {
			b.WriteString(sep)
			sep = "&"
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(neturl.QueryEscape(u.params[k]))
		}
	}
	return b.String()
}
