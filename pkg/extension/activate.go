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
	"sort"
	"strings"

	"github.com/zhengjianglong915/dubbo/pkg/url"
)

// Special names understood by GetActivate.
const (
	// ActivateDefault marks, inside an explicit name list, the position
	// of the implicitly activated batch.
	ActivateDefault = "default"

	// RemovePrefix excludes the prefixed name; "-default" suppresses
	// the whole implicit batch.
	RemovePrefix = "-"
)

// GetActivate returns the ordered extensions active for the URL: every
// implementation whose activation metadata matches the requested group
// and URL keys, plus the explicitly named ones. Names prefixed with "-"
// are excluded, "-default" suppresses the implicit batch, and "default"
// positions it among the explicit names.
func (r *Registry) GetActivate(u *url.URL, names []string, group string) ([]any, error) {
	if err := r.load(); err != nil {
		return nil, err
	}

	removed := make(map[string]bool)
	suppressDefault := false
	for _, n := range names {
		if strings.HasPrefix(n, RemovePrefix) {
			removed[n[len(RemovePrefix):]] = true
			if n == RemovePrefix+ActivateDefault {
				suppressDefault = true
			}
		}
	}

	var exts []any
	if !suppressDefault {
		var implicit []activateEntry
		for name, act := range r.set.activations {
			if removed[name] || containsName(names, name) {
				continue
			}
			if !matchGroup(group, act.Group) || !matchKeys(u, act.Value) {
				continue
			}
			implicit = append(implicit, activateEntry{name: name, act: act})
		}
		sortActivate(implicit)
		for _, e := range implicit {
			v, err := r.Get(e.name)
			if err != nil {
				return nil, err
			}
			exts = append(exts, v)
		}
	}

	var explicit []any
	for _, n := range names {
		if strings.HasPrefix(n, RemovePrefix) || removed[n] {
			continue
		}
		if n == ActivateDefault {
			exts = append(explicit, exts...)
			explicit = nil
			continue
		}
		v, err := r.Get(n)
		if err != nil {
			return nil, err
		}
		explicit = append(explicit, v)
	}
	return append(exts, explicit...), nil
}

type activateEntry struct {
	name string
	act  Activation
}

// matchGroup applies the group rule: an empty requested group matches
// everything; otherwise the metadata must list the group.
func matchGroup(group string, groups []string) bool {
	if group == "" {
		return true
	}
	for _, g := range groups {
		if g == group {
			return true
		}
	}
	return false
}

// matchKeys applies the URL-key predicate: no keys always matches; a
// key matches when some URL parameter named k or "*.k" has a non-empty
// value.
func matchKeys(u *url.URL, keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	if u == nil {
		return false
	}
	params := u.Parameters()
	for _, k := range keys {
		for pk, pv := range params {
			if pv == "" {
				continue
			}
			if pk == k || strings.HasSuffix(pk, "."+k) {
				return true
			}
		}
	}
	return false
}

// sortActivate orders the implicit batch by before/after hints, then
// the order hint, with a stable tie-break on name.
func sortActivate(entries []activateEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if containsString(a.act.Before, b.name) || containsString(b.act.After, a.name) {
			return true
		}
		if containsString(a.act.After, b.name) || containsString(b.act.Before, a.name) {
			return false
		}
		if a.act.Order != b.act.Order {
			return a.act.Order < b.act.Order
		}
		return a.name < b.name
	})
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
