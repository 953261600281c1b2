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

// Package config holds the runtime parameters of the framework,
// loadable from a YAML file.
package config

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"
)

// Parameters are the tunables of the extension engine and the exchange
// codec. Durations are strings in time.ParseDuration syntax.
type Parameters struct {
	// PayloadLimit caps the frame body length in bytes, in both
	// directions. Zero disables the check.
	PayloadLimit int `yaml:"payload-limit,omitempty"`

	// Serialization names the body serializer used when a connection
	// URL does not specify one.
	Serialization string `yaml:"serialization,omitempty"`

	// DescriptorDirs lists directories searched for extension
	// descriptor files in addition to the built-in ones.
	DescriptorDirs []string `yaml:"descriptor-dirs,omitempty"`

	// GraceWindow bounds how long an unanswered request stays in the
	// correlation store.
	GraceWindow string `yaml:"grace-window,omitempty"`

	// Heartbeat is the idle interval after which a heartbeat frame is
	// sent. "0" disables heartbeats.
	Heartbeat string `yaml:"heartbeat,omitempty"`
}

// Defaults returns the default parameter set.
func Defaults() Parameters {
	return Parameters{
		PayloadLimit:  8 * 1024 * 1024,
		Serialization: "hessian2",
		GraceWindow:   "60s",
		Heartbeat:     "60s",
	}
}

// Parse reads Parameters from a YAML document, applying defaults for
// unset fields.
func Parse(in io.Reader) (*Parameters, error) {
	conf := Defaults()

	decoder := yaml.NewDecoder(in)
	decoder.SetStrict(true)
	if err := decoder.Decode(&conf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &conf, conf.Validate()
}

// GraceWindowDuration returns the parsed grace window. Call Validate
// first; an unparseable value falls back to the default.
func (p *Parameters) GraceWindowDuration() time.Duration {
	return duration(p.GraceWindow, Defaults().GraceWindow)
}

// HeartbeatDuration returns the parsed heartbeat interval.
func (p *Parameters) HeartbeatDuration() time.Duration {
	return duration(p.Heartbeat, Defaults().Heartbeat)
}

func duration(s, def string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		d, _ = time.ParseDuration(def)
	}
	return d
}

// Validate verifies the parameter set.
func (p *Parameters) Validate() error {
	if p == nil {
		return nil
	}
	if p.PayloadLimit < 0 {
		return fmt.Errorf("invalid payload limit %d", p.PayloadLimit)
	}
	if p.Serialization == "" {
		return fmt.Errorf("serialization must not be empty")
	}
	for _, field := range []struct{ name, value string }{
		{"grace-window", p.GraceWindow},
		{"heartbeat", p.Heartbeat},
	} {
		d, err := time.ParseDuration(field.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field.name, field.value, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s %q: must not be negative", field.name, field.value)
		}
	}
	return nil
}
