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

package exchange

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhengjianglong915/dubbo/internal/metrics"
	"github.com/zhengjianglong915/dubbo/pkg/remoting"
)

// DefaultGraceWindow bounds how long an unanswered request may stay
// registered before the sweeper drops it.
const DefaultGraceWindow = 60 * time.Second

// A Pending is the completable slot a caller waits on for one two-way
// request. The original request is kept for decoding context; Reply,
// when set, is the pointer target for method-aware response decoding.
type Pending struct {
	Request *remoting.Request
	Reply   any
	Done    chan *remoting.Response

	created time.Time
	once    sync.Once
}

// NewPending returns a Pending for req with a buffered completion
// channel.
func NewPending(req *remoting.Request) *Pending {
	return &Pending{
		Request: req,
		Done:    make(chan *remoting.Response, 1),
		created: time.Now(),
	}
}

func (p *Pending) complete(resp *remoting.Response) {
	p.once.Do(func() {
		p.Done <- resp
	})
}

// A Store correlates outstanding request ids with their pending slots.
// Responses arriving for ids that were never registered, or that were
// registered and already swept, are dropped; the sweeper bounds memory
// growth when callers vanish without taking their slot.
type Store struct {
	log     logrus.FieldLogger
	grace   time.Duration
	metrics *metrics.Metrics

	pending sync.Map // uint64 -> *Pending
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithGraceWindow sets how long an entry may stay registered before the
// sweeper drops it.
func WithGraceWindow(d time.Duration) StoreOption {
	return func(s *Store) { s.grace = d }
}

// WithStoreMetrics attaches the pending-request gauge.
func WithStoreMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore returns an empty correlation store.
func NewStore(log logrus.FieldLogger, opts ...StoreOption) *Store {
	s := &Store{
		log:   log.WithField("context", "exchange-store"),
		grace: DefaultGraceWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register records the pending slot for id. Registering an id twice is
// an error: ids are unique within a transport session.
func (s *Store) Register(id uint64, p *Pending) error {
	if _, loaded := s.pending.LoadOrStore(id, p); loaded {
		return fmt.Errorf("exchange: request id %d already registered", id)
	}
	s.metrics.PendingAdd(1)
	return nil
}

// Take removes and returns the pending slot for id, or nil.
func (s *Store) Take(id uint64) *Pending {
	v, loaded := s.pending.LoadAndDelete(id)
	if !loaded {
		return nil
	}
	s.metrics.PendingAdd(-1)
	return v.(*Pending)
}

// Peek returns the pending slot for id without removing it. The codec
// consults it for method-aware response decoding.
func (s *Store) Peek(id uint64) *Pending {
	v, ok := s.pending.Load(id)
	if !ok {
		return nil
	}
	return v.(*Pending)
}

// Cancel removes the slot for id and wakes its waiter with a
// client-error response.
func (s *Store) Cancel(id uint64) {
	p := s.Take(id)
	if p == nil {
		return
	}
	p.complete(&remoting.Response{
		ID:     id,
		Status: remoting.StatusClientError,
		Error:  "request cancelled",
	})
}

// Complete delivers resp to the waiter registered under its id and
// reports whether one existed. A response without a registered request,
// for example after the caller timed out, is dropped.
func (s *Store) Complete(resp *remoting.Response) bool {
	p := s.Take(resp.ID)
	if p == nil {
		s.log.WithField("id", resp.ID).Debug("dropping uncorrelated response")
		return false
	}
	p.complete(resp)
	return true
}

// Sweep periodically times out entries older than the grace window. It
// blocks until stop closes and is shaped for workgroup.Group.Add.
func (s *Store) Sweep(stop <-chan struct{}) error {
	interval := s.grace / 4
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			s.sweepOnce(time.Now())
		}
	}
}

func (s *Store) sweepOnce(now time.Time) {
	s.pending.Range(func(k, v any) bool {
		p := v.(*Pending)
		if now.Sub(p.created) < s.grace {
			return true
		}
		if taken := s.Take(k.(uint64)); taken != nil {
			s.log.WithField("id", k).Warn("dropping request past the grace window")
			taken.complete(&remoting.Response{
				ID:     k.(uint64),
				Status: remoting.StatusClientTimeout,
				Error:  fmt.Sprintf("no response within %s", s.grace),
			})
		}
		return true
	})
}
