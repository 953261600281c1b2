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

// Package exchange implements the length-prefixed binary framing
// protocol: a 16-byte big-endian header carrying a magic number, flag
// bits, a status byte, the message id and the body length, followed by
// a serialized body. Bytes that do not start a frame fall through to a
// fallback codec after magic resynchronization.
package exchange

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zhengjianglong915/dubbo/internal/metrics"
	"github.com/zhengjianglong915/dubbo/pkg/remoting"
	"github.com/zhengjianglong915/dubbo/pkg/serialize"
	"github.com/zhengjianglong915/dubbo/pkg/url"
)

// Frame layout constants.
const (
	HeaderLength = 16

	MagicHigh byte = 0xda
	MagicLow  byte = 0xbb

	FlagRequest byte = 0x80
	FlagTwoWay  byte = 0x40
	FlagEvent   byte = 0x20

	SerializationMask byte = 0x1f

	// DefaultPayloadLimit caps the body length in either direction.
	DefaultPayloadLimit = 8 * 1024 * 1024

	// errorMessageLimit truncates the message carried by a replacement
	// BAD_RESPONSE frame.
	errorMessageLimit = 256
)

// A Codec frames requests and responses for one connection. The URL it
// was built with selects the body serializer on encode; the header's
// content type id selects it on decode.
type Codec struct {
	log          logrus.FieldLogger
	u            *url.URL
	payloadLimit int
	store        *Store
	fallback     remoting.Codec
	metrics      *metrics.Metrics
}

var _ remoting.Codec = (*Codec)(nil)

// Option configures a Codec.
type Option func(*Codec)

// WithPayloadLimit overrides the maximum body length.
func WithPayloadLimit(n int) Option {
	return func(c *Codec) { c.payloadLimit = n }
}

// WithStore attaches the correlation store consulted for method-aware
// response decoding.
func WithStore(s *Store) Option {
	return func(c *Codec) { c.store = s }
}

// WithFallback replaces the codec receiving non-frame bytes. The
// default is the telnet text codec.
func WithFallback(f remoting.Codec) Option {
	return func(c *Codec) { c.fallback = f }
}

// WithMetrics attaches frame metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Codec) { c.metrics = m }
}

// NewCodec returns a Codec bound to the connection URL.
func NewCodec(log logrus.FieldLogger, u *url.URL, opts ...Option) *Codec {
	c := &Codec{
		log:          log.WithField("context", "exchange-codec"),
		u:            u,
		payloadLimit: DefaultPayloadLimit,
		fallback:     &remoting.TelnetCodec{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) serialization() (serialize.Serialization, error) {
	name := serialize.DefaultName
	if c.u != nil {
		name = c.u.ParameterOr(serialize.KeySerialization, serialize.DefaultName)
	}
	return serialize.ByName(name)
}

func (c *Codec) checkPayload(size int) error {
	if c.payloadLimit > 0 && size > c.payloadLimit {
		return &remoting.ExceedPayloadError{Size: size, Limit: c.payloadLimit}
	}
	return nil
}

// Encode frames msg into buf. Requests and responses get the binary
// frame; anything else goes to the fallback codec.
func (c *Codec) Encode(buf *remoting.Buffer, msg any) error {
	switch m := msg.(type) {
	case *remoting.Request:
		return c.encodeRequest(buf, m)
	case *remoting.Response:
		return c.encodeResponse(buf, m)
	default:
		return c.fallback.Encode(buf, msg)
	}
}

func (c *Codec) encodeRequest(buf *remoting.Buffer, req *remoting.Request) error {
	s, err := c.serialization()
	if err != nil {
		return err
	}

	var header [HeaderLength]byte
	header[0] = MagicHigh
	header[1] = MagicLow
	flag := FlagRequest | s.ContentTypeID()
	if req.TwoWay {
		flag |= FlagTwoWay
	}
	if req.Event {
		flag |= FlagEvent
	}
	header[2] = flag
	binary.BigEndian.PutUint64(header[4:12], req.ID)

	// The header goes in first with a zero length; the length is
	// patched back once the body size is known.
	start := buf.WriterIndex()
	buf.WriteBytes(header[:])

	body, err := s.Serialize(req.Data)
	if err != nil {
		buf.SetWriterIndex(start)
		return fmt.Errorf("encoding request %d: %w", req.ID, err)
	}
	if err := c.checkPayload(len(body)); err != nil {
		buf.SetWriterIndex(start)
		return err
	}
	buf.WriteBytes(body)

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(body)))
	buf.SetBytes(start+12, length[:])

	c.metrics.MarkFrame("out", frameKind(req.Event, req.Heartbeat()))
	return nil
}

func (c *Codec) encodeResponse(buf *remoting.Buffer, resp *remoting.Response) error {
	s, err := c.serialization()
	if err != nil {
		return err
	}

	var header [HeaderLength]byte
	header[0] = MagicHigh
	header[1] = MagicLow
	flag := s.ContentTypeID()
	if resp.Event {
		flag |= FlagEvent
	}
	header[2] = flag
	header[3] = resp.Status
	binary.BigEndian.PutUint64(header[4:12], resp.ID)

	start := buf.WriterIndex()
	buf.WriteBytes(header[:])

	var body []byte
	if resp.OK() {
		body, err = s.Serialize(resp.Result)
	} else {
		body, err = s.Serialize(resp.Error)
	}
	if err == nil {
		err = c.checkPayload(len(body))
	}
	if err != nil {
		buf.SetWriterIndex(start)
		return c.replaceWithBadResponse(buf, resp, err)
	}
	buf.WriteBytes(body)

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(body)))
	buf.SetBytes(start+12, length[:])

	c.metrics.MarkFrame("out", frameKind(resp.Event, resp.Heartbeat()))
	return nil
}

// replaceWithBadResponse writes a BAD_RESPONSE frame carrying a
// truncated error message in place of the frame that failed to encode,
// then surfaces the original error. A failing BAD_RESPONSE frame is
// given up on to avoid recursion.
func (c *Codec) replaceWithBadResponse(buf *remoting.Buffer, resp *remoting.Response, cause error) error {
	if resp.Status == remoting.StatusBadResponse {
		return cause
	}

	msg := fmt.Sprintf("failed to encode response for id %d: %v", resp.ID, cause)
	if len(msg) > errorMessageLimit {
		msg = msg[:errorMessageLimit]
	}
	c.log.WithError(cause).WithField("id", resp.ID).Warn("replacing unencodable response with BAD_RESPONSE")

	bad := &remoting.Response{ID: resp.ID, Status: remoting.StatusBadResponse, Error: msg}
	if err := c.encodeResponse(buf, bad); err != nil {
		c.log.WithError(err).WithField("id", resp.ID).Error("failed to encode BAD_RESPONSE replacement")
	}
	return cause
}

// Decode consumes at most one message from buf. Incomplete frames
// return remoting.ErrNeedMoreInput with the reader index unchanged;
// bytes that do not start with the magic are resynchronized and handed
// to the fallback codec.
func (c *Codec) Decode(buf *remoting.Buffer) (any, error) {
	readable := buf.ReadableBytes()
	if readable == 0 {
		return nil, remoting.ErrNeedMoreInput
	}

	mark := buf.ReaderIndex()
	n := HeaderLength
	if readable < n {
		n = readable
	}
	header := buf.ReadBytes(n)

	if header[0] != MagicHigh || (n > 1 && header[1] != MagicLow) {
		return c.resync(buf, mark, header)
	}
	if n < HeaderLength {
		buf.SetReaderIndex(mark)
		return nil, remoting.ErrNeedMoreInput
	}

	bodyLen := int(binary.BigEndian.Uint32(header[12:16]))
	if err := c.checkPayload(bodyLen); err != nil {
		return nil, err
	}
	if buf.ReadableBytes() < bodyLen {
		buf.SetReaderIndex(mark)
		return nil, remoting.ErrNeedMoreInput
	}

	body := buf.ReadBytes(bodyLen)
	return c.decodeBody(header, body)
}

// resync scans forward for the next magic and delegates everything
// before it to the fallback codec.
func (c *Codec) resync(buf *remoting.Buffer, mark int, header []byte) (any, error) {
	full := append(header, buf.ReadBytes(buf.ReadableBytes())...)

	i := magicIndex(full)
	var chunk []byte
	if i >= 0 {
		buf.SetReaderIndex(mark + i)
		chunk = full[:i]
	} else {
		chunk = full
	}
	c.log.WithField("skipped", len(chunk)).Debug("no frame magic, delegating to fallback codec")
	return c.fallback.Decode(remoting.WrappedBuffer(chunk))
}

func magicIndex(b []byte) int {
	for i := 1; i+1 < len(b); i++ {
		if b[i] == MagicHigh && b[i+1] == MagicLow {
			return i
		}
	}
	return -1
}

func (c *Codec) decodeBody(header, body []byte) (any, error) {
	flag := header[2]
	id := binary.BigEndian.Uint64(header[4:12])

	s, err := serialize.ByID(flag & SerializationMask)
	if err != nil {
		return nil, err
	}

	if flag&FlagRequest != 0 {
		return c.decodeRequest(s, header, body, id)
	}
	return c.decodeResponse(s, header, body, id)
}

func (c *Codec) decodeRequest(s serialize.Serialization, header, body []byte, id uint64) (*remoting.Request, error) {
	req := &remoting.Request{
		ID:      id,
		Version: remoting.ProtocolVersion,
		TwoWay:  header[2]&FlagTwoWay != 0,
		Event:   header[2]&FlagEvent != 0,
	}
	if len(body) > 0 {
		var data any
		if err := s.Deserialize(body, &data); err != nil {
			// A broken request is still delivered so the peer can
			// answer with BAD_REQUEST.
			req.Broken = true
			req.Data = err
			c.metrics.MarkDecodeError()
		} else {
			req.Data = data
		}
	}
	c.metrics.MarkFrame("in", frameKind(req.Event, req.Heartbeat()))
	return req, nil
}

func (c *Codec) decodeResponse(s serialize.Serialization, header, body []byte, id uint64) (*remoting.Response, error) {
	resp := &remoting.Response{
		ID:     id,
		Status: header[3],
		Event:  header[2]&FlagEvent != 0,
	}

	switch {
	case !resp.OK():
		var msg string
		if err := s.Deserialize(body, &msg); err != nil {
			resp.Status = remoting.StatusClientError
			resp.Error = fmt.Sprintf("decoding error message: %v", err)
			c.metrics.MarkDecodeError()
		} else {
			resp.Error = msg
		}
	case resp.Event:
		if len(body) > 0 {
			var v any
			if err := s.Deserialize(body, &v); err == nil {
				resp.Result = v
			}
		}
	default:
		// Method-aware decoding: the originating request may carry a
		// typed reply target; without a correlated request the body is
		// decoded generically.
		var target any
		if c.store != nil {
			if p := c.store.Peek(id); p != nil && p.Reply != nil {
				target = p.Reply
			}
		}
		if target != nil {
			if err := s.Deserialize(body, target); err != nil {
				resp.Status = remoting.StatusClientError
				resp.Error = fmt.Sprintf("decoding result: %v", err)
				c.metrics.MarkDecodeError()
			} else {
				resp.Result = target
			}
		} else {
			var v any
			if err := s.Deserialize(body, &v); err != nil {
				resp.Status = remoting.StatusClientError
				resp.Error = fmt.Sprintf("decoding result: %v", err)
				c.metrics.MarkDecodeError()
			} else {
				resp.Result = v
			}
		}
	}

	c.metrics.MarkFrame("in", frameKind(resp.Event, resp.Heartbeat()))
	return resp, nil
}

func frameKind(event, heartbeat bool) string {
	switch {
	case heartbeat:
		return "heartbeat"
	case event:
		return "event"
	default:
		return "message"
	}
}
