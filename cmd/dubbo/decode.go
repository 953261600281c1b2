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

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"

	"github.com/zhengjianglong915/dubbo/pkg/config"
	"github.com/zhengjianglong915/dubbo/pkg/extension"
	"github.com/zhengjianglong915/dubbo/pkg/remoting"
	"github.com/zhengjianglong915/dubbo/pkg/remoting/exchange"
	"github.com/zhengjianglong915/dubbo/pkg/url"
)

type decodeContext struct {
	log        logrus.FieldLogger
	file       string
	configFile string
	hex        bool
}

// registerDecode adds the "decode" sub-command: a frame inspector that
// reads captured wire bytes and prints each decoded message.
func registerDecode(app *kingpin.Application, log logrus.FieldLogger) (*kingpin.CmdClause, *decodeContext) {
	ctx := &decodeContext{log: log}

	cmd := app.Command("decode", "Decode captured exchange frames from a file.")
	cmd.Flag("file", "File holding raw frame bytes.").Required().StringVar(&ctx.file)
	cmd.Flag("hex", "Treat the file contents as hex text.").BoolVar(&ctx.hex)
	cmd.Flag("config", "Framework configuration file.").StringVar(&ctx.configFile)
	return cmd, ctx
}

func doDecode(ctx *decodeContext) error {
	params := config.Defaults()
	if ctx.configFile != "" {
		f, err := os.Open(ctx.configFile)
		if err != nil {
			return err
		}
		parsed, err := config.Parse(f)
		f.Close()
		if err != nil {
			return err
		}
		params = *parsed
	}
	for _, dir := range params.DescriptorDirs {
		extension.RegisterResources(os.DirFS(dir))
	}

	raw, err := os.ReadFile(ctx.file)
	if err != nil {
		return err
	}
	if ctx.hex {
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, string(raw))
		if raw, err = hex.DecodeString(cleaned); err != nil {
			return fmt.Errorf("invalid hex input: %w", err)
		}
	}

	u, _ := url.Parse("dubbo://127.0.0.1:0/inspect?serialization=" + params.Serialization)
	codec := exchange.NewCodec(ctx.log, u, exchange.WithPayloadLimit(params.PayloadLimit))
	buf := remoting.WrappedBuffer(raw)

	for buf.ReadableBytes() > 0 {
		msg, err := codec.Decode(buf)
		if errors.Is(err, remoting.ErrNeedMoreInput) {
			fmt.Printf("%d trailing bytes do not form a complete frame\n", buf.ReadableBytes())
			return nil
		}
		if err != nil {
			return err
		}
		printMessage(msg)
	}
	return nil
}

func printMessage(msg any) {
	switch m := msg.(type) {
	case *remoting.Request:
		kind := "request"
		if m.Heartbeat() {
			kind = "heartbeat"
		} else if m.Event {
			kind = "event"
		}
		fmt.Printf("%s id=%d two-way=%t broken=%t data=%v\n", kind, m.ID, m.TwoWay, m.Broken, m.Data)
	case *remoting.Response:
		fmt.Printf("response id=%d status=%d error=%q result=%v\n", m.ID, m.Status, m.Error, m.Result)
	default:
		fmt.Printf("fallback message: %v\n", m)
	}
}
