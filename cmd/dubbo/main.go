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
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"

	"github.com/zhengjianglong915/dubbo/internal/build"
)

func main() {
	log := logrus.StandardLogger()

	app := kingpin.New("dubbo", "Dubbo RPC framework tooling.")
	app.HelpFlag.Short('h')

	decode, decodeCtx := registerDecode(app, log)
	extensions, extensionsCtx := registerExtensions(app, log)
	version := app.Command("version", "Build information.")

	args := os.Args[1:]
	switch kingpin.MustParse(app.Parse(args)) {
	case decode.FullCommand():
		if err := doDecode(decodeCtx); err != nil {
			log.WithError(err).Fatal("decode failed")
		}
	case extensions.FullCommand():
		if err := doExtensions(extensionsCtx); err != nil {
			log.WithError(err).Fatal("listing extensions failed")
		}
	case version.FullCommand():
		fmt.Println(build.PrintBuildInfo())
	default:
		app.Usage(args)
		os.Exit(2)
	}
}
