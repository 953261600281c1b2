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
	"sort"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"

	"github.com/zhengjianglong915/dubbo/pkg/extension"
	"github.com/zhengjianglong915/dubbo/pkg/serialize"
)

// builtinPoints are the extension points the CLI can inspect.
var builtinPoints = map[string]*extension.Point{
	extension.FactoryPoint.ID: extension.FactoryPoint,
	serialize.Point.ID:        serialize.Point,
}

type extensionsContext struct {
	log   logrus.FieldLogger
	point string
	dirs  []string
}

// registerExtensions adds the "extensions" sub-command, which lists the
// names loaded for an extension point from the built-in and
// user-supplied descriptor directories.
func registerExtensions(app *kingpin.Application, log logrus.FieldLogger) (*kingpin.CmdClause, *extensionsContext) {
	ctx := &extensionsContext{log: log}

	cmd := app.Command("extensions", "List loaded extensions of a point.")
	cmd.Flag("point", "Extension point id, e.g. dubbo.serialize.Serialization.").Required().StringVar(&ctx.point)
	cmd.Flag("dir", "Additional descriptor directory; may repeat.").StringsVar(&ctx.dirs)
	return cmd, ctx
}

func doExtensions(ctx *extensionsContext) error {
	for _, dir := range ctx.dirs {
		extension.RegisterResources(os.DirFS(dir))
	}

	p, ok := builtinPoints[ctx.point]
	if !ok {
		known := make([]string, 0, len(builtinPoints))
		for id := range builtinPoints {
			known = append(known, id)
		}
		sort.Strings(known)
		return fmt.Errorf("unknown extension point %q, known points: %v", ctx.point, known)
	}

	reg := extension.For(p)
	def := reg.DefaultName()
	for _, name := range reg.SupportedNames() {
		marker := ""
		if name == def {
			marker = " (default)"
		}
		fmt.Printf("%s%s\n", name, marker)
	}
	return nil
}
