/*
Copyright 2026 Red Hat, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ocscommon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// InitLogger builds the console logger test runs and the CLI write to.
// Output is plain uncolored text so it stays readable in CI job logs.
// The returned logger passes everything through; callers narrow it with
// Level() once the LOG_LEVEL run parameter is known.
func InitLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = time.StampMicro
	output := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true}
	output.TimeLocation = time.Local
	output.FormatTimestamp = func(i interface{}) string {
		return fmt.Sprintf("%-6s |", i)
	}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("%-4s |", i))
	}
	output.FormatCaller = func(i interface{}) string {
		if v, ok := i.(string); ok {
			return fmt.Sprintf("%-6s |", filepath.Base(v))
		}
		return ""
	}
	return zerolog.New(output).With().Timestamp().Caller().Logger()
}
