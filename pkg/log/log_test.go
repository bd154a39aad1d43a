// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitTestLogger(t *testing.T) {
	lg, props, err := InitTestLogger(t, &Config{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, props)
	assert.True(t, lg.Core().Enabled(zapcore.DebugLevel))
	lg.Debug("world tick", FieldTick(7))
}

func TestInitLoggerWithWriteSyncer(t *testing.T) {
	buf := &bytes.Buffer{}
	lg, _, err := InitLoggerWithWriteSyncer(&Config{Level: "info", Format: FormatJSON, DisableTimestamp: true}, zapcore.AddSync(buf))
	require.NoError(t, err)

	ml := &MLogger{Logger: lg}
	ml.With(FieldModule("world")).Info("player logged on",
		FieldPlayer("Zezima"),
		FieldKey(42),
		FieldHost(&net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 43594}),
	)
	ml.Debug("filtered")

	out := buf.String()
	assert.Contains(t, out, `"module":"world"`)
	assert.Contains(t, out, `"player":"Zezima"`)
	assert.Contains(t, out, `"key":42`)
	assert.Contains(t, out, `"host":"10.0.0.1"`)
	assert.NotContains(t, out, "filtered")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestInitLoggerBadLevel(t *testing.T) {
	_, _, err := InitLoggerWithWriteSyncer(&Config{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestRateGroup(t *testing.T) {
	buf := &bytes.Buffer{}
	lg, _, err := InitLoggerWithWriteSyncer(&Config{Level: "info", Format: FormatJSON}, zapcore.AddSync(buf))
	require.NoError(t, err)

	ml := (&MLogger{Logger: lg}).WithRateGroup("log_test.idle", 0.001, 1)
	assert.True(t, ml.RatedInfo(1, "idle disconnect"))
	assert.False(t, ml.RatedInfo(1, "idle disconnect"))
	assert.Equal(t, 1, strings.Count(buf.String(), "idle disconnect"))
}

func TestFieldHostNil(t *testing.T) {
	assert.Equal(t, zapcore.SkipType, FieldHost(nil).Type)
}

func TestContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	lg, _, err := InitLoggerWithWriteSyncer(&Config{Level: "debug", Format: FormatJSON, DisableTimestamp: true}, zapcore.AddSync(buf))
	require.NoError(t, err)

	ctx := Bind(context.Background(), &MLogger{Logger: lg})
	ctx = WithModule(ctx, "login")
	ctx = WithFields(ctx, FieldPlayer("Zezima"))
	Ctx(ctx).Debug("profile loaded")

	out := buf.String()
	assert.Contains(t, out, `"module":"login"`)
	assert.Contains(t, out, `"player":"Zezima"`)
	assert.Contains(t, out, "profile loaded")

	// 未附加 Logger 时退回全局 Logger
	assert.NotNil(t, Ctx(context.Background()).Logger)
}
