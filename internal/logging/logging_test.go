/*
 * logging_test.go, part of smirnoff.
 *
 * Copyright 2025 The smirnoff authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(Te *testing.T) {
	assert.Equal(Te, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(Te, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(Te, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(Te, zapcore.DebugLevel, VerbosityToLevel(5))
}

func TestJSON(Te *testing.T) {
	var buf bytes.Buffer
	l, err := New("info", true, &buf)
	require.NoError(Te, err)
	l.Debug("hidden")
	l.Info("parameters assigned", zap.Int("atoms", 9))
	require.NoError(Te, l.Sync())
	var entry map[string]interface{}
	require.NoError(Te, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(Te, "parameters assigned", entry["msg"])
	assert.Equal(Te, 9.0, entry["atoms"])
	assert.Equal(Te, "info", entry["level"])
}

func TestConsole(Te *testing.T) {
	var buf bytes.Buffer
	l := NewAtLevel(zapcore.DebugLevel, false, &buf)
	l.Debug("matched", zap.String("smirks", "[#6:1]-[#1:2]"))
	assert.Contains(Te, buf.String(), "matched")
	assert.Contains(Te, buf.String(), "[#6:1]-[#1:2]")

	_, err := New("chatty", false, &buf)
	assert.Error(Te, err)
}
