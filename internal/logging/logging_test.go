package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New_JSON(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	var buf bytes.Buffer

	log, err := New(&buf, FormatJSON, LevelInfo)
	require.NoError(err)

	log.Debug("hidden")
	log.With("module", "gen").Info("generated", "rules", 3)

	var entry map[string]interface{}
	require.NoError(json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal("info", entry["level"])
	assert.Equal("generated", entry["message"])
	assert.Equal("gen", entry["module"])
	assert.Equal(float64(3), entry["rules"])
}

func Test_New_BadArgs(t *testing.T) {
	testCases := []struct {
		name   string
		format string
		level  string
	}{
		{name: "bad format", format: "xml", level: LevelInfo},
		{name: "bad level", format: FormatPlain, level: "loud"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := New(&bytes.Buffer{}, tc.format, tc.level)

			assert.Error(err)
		})
	}
}

func Test_getLogFields_OddKeyvals(t *testing.T) {
	assert := assert.New(t)

	fields := getLogFields("a", 1, "b")

	assert.Equal(map[string]interface{}{"a": 1, "b": nil}, fields)
}
