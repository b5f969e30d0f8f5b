package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{LogFormat: "json", AppEnv: "staging"}, &buf).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "staging", line["env"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	newLogger(nil, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
