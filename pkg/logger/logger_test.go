package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"abroad/pkg/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := New(config.LogConfig{Level: "debug", Format: "json", FilePath: path, MaxSize: 1})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("organization_id", 3).Info("hello")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.EqualValues(t, 3, entry["organization_id"])
}

func TestNewFallsBackToInfoLevel(t *testing.T) {
	l, err := New(config.LogConfig{Level: "verbose"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestWithOrganization(t *testing.T) {
	assert.Equal(t, "platform", WithOrganization(nil).Data["organization_id"])

	id := uint(9)
	assert.Equal(t, uint(9), WithOrganization(&id).Data["organization_id"])
}
