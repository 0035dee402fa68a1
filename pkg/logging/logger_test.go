/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for logger configuration validation and file output setup.
*/

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	valid := &LoggerConfig{Level: LogLevelDebug, Format: LogFormatJSON}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&LoggerConfig{Level: "loud", Format: LogFormatText}).Validate())
	assert.Error(t, (&LoggerConfig{Level: LogLevelInfo, Format: "xml"}).Validate())
}

func TestNewLoggerDefaults(t *testing.T) {
	l, err := NewLogger(nil)
	require.NoError(t, err)
	defer l.Close()
	assert.NotNil(t, l.Logrus())
}

func TestNewLoggerFileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := NewLogger(&LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatJSON,
		OutputDir: dir,
	})
	require.NoError(t, err)

	l.WithReduction("prune", 0.25).Info("reduction started")
	l.WithSource("traffic.pcap").Info("source opened")
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reduction":"prune"`)
	assert.Contains(t, string(data), `"source":"traffic.pcap"`)
}
