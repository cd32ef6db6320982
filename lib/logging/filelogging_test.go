package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesToTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	logger := Logger(filepath.Join(dir, "rgbhub.log"), log.INFO)
	logger.Infof("refresh cycle completed assets:%v", 2)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, ".log", filepath.Ext(entries[0].Name()))
	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	assert.NoError(t, err)
	assert.Contains(t, string(content), "refresh cycle completed assets:2")
}
