package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFilterFieldsStripsImagePayloads(t *testing.T) {
	fields := []zap.Field{
		zap.String("photo_data_uri", "data:image/png;base64,AAAA"),
		zap.String("image_data", "AAAA"),
		zap.String("base64_body", "AAAA"),
		zap.String("file_name", "fridge.png"),
		zap.Int("size", 4),
	}

	got := filterFields(fields)
	keys := make([]string, 0, len(got))
	for _, f := range got {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"file_name", "size"}, keys)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestLogHelpersSafeBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		LogInfo("hello", zap.String("k", "v"))
		LogWarn("warn")
		LogDebug("debug")
		Sync()
	})
}
