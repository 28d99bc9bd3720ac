package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/amortization-engine/internal/config"
)

func TestNewWithOutput(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.LoggingConfig
		expectedLevel logrus.Level
		json          bool
	}{
		{name: "json debug", cfg: config.LoggingConfig{Level: "debug", Format: "json"}, expectedLevel: logrus.DebugLevel, json: true},
		{name: "text warn", cfg: config.LoggingConfig{Level: "warn", Format: "text"}, expectedLevel: logrus.WarnLevel},
		{name: "unknown level falls back to info", cfg: config.LoggingConfig{Level: "chatty", Format: "JSON"}, expectedLevel: logrus.InfoLevel, json: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithOutput(tt.cfg, &buf)

			assert.Equal(t, tt.expectedLevel, log.GetLevel())

			log.WithField("schedule_id", "abc").Warn("overdue")
			if tt.json {
				var line map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
				assert.Equal(t, "abc", line["schedule_id"])
				assert.Equal(t, "overdue", line["msg"])
			} else {
				assert.Contains(t, buf.String(), "schedule_id=abc")
			}
		})
	}
}
