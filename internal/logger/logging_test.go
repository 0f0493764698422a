package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewTo_PrefixAndLevel(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })
	log.SetLevel(log.InfoLevel)

	var buf bytes.Buffer
	l := NewTo(&buf, "watch")
	l.Debug("hidden")
	l.Info("refreshed")

	out := buf.String()
	assert.Contains(t, out, "watch")
	assert.Contains(t, out, "refreshed")
	assert.NotContains(t, out, "hidden")
}
