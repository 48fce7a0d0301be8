package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug().Msg("hidden")
	log.Info().Str("file", "a.go").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "file=a.go")

	buf.Reset()
	log = New(&buf, true)
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
