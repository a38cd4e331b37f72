package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	t.Run("Should print the build version summary", func(t *testing.T) {
		cmd := newVersionCmd()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		require.NoError(t, cmd.Execute())
		out := buf.String()
		assert.Contains(t, out, "Version:\tdev")
		assert.Contains(t, out, "Commit:\tunknown")
		assert.Contains(t, out, "Built:\tunknown")
	})
}

func TestSafeValue(t *testing.T) {
	t.Run("Should fall back for blank values", func(t *testing.T) {
		assert.Equal(t, "unknown", safeValue("  ", "unknown"))
		assert.Equal(t, "abc123", safeValue("abc123", "unknown"))
	})
}
