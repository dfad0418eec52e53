package banner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	Print(&out, "v2.1.1")

	s := out.String()
	assert.Contains(t, s, "██████╗")
	assert.Contains(t, s, "v2.1.1")
	assert.Contains(t, s, "@DeadPackets")
}

func TestCenter(t *testing.T) {
	assert.Equal(t, "  ab", strings.TrimRight(center("ab", 6), " "))
	assert.Equal(t, "abcdef", center("abcdef", 4))
}
