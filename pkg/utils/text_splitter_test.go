package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("Paracetamol 500mg twice a day", 1500, 200)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "Paracetamol 500mg twice a day", chunks[0])
}

func TestSplitText_ChunksOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50) // 500 runes
	chunks := SplitText(text, 200, 50)

	assert.Greater(t, len(chunks), 1)
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-50:]
		assert.True(t, strings.HasPrefix(chunks[i+1], tail), "chunk %d should start with the previous tail", i+1)
	}
}

func TestSplitText_CoversWholeText(t *testing.T) {
	text := strings.Repeat("x", 4000)
	chunks := SplitText(text, 1500, 200)

	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(text, last))

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, len(text))
}

func TestSplitText_OverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("y", 100)
	chunks := SplitText(text, 10, 20)
	assert.NotEmpty(t, chunks)
	assert.Equal(t, 10, len(chunks[0]))
}
