package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitContent(t *testing.T) {
	parts := SplitContent("look at this https://cdn.example.com/shot.png wild ending")
	assert.Equal(t, []ContentPart{
		{Text: "look at this"},
		{ImageURL: "https://cdn.example.com/shot.png"},
		{Text: "wild ending"},
	}, parts)

	assert.Nil(t, SplitContent(""))

	parts = SplitContent("no images here")
	assert.Equal(t, []ContentPart{{Text: "no images here"}}, parts)

	parts = SplitContent("https://a.io/x.jpg?w=200")
	assert.Equal(t, []ContentPart{{ImageURL: "https://a.io/x.jpg?w=200"}}, parts)
}

func TestTruncatePreview(t *testing.T) {
	assert.Equal(t, "short", TruncatePreview("short", 50))

	long := "this reply is definitely longer than fifty characters, promise"
	got := TruncatePreview(long, 50)
	assert.Len(t, []rune(got), 53)
	assert.Equal(t, long[:50]+"...", got)

	// Rune-safe, not byte-safe.
	assert.Equal(t, "日本語の", TruncatePreview("日本語の", 10))
}
