package utils

import (
	"regexp"
	"strings"
)

var imageURLPattern = regexp.MustCompile(`https?://\S+\.(?:png|jpe?g|gif|webp)(?:\?\S*)?`)

// ContentPart is one segment of a discussion or reply body after splitting
// out inline image URLs.
type ContentPart struct {
	Text     string
	ImageURL string
}

// SplitContent splits free text into alternating text and inline image URL
// parts, in source order. Renderers show image parts as images and the rest
// as text.
func SplitContent(content string) []ContentPart {
	if content == "" {
		return nil
	}
	var parts []ContentPart
	last := 0
	for _, loc := range imageURLPattern.FindAllStringIndex(content, -1) {
		if text := strings.TrimSpace(content[last:loc[0]]); text != "" {
			parts = append(parts, ContentPart{Text: text})
		}
		parts = append(parts, ContentPart{ImageURL: content[loc[0]:loc[1]]})
		last = loc[1]
	}
	if text := strings.TrimSpace(content[last:]); text != "" {
		parts = append(parts, ContentPart{Text: text})
	}
	return parts
}

// TruncatePreview shortens content to max runes, appending an ellipsis when
// anything was cut. Used for feed previews and like-notification messages.
func TruncatePreview(content string, max int) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}
