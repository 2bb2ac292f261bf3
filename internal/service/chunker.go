package service

import "strings"

// Chunker splits document text into overlapping chunks sized for embedding.
// Splitting is line-based: a chunk never cuts a line in half unless a single
// line alone exceeds the chunk size.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. size is the target chunk length in runes,
// overlap the number of trailing runes carried into the next chunk.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks the text. Blank input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		chunk := strings.TrimSpace(strings.Join(current, "\n"))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Carry trailing lines into the next chunk as overlap
		var kept []string
		keptLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			lineLen := len([]rune(current[i])) + 1
			if keptLen+lineLen > c.overlap {
				break
			}
			kept = append([]string{current[i]}, kept...)
			keptLen += lineLen
		}
		current = kept
		currentLen = keptLen
	}

	for _, line := range lines {
		lineLen := len([]rune(line)) + 1

		if lineLen > c.size {
			if len(current) > 0 {
				flush()
			}
			chunks = append(chunks, c.splitLongLine(line)...)
			current = nil
			currentLen = 0
			continue
		}

		if currentLen+lineLen > c.size && len(current) > 0 {
			flush()
		}

		current = append(current, line)
		currentLen += lineLen
	}

	if len(current) > 0 {
		chunk := strings.TrimSpace(strings.Join(current, "\n"))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

func (c *Chunker) splitLongLine(line string) []string {
	runes := []rune(line)

	var chunks []string
	step := c.size - c.overlap
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}
