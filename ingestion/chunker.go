package ingestion

import "strings"

// Separators tried in order when splitting. Paragraph breaks first, then
// lines, sentences, clauses, words.
var separators = []string{"\n\n", "\n", ".", ",", " "}

// Chunker splits text into overlapping chunks.
type Chunker struct {
	Size    int // maximum characters per chunk
	Overlap int // characters carried over between adjacent chunks
}

// NewChunker creates a chunker with sane defaults for zero values.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1024
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 8
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split breaks text into chunks of at most Size characters, preferring to cut
// at the coarsest separator available and overlapping adjacent chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	chunks := c.split(text, 0)
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

func (c *Chunker) split(text string, sepIdx int) []string {
	if len(text) <= c.Size {
		return []string{text}
	}
	if sepIdx >= len(separators) {
		// No separator left; hard-cut with overlap.
		return c.hardSplit(text)
	}

	sep := separators[sepIdx]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return c.split(text, sepIdx+1)
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, part := range parts {
		segment := part + sep
		if len(segment) > c.Size {
			flush()
			chunks = append(chunks, c.split(segment, sepIdx+1)...)
			continue
		}
		if current.Len()+len(segment) > c.Size {
			tail := overlapTail(current.String(), c.Overlap)
			flush()
			current.WriteString(tail)
		}
		current.WriteString(segment)
	}
	flush()

	return chunks
}

// hardSplit cuts on rune boundaries so multi-byte text is never torn apart.
func (c *Chunker) hardSplit(text string) []string {
	runes := []rune(text)
	var chunks []string
	step := c.Size - c.Overlap
	if step <= 0 {
		step = c.Size
	}
	for start := 0; start < len(runes); start += step {
		end := start + c.Size
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

func overlapTail(s string, overlap int) string {
	if overlap <= 0 || len(s) <= overlap {
		return ""
	}
	return s[len(s)-overlap:]
}
