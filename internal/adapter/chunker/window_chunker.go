package chunker

import "fmt"

// Defaults used when the configuration leaves chunking unset.
const (
	DefaultWindow  = 500
	DefaultOverlap = 50
)

// WindowChunker splits text into overlapping fixed-size windows of
// runes. Windows advance by window-overlap each step, so consecutive
// chunks share their boundary region.
type WindowChunker struct {
	window  int
	overlap int
}

// NewWindowChunker validates the window geometry. overlap >= window
// would never advance the scan, so it is rejected up front.
func NewWindowChunker(window, overlap int) (*WindowChunker, error) {
	if window <= 0 {
		return nil, fmt.Errorf("chunk window must be positive, got %d", window)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= window {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than window (%d)", overlap, window)
	}
	return &WindowChunker{window: window, overlap: overlap}, nil
}

// Chunk splits text into ordered overlapping windows. Empty text yields
// no chunks; text shorter than the window yields exactly one chunk.
// The scan stops once the next start offset would leave fewer than
// overlap runes beyond the previous window's end, so the tail of the
// text is covered by the final chunk rather than seeding another one.
func (c *WindowChunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.window
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end - c.overlap
		if start >= len(runes)-c.overlap {
			break
		}
	}
	return chunks
}

// Window returns the configured window size in runes.
func (c *WindowChunker) Window() int { return c.window }

// Overlap returns the configured overlap in runes.
func (c *WindowChunker) Overlap() int { return c.overlap }
