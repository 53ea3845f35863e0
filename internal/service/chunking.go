package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

// ChunkConfig controls word-window chunking of extracted document text.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides the default window of 200 words with 50 words of overlap.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    200,
		Overlap: 50,
	}
}

// Validate checks size > overlap >= 0.
func (c ChunkConfig) Validate() error {
	if c.Overlap < 0 || c.Size <= c.Overlap {
		return domain.NewDomainErrorWithCause(domain.ErrCodeConfiguration,
			fmt.Sprintf("size=%d overlap=%d", c.Size, c.Overlap), domain.ErrInvalidChunkParams)
	}
	return nil
}

// Chunk splits text on whitespace and returns windows of cfg.Size words, each starting
// cfg.Size-cfg.Overlap words after the previous one. Windows stop once one reaches the
// last word, so the final window may be shorter than cfg.Size and no window is a strict
// suffix of its predecessor. This differs from stepping until the start passes the end,
// which for 500 words with size 200 and overlap 50 emits a fourth window (words 450-499)
// already contained in the third.
func Chunk(text string, cfg ChunkConfig) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []domain.Chunk{}, nil
	}

	step := cfg.Size - cfg.Overlap
	chunks := make([]domain.Chunk, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := min(start+cfg.Size, len(words))
		chunks = append(chunks, domain.Chunk{
			ID:    strconv.Itoa(len(chunks)),
			Index: len(chunks),
			Text:  strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
	}

	return chunks, nil
}
