// Package tokenizer counts model tokens for context budgeting.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.TokenCounter = (*Tiktoken)(nil)

// DefaultEncoding approximates Llama-family tokenisation closely enough for budgeting
const DefaultEncoding = "cl100k_base"

// Tiktoken counts tokens with a BPE encoding
type Tiktoken struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads encoding. Loading may fetch the BPE ranks on first use,
// so callers fall back to an estimate when it fails.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Count returns the number of tokens in text
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}
