// Package tokenizer adapts tiktoken encodings to the curator's Tokenizer
// interface.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is a reasonable default for token-count bookkeeping when
// the training run's own tokenizer is not available in-process.
const DefaultEncoding = "cl100k_base"

// Tiktoken counts tokens with a local BPE encoding. Only encoding length
// is ever consumed downstream.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// New loads the named tiktoken encoding (e.g. "cl100k_base", "o200k_base").
func New(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Encode returns token ids for text. Special tokens are treated as plain
// text; the curator only counts tokens, it never decodes them.
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}
