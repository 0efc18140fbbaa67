package completion

import (
	"errors"
	"math/rand/v2"
	"slices"
)

var ErrEmptyFallback = errors.New("fallback pool must not be empty")

// FallbackPool hands out generic supportive lines when the remote model
// cannot answer.
type FallbackPool struct {
	messages []string
	intn     func(n int) int
}

// NewFallbackPool copies messages. A nil intn uses the global random source.
func NewFallbackPool(messages []string, intn func(n int) int) (*FallbackPool, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyFallback
	}
	if intn == nil {
		intn = rand.IntN
	}
	return &FallbackPool{
		messages: append([]string(nil), messages...),
		intn:     intn,
	}, nil
}

// Pick returns a uniformly random message.
func (p *FallbackPool) Pick() string {
	return p.messages[p.intn(len(p.messages))]
}

// Contains reports whether text is one of the fallback messages.
func (p *FallbackPool) Contains(text string) bool {
	return slices.Contains(p.messages, text)
}

// Messages returns a copy of the pool.
func (p *FallbackPool) Messages() []string {
	return append([]string(nil), p.messages...)
}
