package responder

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var ErrInvalidPool = errors.New("invalid response pool")

// Pool serves canned variants without repeating one until every variant has
// been used. Once the pool is exhausted the used set is cleared and the cycle
// starts over.
type Pool struct {
	variants []string
	used     map[string]struct{}
	intn     func(n int) int
}

// NewPool validates variants and builds a pool. A nil intn uses the global
// math/rand/v2 source.
func NewPool(variants []string, intn func(n int) int) (*Pool, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: no variants", ErrInvalidPool)
	}
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: blank variant", ErrInvalidPool)
		}
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("%w: duplicate variant %q", ErrInvalidPool, v)
		}
		seen[v] = struct{}{}
	}
	if intn == nil {
		intn = rand.IntN
	}
	return &Pool{
		variants: append([]string(nil), variants...),
		used:     make(map[string]struct{}, len(variants)),
		intn:     intn,
	}, nil
}

// Pick returns a uniformly random variant that has not been served in the
// current cycle.
func (p *Pool) Pick() string {
	available := p.available()
	if len(available) == 0 {
		p.Reset()
		available = p.variants
	}

	selection := available[p.intn(len(available))]
	p.used[selection] = struct{}{}
	return selection
}

// Reset makes every variant eligible again.
func (p *Pool) Reset() {
	clear(p.used)
}

// Len returns the number of variants.
func (p *Pool) Len() int {
	return len(p.variants)
}

// Remaining returns how many variants can still be served before a reset.
func (p *Pool) Remaining() int {
	return len(p.variants) - len(p.used)
}

// Used lists the variants served in the current cycle, in pool order.
func (p *Pool) Used() []string {
	out := make([]string, 0, len(p.used))
	for _, v := range p.variants {
		if _, ok := p.used[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (p *Pool) available() []string {
	out := make([]string, 0, len(p.variants))
	for _, v := range p.variants {
		if _, ok := p.used[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
