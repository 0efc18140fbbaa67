package responder

import (
	"context"
	"iter"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// PacerConfig bounds the simulated latency of replies.
type PacerConfig struct {
	PerRune  time.Duration
	ThinkMin time.Duration
	ThinkMax time.Duration
	TokenMin time.Duration
	TokenMax time.Duration
}

// DefaultPacerConfig returns the cadence used by the web UI.
func DefaultPacerConfig() PacerConfig {
	return PacerConfig{
		PerRune:  12 * time.Millisecond,
		ThinkMin: 600 * time.Millisecond,
		ThinkMax: 1500 * time.Millisecond,
		TokenMin: 30 * time.Millisecond,
		TokenMax: 80 * time.Millisecond,
	}
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// PacerOption customises a Pacer.
type PacerOption func(*Pacer)

// WithSleep replaces the timer based wait, mostly for tests.
func WithSleep(fn SleepFunc) PacerOption {
	return func(p *Pacer) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// WithJitterSource replaces the random source of per-token delays.
func WithJitterSource(r *rand.Rand) PacerOption {
	return func(p *Pacer) {
		if r != nil {
			p.int64n = r.Int64N
		}
	}
}

// Pacer delays delivery of already computed replies so they read like
// generated text.
type Pacer struct {
	cfg    PacerConfig
	sleep  SleepFunc
	int64n func(n int64) int64
}

// NewPacer creates a pacer. Invalid bounds are normalised so that min <= max.
func NewPacer(cfg PacerConfig, opts ...PacerOption) *Pacer {
	defaults := DefaultPacerConfig()
	if cfg.PerRune < 0 {
		cfg.PerRune = defaults.PerRune
	}
	if cfg.ThinkMax < cfg.ThinkMin {
		cfg.ThinkMax = cfg.ThinkMin
	}
	if cfg.TokenMax < cfg.TokenMin {
		cfg.TokenMax = cfg.TokenMin
	}

	p := &Pacer{
		cfg:    cfg,
		sleep:  sleepContext,
		int64n: rand.Int64N,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ThinkingDelay scales with the input length, clamped to the think bounds.
func (p *Pacer) ThinkingDelay(input string) time.Duration {
	d := time.Duration(utf8.RuneCountInString(input)) * p.cfg.PerRune
	if d < p.cfg.ThinkMin {
		return p.cfg.ThinkMin
	}
	if d > p.cfg.ThinkMax {
		return p.cfg.ThinkMax
	}
	return d
}

// Think waits the thinking delay for input.
func (p *Pacer) Think(ctx context.Context, input string) error {
	return p.sleep(ctx, p.ThinkingDelay(input))
}

// TokenDelay returns a random delay in [TokenMin, TokenMax).
func (p *Pacer) TokenDelay() time.Duration {
	span := int64(p.cfg.TokenMax - p.cfg.TokenMin)
	if span <= 0 {
		return p.cfg.TokenMin
	}
	return p.cfg.TokenMin + time.Duration(p.int64n(span))
}

// Tokens yields text one whitespace-delimited token at a time, waiting a
// token delay before each one. Tokens keep their trailing whitespace so the
// concatenation equals text. Nothing is produced ahead of the consumer: when
// the loop breaks or ctx is cancelled, production stops after the current
// token. Cancellation is reported once as the error value.
func (p *Pacer) Tokens(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rest := text
		for rest != "" {
			if err := p.sleep(ctx, p.TokenDelay()); err != nil {
				yield("", err)
				return
			}

			var token string
			token, rest = nextToken(rest)
			if !yield(token, nil) {
				return
			}
		}
	}
}

// SplitTokens returns every token Tokens would produce for text.
func SplitTokens(text string) []string {
	var tokens []string
	for rest := text; rest != ""; {
		var token string
		token, rest = nextToken(rest)
		tokens = append(tokens, token)
	}
	return tokens
}

func nextToken(s string) (token, rest string) {
	start := strings.IndexFunc(s, notSpace)
	if start < 0 {
		return s, ""
	}
	end := strings.IndexFunc(s[start:], unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	end += start
	next := strings.IndexFunc(s[end:], notSpace)
	if next < 0 {
		return s, ""
	}
	end += next
	return s[:end], s[end:]
}

func notSpace(r rune) bool {
	return !unicode.IsSpace(r)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
