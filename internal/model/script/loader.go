package script

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/calm-companion/backend/internal/analysis/signal"
)

var ErrInvalidScript = errors.New("invalid response script")

// Load 读取 YAML 文件并覆盖默认话术，未出现的字段沿用 Seed 的内容。
func Load(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read response script: %w", err)
	}
	return Parse(raw)
}

// Parse overlays the YAML document on top of Seed and validates the result.
func Parse(raw []byte) (*Script, error) {
	var override Script
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("decode response script: %w", err)
	}

	merged := Seed()
	for category, variants := range override.Pools {
		merged.Pools[category] = variants
	}
	if strings.TrimSpace(override.Breathing) != "" {
		merged.Breathing = override.Breathing
	}
	if strings.TrimSpace(override.FirstPrinciples) != "" {
		merged.FirstPrinciples = override.FirstPrinciples
	}
	if strings.TrimSpace(override.Clarifying) != "" {
		merged.Clarifying = override.Clarifying
	}
	if len(override.Fallback) > 0 {
		merged.Fallback = override.Fallback
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate checks that every pooled category has unique, non-empty variants
// and that the fallback list is usable.
func (s *Script) Validate() error {
	for category, variants := range s.Pools {
		if !category.Pooled() {
			return fmt.Errorf("%w: category %q does not take a pool", ErrInvalidScript, category)
		}
		if err := validateLines(variants); err != nil {
			return fmt.Errorf("%w: pool %s: %v", ErrInvalidScript, category, err)
		}
	}
	for _, category := range signal.Categories() {
		if category.Pooled() && len(s.Pools[category]) == 0 {
			return fmt.Errorf("%w: pool %s is empty", ErrInvalidScript, category)
		}
	}
	if err := validateLines(s.Fallback); err != nil {
		return fmt.Errorf("%w: fallback: %v", ErrInvalidScript, err)
	}
	if strings.TrimSpace(s.Breathing) == "" || strings.TrimSpace(s.FirstPrinciples) == "" || strings.TrimSpace(s.Clarifying) == "" {
		return fmt.Errorf("%w: fixed replies must not be blank", ErrInvalidScript)
	}
	return nil
}

func validateLines(lines []string) error {
	if len(lines) == 0 {
		return errors.New("no entries")
	}
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			return errors.New("blank entry")
		}
		if _, dup := seen[line]; dup {
			return fmt.Errorf("duplicate entry %q", line)
		}
		seen[line] = struct{}{}
	}
	return nil
}
