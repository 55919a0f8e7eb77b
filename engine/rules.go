package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/tgrit/pattern"
)

var (
	ErrNoRules       = errors.New("no rules defined")
	ErrDuplicateRule = errors.New("duplicate rule name")
	ErrUnnamedRule   = errors.New("rule has no name")
)

// Rule is one search (and optionally rewrite) rule as written in a rule file.
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	// Replacement is nil for search-only rules. An empty replacement
	// deletes the match.
	Replacement *string `yaml:"replacement,omitempty"`
	// Kind is "rewrite" (default) or "insert"; insert keeps the match and
	// adds the replacement after it.
	Kind string `yaml:"kind,omitempty"`
	// Sample, when positive, keeps at most that many matches per file,
	// chosen at random with a fixed seed.
	Sample int `yaml:"sample,omitempty"`
}

// RulesConfig is the layout of a rule file.
type RulesConfig struct {
	Rules []Rule `yaml:"rules"`
}

// CompiledRule is a Rule with its pattern and template parsed.
type CompiledRule struct {
	Rule
	pattern     []Node
	replacement []Node
	kind        pattern.EffectKind
	// distinct hole names of the pattern, in order of first use
	holes []string
	// distinct hole names of the replacement
	params []string
}

// Nodes returns the parsed pattern.
func (r *CompiledRule) Nodes() []Node { return r.pattern }

// Rewrites reports whether the rule produces effects.
func (r *CompiledRule) Rewrites() bool { return r.Rule.Replacement != nil }

// CompileRule parses the pattern and replacement of rule.
func CompileRule(rule Rule) (*CompiledRule, error) {
	if rule.Name == "" {
		return nil, ErrUnnamedRule
	}
	nodes, err := Compile(rule.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %q: pattern: %w", rule.Name, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("rule %q: %w: empty pattern", rule.Name, ErrInvalidPattern)
	}

	compiled := &CompiledRule{
		Rule:    rule,
		pattern: nodes,
		holes:   holeNames(nodes),
	}

	switch rule.Kind {
	case "", "rewrite":
		compiled.kind = pattern.EffectRewrite
	case "insert":
		compiled.kind = pattern.EffectInsert
	default:
		return nil, fmt.Errorf("rule %q: unknown kind %q", rule.Name, rule.Kind)
	}

	if rule.Replacement != nil {
		template, err := Compile(*rule.Replacement)
		if err != nil {
			return nil, fmt.Errorf("rule %q: replacement: %w", rule.Name, err)
		}
		compiled.replacement = template
		compiled.params = holeNames(template)
	}
	return compiled, nil
}

// CompileRules compiles every rule, rejecting duplicate names.
func CompileRules(rules []Rule) ([]*CompiledRule, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	seen := make(map[string]struct{}, len(rules))
	compiled := make([]*CompiledRule, 0, len(rules))
	for _, rule := range rules {
		if _, dup := seen[rule.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, rule.Name)
		}
		seen[rule.Name] = struct{}{}
		c, err := CompileRule(rule)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

// ParseRules decodes a YAML rule file.
func ParseRules(data []byte) ([]Rule, error) {
	var cfg RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding rules: %w", err)
	}
	return cfg.Rules, nil
}

// LoadRules reads and decodes a YAML rule file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// RulesHash fingerprints a rule set, for invalidating cached results.
func RulesHash(rules []Rule) (string, error) {
	data, err := yaml.Marshal(RulesConfig{Rules: rules})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
