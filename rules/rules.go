// Package rules loads rewrite rules from YAML files and compiles them into
// engine rules ready to run.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/treegrep/treegrep/engine"
	"github.com/treegrep/treegrep/syntax"
)

// Rule is one YAML rule entry before compilation.
type Rule struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
	Pattern  string `yaml:"pattern"`
	Rewrite  string `yaml:"rewrite"`
}

// Config is the top-level shape of a rule file.
type Config struct {
	Rules []Rule `yaml:"rules"`
}

// CompiledRule pairs a rule name with its ready-to-run rewrite rule.
type CompiledRule struct {
	Name     string
	Language syntax.Language
	Rewrite  *engine.RewriteRule
}

// Load reads and parses a YAML rule file.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	return cfg.Rules, nil
}

// Compile compiles every rule eagerly so a bad pattern or template fails at
// load time, not per file at application time.
func Compile(entries []Rule) ([]CompiledRule, error) {
	compiled := make([]CompiledRule, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "" {
			return nil, fmt.Errorf("rule with pattern %q has no name", entry.Pattern)
		}
		lang, err := syntax.FromString(entry.Language)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", entry.Name, err)
		}

		pat, err := engine.Compile(entry.Pattern, lang)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", entry.Name, err)
		}
		pat.ID = entry.Name

		rw, err := engine.NewRewriteRule(pat, entry.Rewrite)
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, CompiledRule{Name: entry.Name, Language: lang, Rewrite: rw})
	}
	return compiled, nil
}

// LoadAndCompile is the one-shot path from a rule file to runnable rules.
func LoadAndCompile(path string) ([]CompiledRule, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Compile(entries)
}
