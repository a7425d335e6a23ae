package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/owayo/astro-sight/internal/extract"
)

// loadRules resolves lint rules from --rules (a JSON array literal) or
// --rules-dir (every *.json file underneath, each holding either one
// rule object or an array of them). Exactly one of the two is
// expected; --rules-dir wins if both are set.
func loadRules(rulesJSON, rulesDir string) ([]extract.Rule, error) {
	if rulesDir != "" {
		var rules []extract.Rule
		entries, err := os.ReadDir(rulesDir)
		if err != nil {
			return nil, fmt.Errorf("read --rules-dir %q: %w", rulesDir, err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(rulesDir, e.Name()))
			if err != nil {
				return nil, err
			}
			parsed, err := parseRules(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Name(), err)
			}
			rules = append(rules, parsed...)
		}
		return rules, nil
	}
	if rulesJSON != "" {
		return parseRules([]byte(rulesJSON))
	}
	return nil, nil
}

func parseRules(data []byte) ([]extract.Rule, error) {
	var list []extract.Rule
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var one extract.Rule
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []extract.Rule{one}, nil
}
