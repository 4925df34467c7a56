// Package modality classifies container image paths into modalities.
package modality

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/holotome/htconv/internal/models"
)

// RuleConfig is one externally configurable classification rule: a regexp
// over the container path mapped to a modality kind. Rules are tried in
// order; the first match wins. An optional "ch" capture group names the
// fluorescence channel index.
type RuleConfig struct {
	Pattern string `yaml:"pattern"`
	Kind    string `yaml:"kind"`
}

// Rule is a compiled classification rule.
type Rule struct {
	re   *regexp.Regexp
	kind models.ModalityKind
}

// CompileRules compiles an ordered rule table.
func CompileRules(configs []RuleConfig) ([]Rule, error) {
	out := make([]Rule, 0, len(configs))
	for _, rc := range configs {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("modality: bad rule pattern %q: %w", rc.Pattern, err)
		}
		kind := models.ModalityKind(rc.Kind)
		switch kind {
		case models.KindHT3D, models.KindHT2MIP, models.KindHT2D,
			models.KindFL3D, models.KindFL2D, models.KindBF:
		default:
			return nil, fmt.Errorf("modality: bad rule kind %q", rc.Kind)
		}
		out = append(out, Rule{re: re, kind: kind})
	}
	return out, nil
}

// DefaultRules returns the built-in rule table matching the acquisition
// software's group naming.
func DefaultRules() []Rule {
	rules, err := CompileRules([]RuleConfig{
		{Pattern: `^(?:Data/)?3DFL(?:/CH(?P<ch>\d+))?$`, Kind: string(models.KindFL3D)},
		{Pattern: `^(?:Data/)?2DFL(?:/CH(?P<ch>\d+))?$`, Kind: string(models.KindFL2D)},
		{Pattern: `^(?:Data/)?3D$`, Kind: string(models.KindHT3D)},
		{Pattern: `^(?:Data/)?2DMIP$`, Kind: string(models.KindHT2MIP)},
		{Pattern: `^(?:Data/)?2D$`, Kind: string(models.KindHT2D)},
		{Pattern: `^(?:Data/)?BF$`, Kind: string(models.KindBF)},
	})
	if err != nil {
		panic(err) // built-in table must compile
	}
	return rules
}

// classify returns the kind and fluorescence channel index for a path, or
// ok=false when no rule matches. chIndex is -1 when the rule has no "ch"
// capture group or the group did not participate in the match.
func classify(rules []Rule, path string) (kind models.ModalityKind, chIndex int, ok bool) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		chIndex = -1
		for i, name := range r.re.SubexpNames() {
			if name == "ch" && i < len(m) && m[i] != "" {
				if n, err := strconv.Atoi(m[i]); err == nil {
					chIndex = n
				}
			}
		}
		return r.kind, chIndex, true
	}
	return "", -1, false
}
