package style

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// AreaRule decides which values of one tag key make a closed way an area
type AreaRule struct {
	// Include lists the only values that count as an area.
	// If empty, any value counts (subject to Exclude)
	Include []string `yaml:"include,omitempty"`
	// Exclude lists values that never count as an area
	Exclude []string `yaml:"exclude,omitempty"`
}

// AreaRules is the area-tag allowlist: tag key -> rule
type AreaRules struct {
	Keys map[string]AreaRule `yaml:"area_tags"`
	// ExtendDefaults merges the file's keys over the built-in list instead of replacing it
	ExtendDefaults bool `yaml:"extend_defaults,omitempty"`
}

// LoadAreaRules loads area rules from a YAML file
func LoadAreaRules(path string) (*AreaRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}
	return ParseAreaRules(data)
}

// ParseAreaRules parses area rules from YAML
func ParseAreaRules(data []byte) (*AreaRules, error) {
	var rules AreaRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse style YAML: %w", err)
	}
	if len(rules.Keys) == 0 && !rules.ExtendDefaults {
		return nil, fmt.Errorf("style file defines no area_tags")
	}
	for key, rule := range rules.Keys {
		if len(rule.Include) > 0 && len(rule.Exclude) > 0 {
			return nil, fmt.Errorf("area tag %q: include and exclude are mutually exclusive", key)
		}
	}

	if rules.ExtendDefaults {
		merged := DefaultAreaRules()
		for key, rule := range rules.Keys {
			merged.Keys[key] = rule
		}
		return merged, nil
	}
	return &rules, nil
}

// KeySet returns rules treating any value of each key as an area
func KeySet(keys ...string) *AreaRules {
	rules := &AreaRules{Keys: make(map[string]AreaRule, len(keys))}
	for _, k := range keys {
		rules.Keys[k] = AreaRule{}
	}
	return rules
}

// DefaultAreaRules returns the built-in area-tag allowlist
func DefaultAreaRules() *AreaRules {
	return &AreaRules{Keys: map[string]AreaRule{
		"building":         {},
		"building:part":    {},
		"landuse":          {},
		"amenity":          {},
		"leisure":          {},
		"shop":             {},
		"tourism":          {},
		"historic":         {},
		"office":           {},
		"military":         {},
		"ruins":            {},
		"craft":            {},
		"golf":             {},
		"indoor":           {},
		"place":            {},
		"boundary":         {},
		"public_transport": {},
		"area:highway":     {},
		"natural": {
			Exclude: []string{"coastline", "cliff", "ridge", "arete", "tree_row"},
		},
		"man_made": {
			Exclude: []string{"cutline", "embankment", "pipeline"},
		},
		"aeroway": {
			Exclude: []string{"taxiway"},
		},
		"highway": {
			Include: []string{"services", "rest_area", "escape", "elevator"},
		},
		"waterway": {
			Include: []string{"riverbank", "dock", "boatyard", "dam"},
		},
		"barrier": {
			Include: []string{"city_wall", "ditch", "hedge", "retaining_wall", "wall", "spikes"},
		},
		"railway": {
			Include: []string{"station", "turntable", "roundhouse", "platform"},
		},
		"power": {
			Include: []string{"plant", "substation", "generator", "transformer"},
		},
	}}
}

// Match reports whether any tag makes a closed way an area.
// The "area" key itself is not handled here and a value of "no" never matches.
func (r *AreaRules) Match(tags map[string]string) bool {
	if r == nil {
		return false
	}
	for key, value := range tags {
		rule, ok := r.Keys[key]
		if !ok || value == "no" {
			continue
		}
		if len(rule.Include) > 0 {
			if slices.Contains(rule.Include, value) {
				return true
			}
			continue
		}
		if !slices.Contains(rule.Exclude, value) {
			return true
		}
	}
	return false
}
