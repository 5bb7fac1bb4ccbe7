package pdpa

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Mode selects how many categories a single value may be assigned to.
type Mode string

const (
	// ModeExclusive assigns at most one category per value, first match in
	// precedence order wins.
	ModeExclusive Mode = "exclusive"
	// ModeIndependent tests every category against every value.
	ModeIndependent Mode = "independent"
)

// MatchStyle selects whole-value predicates or substring search patterns.
type MatchStyle string

const (
	MatchWholeValue MatchStyle = "whole"
	MatchSubstring  MatchStyle = "substring"
)

// Built-in profile names.
const (
	ProfileAggregate = "aggregate"
	ProfileDetailed  = "detailed"
)

const (
	defaultMaxScore         = 100
	defaultAddressMinLength = 20
	defaultConfidence       = 1.0
)

// ErrUnknownProfile is returned when a profile name is not registered.
var ErrUnknownProfile = errors.New("unknown scan profile")

// Profile is a named configuration of the classification engine.
type Profile struct {
	Name             string               `yaml:"name"`
	Mode             Mode                 `yaml:"mode"`
	Match            MatchStyle           `yaml:"match"`
	Categories       []Category           `yaml:"categories"`
	Weights          map[Category]int     `yaml:"weights"`
	DefaultWeight    int                  `yaml:"default_weight"`
	Confidence       map[Category]float64 `yaml:"confidence"`
	MaxScore         int                  `yaml:"max_score"`
	AddressMinLength int                  `yaml:"address_min_length"`
}

// AggregateProfile is the exclusive-precedence scorer: national IDs weigh 10
// points, every other category 5, and address is tested last on long values.
func AggregateProfile() Profile {
	return Profile{
		Name:       ProfileAggregate,
		Mode:       ModeExclusive,
		Match:      MatchWholeValue,
		Categories: []Category{CategoryNationalID, CategoryEmail, CategoryPhone, CategoryAddress},
		Weights: map[Category]int{
			CategoryNationalID: 10,
			CategoryEmail:      5,
			CategoryPhone:      5,
			CategoryAddress:    5,
		},
		DefaultWeight: 5,
		Confidence: map[Category]float64{
			CategoryNationalID: 1.0,
			CategoryEmail:      0.9,
			CategoryPhone:      0.8,
			CategoryAddress:    0.6,
		},
		MaxScore:         defaultMaxScore,
		AddressMinLength: defaultAddressMinLength,
	}
}

// DetailedProfile is the independent per-match detector. Every match weighs
// 5 points with no national ID premium, and address is not scanned.
func DetailedProfile() Profile {
	return Profile{
		Name:       ProfileDetailed,
		Mode:       ModeIndependent,
		Match:      MatchSubstring,
		Categories: []Category{CategoryNationalID, CategoryEmail, CategoryPhone},
		Weights: map[Category]int{
			CategoryNationalID: 5,
			CategoryEmail:      5,
			CategoryPhone:      5,
		},
		DefaultWeight: 5,
		Confidence: map[Category]float64{
			CategoryNationalID: 1.0,
			CategoryEmail:      0.9,
			CategoryPhone:      0.8,
		},
		MaxScore:         defaultMaxScore,
		AddressMinLength: defaultAddressMinLength,
	}
}

// Validate checks the profile for values the engine cannot run with.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.New("profile name is required")
	}
	switch p.Mode {
	case ModeExclusive, ModeIndependent:
	default:
		return fmt.Errorf("profile %s: invalid mode %q", p.Name, p.Mode)
	}
	switch p.Match {
	case MatchWholeValue, MatchSubstring:
	default:
		return fmt.Errorf("profile %s: invalid match style %q", p.Name, p.Match)
	}
	if len(p.Categories) == 0 {
		return fmt.Errorf("profile %s: at least one category is required", p.Name)
	}
	seen := make(map[Category]struct{}, len(p.Categories))
	for _, c := range p.Categories {
		if !c.Known() {
			return fmt.Errorf("profile %s: unknown category %q", p.Name, c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("profile %s: duplicate category %q", p.Name, c)
		}
		seen[c] = struct{}{}
	}
	for c, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("profile %s: negative weight for %s", p.Name, c)
		}
	}
	if p.DefaultWeight < 0 {
		return fmt.Errorf("profile %s: negative default weight", p.Name)
	}
	for c, conf := range p.Confidence {
		if conf < 0 || conf > 1 {
			return fmt.Errorf("profile %s: confidence for %s out of range", p.Name, c)
		}
	}
	if p.MaxScore <= 0 || p.MaxScore > defaultMaxScore {
		return fmt.Errorf("profile %s: max score must be within 1..%d", p.Name, defaultMaxScore)
	}
	if p.AddressMinLength < 0 {
		return fmt.Errorf("profile %s: address min length must not be negative", p.Name)
	}
	return nil
}

func (p Profile) weight(c Category) int {
	if w, ok := p.Weights[c]; ok {
		return w
	}
	return p.DefaultWeight
}

func (p Profile) confidence(c Category) float64 {
	if conf, ok := p.Confidence[c]; ok {
		return conf
	}
	return defaultConfidence
}

func (p Profile) clone() Profile {
	out := p
	out.Categories = append([]Category(nil), p.Categories...)
	out.Weights = make(map[Category]int, len(p.Weights))
	for k, v := range p.Weights {
		out.Weights[k] = v
	}
	out.Confidence = make(map[Category]float64, len(p.Confidence))
	for k, v := range p.Confidence {
		out.Confidence[k] = v
	}
	return out
}

// Profiles is a registry of named profiles.
type Profiles map[string]Profile

// DefaultProfiles returns the built-in aggregate and detailed profiles.
func DefaultProfiles() Profiles {
	return Profiles{
		ProfileAggregate: AggregateProfile(),
		ProfileDetailed:  DetailedProfile(),
	}
}

// Get returns a copy of the named profile.
func (ps Profiles) Get(name string) (Profile, error) {
	p, ok := ps[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p.clone(), nil
}

// Names lists registered profile names in sorted order.
func (ps Profiles) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type profilesDocument struct {
	Profiles []yaml.Node `yaml:"profiles"`
}

// LoadProfiles reads YAML profile definitions on top of the built-in ones.
// An entry whose name matches a built-in profile only overrides the keys it sets.
func LoadProfiles(r io.Reader) (Profiles, error) {
	var doc profilesDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	profiles := DefaultProfiles()
	for i := range doc.Profiles {
		var head struct {
			Name string `yaml:"name"`
		}
		if err := doc.Profiles[i].Decode(&head); err != nil {
			return nil, fmt.Errorf("decode profile %d: %w", i, err)
		}
		if head.Name == "" {
			return nil, fmt.Errorf("profile %d: name is required", i)
		}

		base, ok := profiles[head.Name]
		if ok {
			base = base.clone()
		} else {
			base = Profile{MaxScore: defaultMaxScore, AddressMinLength: defaultAddressMinLength}
		}
		if err := doc.Profiles[i].Decode(&base); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", head.Name, err)
		}
		if err := base.Validate(); err != nil {
			return nil, err
		}
		profiles[head.Name] = base
	}
	return profiles, nil
}

// LoadProfilesFile is LoadProfiles over a file. An empty path yields the defaults.
func LoadProfilesFile(path string) (Profiles, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer f.Close()
	return LoadProfiles(f)
}
