package pdpa

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInProfilesValidate(t *testing.T) {
	for _, name := range DefaultProfiles().Names() {
		p, err := DefaultProfiles().Get(name)
		require.NoError(t, err)
		assert.NoError(t, p.Validate(), name)
	}
	assert.Equal(t, []string{ProfileAggregate, ProfileDetailed}, DefaultProfiles().Names())
}

func TestProfileValidate(t *testing.T) {
	mutations := map[string]func(*Profile){
		"missing name":    func(p *Profile) { p.Name = "" },
		"bad match":       func(p *Profile) { p.Match = "fuzzy" },
		"no categories":   func(p *Profile) { p.Categories = nil },
		"unknown":         func(p *Profile) { p.Categories = append(p.Categories, "passport") },
		"duplicate":       func(p *Profile) { p.Categories = append(p.Categories, CategoryEmail) },
		"negative weight": func(p *Profile) { p.Weights[CategoryEmail] = -1 },
		"confidence":      func(p *Profile) { p.Confidence[CategoryEmail] = 1.5 },
		"max score zero":  func(p *Profile) { p.MaxScore = 0 },
		"max score high":  func(p *Profile) { p.MaxScore = 250 },
		"address length":  func(p *Profile) { p.AddressMinLength = -1 },
	}
	for name, mutate := range mutations {
		p := AggregateProfile()
		mutate(&p)
		assert.Error(t, p.Validate(), name)
	}
}

func TestProfilesGetReturnsCopy(t *testing.T) {
	ps := DefaultProfiles()
	p, err := ps.Get(ProfileAggregate)
	require.NoError(t, err)
	p.Weights[CategoryNationalID] = 99

	again, err := ps.Get(ProfileAggregate)
	require.NoError(t, err)
	assert.Equal(t, 10, again.Weights[CategoryNationalID])

	_, err = ps.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestLoadProfilesOverridesAndAdds(t *testing.T) {
	doc := `
profiles:
  - name: detailed
    categories: [national_id, email, phone, address]
    weights:
      address: 2
  - name: strict
    mode: exclusive
    match: whole
    categories: [national_id]
    weights:
      national_id: 25
`
	ps, err := LoadProfiles(strings.NewReader(doc))
	require.NoError(t, err)

	detailed, err := ps.Get(ProfileDetailed)
	require.NoError(t, err)
	assert.Equal(t, ModeIndependent, detailed.Mode)
	assert.Len(t, detailed.Categories, 4)
	assert.Equal(t, 2, detailed.Weights[CategoryAddress])
	assert.Equal(t, 5, detailed.Weights[CategoryEmail])

	strict, err := ps.Get("strict")
	require.NoError(t, err)
	assert.Equal(t, 100, strict.MaxScore)
	assert.Equal(t, 20, strict.AddressMinLength)

	e, err := NewEngine(strict)
	require.NoError(t, err)
	records := make([]Record, 5)
	for i := range records {
		records[i] = Record{"id": "1234567890121"}
	}
	assert.Equal(t, 100, e.Score(records).Score)

	_, err = ps.Get(ProfileAggregate)
	assert.NoError(t, err)
}

func TestLoadProfilesErrors(t *testing.T) {
	_, err := LoadProfiles(strings.NewReader("profiles:\n  - mode: exclusive\n"))
	assert.Error(t, err)

	_, err = LoadProfiles(strings.NewReader("profiles:\n  - name: bad\n    mode: exclusive\n"))
	assert.Error(t, err)

	ps, err := LoadProfiles(strings.NewReader(""))
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestLoadProfilesFile(t *testing.T) {
	ps, err := LoadProfilesFile("")
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - name: aggregate\n    max_score: 50\n"), 0o600))
	ps, err = LoadProfilesFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50, ps[ProfileAggregate].MaxScore)

	_, err = LoadProfilesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
