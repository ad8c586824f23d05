// Package fixture provides in-memory country and city candidate searchers
// loaded from YAML. Scoring and ordering follow the Postgres backend so the
// resolver behaves the same against either.
package fixture

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed places.yaml
var defaultPlaces []byte

// Country is one country row.
type Country struct {
	Iso2 string   `yaml:"iso2"`
	Iso3 string   `yaml:"iso3"`
	Name string   `yaml:"name"`
	Lat  *float64 `yaml:"lat,omitempty"`
	Lng  *float64 `yaml:"lng,omitempty"`
}

// City is one city row. CountryIso2 must name a country in the same dataset.
type City struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	CountryIso2 string   `yaml:"country_iso2"`
	Lat         *float64 `yaml:"lat,omitempty"`
	Lng         *float64 `yaml:"lng,omitempty"`
}

// Dataset is a validated set of countries and cities.
type Dataset struct {
	Countries []Country `yaml:"countries"`
	Cities    []City    `yaml:"cities"`

	byIso2 map[string]Country
}

// Load reads and validates a YAML dataset from path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: read %s", path)
	}
	return Parse(data)
}

// Default returns the embedded sample dataset.
func Default() (*Dataset, error) {
	return Parse(defaultPlaces)
}

// Parse decodes and validates a YAML dataset.
func Parse(data []byte) (*Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, eris.Wrap(err, "fixture: parse dataset")
	}

	d.byIso2 = make(map[string]Country, len(d.Countries))
	for i, c := range d.Countries {
		iso2 := strings.ToUpper(strings.TrimSpace(c.Iso2))
		if len(iso2) != 2 {
			return nil, eris.Errorf("fixture: country %d (%q) has invalid iso2 %q", i, c.Name, c.Iso2)
		}
		if strings.TrimSpace(c.Name) == "" {
			return nil, eris.Errorf("fixture: country %s has no name", iso2)
		}
		if _, dup := d.byIso2[iso2]; dup {
			return nil, eris.Errorf("fixture: duplicate country %s", iso2)
		}
		c.Iso2 = iso2
		c.Iso3 = strings.ToUpper(strings.TrimSpace(c.Iso3))
		d.Countries[i] = c
		d.byIso2[iso2] = c
	}

	seen := make(map[string]struct{}, len(d.Cities))
	for i, c := range d.Cities {
		if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
			return nil, eris.Errorf("fixture: city %d is missing id or name", i)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, eris.Errorf("fixture: duplicate city id %s", c.ID)
		}
		seen[c.ID] = struct{}{}

		c.CountryIso2 = strings.ToUpper(strings.TrimSpace(c.CountryIso2))
		if _, ok := d.byIso2[c.CountryIso2]; !ok {
			return nil, eris.Errorf("fixture: city %s (%s) references unknown country %q", c.ID, c.Name, c.CountryIso2)
		}
		d.Cities[i] = c
	}

	return &d, nil
}

// Country returns the country with the given ISO2 code.
func (d *Dataset) Country(iso2 string) (Country, bool) {
	c, ok := d.byIso2[strings.ToUpper(strings.TrimSpace(iso2))]
	return c, ok
}
