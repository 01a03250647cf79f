// Per-site scraping rules expressed as data.
// One generic extractor walks every Definition; site differences live here only.

package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownSource     = errors.New("unknown source")
	ErrInvalidDefinition = errors.New("invalid source definition")
)

// Selectors is an ordered list of CSS selectors; the first one yielding a plausible
// match wins. In YAML it may be written as a single string or as a list.
type Selectors []string

func (s *Selectors) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if strings.TrimSpace(value.Value) == "" {
			*s = nil
			return nil
		}
		*s = Selectors{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("selectors: expected string or list, got node kind %d", value.Kind)
	}
}

// Definition describes where one board lives and how to read its newest notice.
type Definition struct {
	Key            string    `yaml:"key"`
	School         string    `yaml:"school"`
	Group          string    `yaml:"group,omitempty"`
	BaseURL        string    `yaml:"base_url"`
	TitleSelectors Selectors `yaml:"title_selector"`
	// DateSelectors pair with TitleSelectors by position when both lists have
	// the same length; otherwise they are alternatives tried in order.
	DateSelectors    Selectors `yaml:"date_selector"`
	ContentSelectors Selectors `yaml:"content_selector"`
	// MinTitleLength rejects decorative matches (icons, "new" badges) when a
	// selector hits several elements.
	MinTitleLength int      `yaml:"min_title_length,omitempty"`
	Link           LinkSpec `yaml:"link,omitempty"`

	// Resolver turns the raw href of the title element into a detail URL.
	// Built from Link by Prepare when not set in code.
	Resolver LinkResolver `yaml:"-"`
}

// Trigger is the name used for the on-demand crawl route.
func (d Definition) Trigger() string {
	if d.Group != "" {
		return d.Group
	}
	return d.Key
}

// Prepare validates the definition and compiles its link strategy.
func (d *Definition) Prepare() error {
	if d.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidDefinition)
	}
	if d.School == "" {
		return fmt.Errorf("%w: %s: school is required", ErrInvalidDefinition, d.Key)
	}
	u, err := url.Parse(d.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s: base_url must be an absolute http(s) URL", ErrInvalidDefinition, d.Key)
	}
	if len(d.TitleSelectors) == 0 {
		return fmt.Errorf("%w: %s: title_selector is required", ErrInvalidDefinition, d.Key)
	}
	if d.MinTitleLength < 1 {
		d.MinTitleLength = 1
	}

	if d.Resolver == nil {
		resolver, err := d.Link.Build()
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, d.Key, err)
		}
		d.Resolver = resolver
	}
	return nil
}

// Catalog is the ordered set of configured definitions.
type Catalog struct {
	defs []Definition
}

// NewCatalog prepares every definition and rejects duplicate keys.
func NewCatalog(defs []Definition) (*Catalog, error) {
	seen := make(map[string]bool, len(defs))
	prepared := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if err := d.Prepare(); err != nil {
			return nil, err
		}
		if seen[d.Key] {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidDefinition, d.Key)
		}
		seen[d.Key] = true
		prepared = append(prepared, d)
	}
	return &Catalog{defs: prepared}, nil
}

// All returns the definitions in configured order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup returns every definition whose key or group equals name.
func (c *Catalog) Lookup(name string) ([]Definition, error) {
	var out []Definition
	for _, d := range c.defs {
		if d.Key == name || d.Group == name {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return out, nil
}

// Triggers lists the distinct trigger names, in order of first appearance.
func (c *Catalog) Triggers() []string {
	var names []string
	seen := make(map[string]bool)
	for _, d := range c.defs {
		t := d.Trigger()
		if !seen[t] {
			seen[t] = true
			names = append(names, t)
		}
	}
	return names
}

// Schools lists the distinct school labels, in order of first appearance.
func (c *Catalog) Schools() []string {
	var schools []string
	seen := make(map[string]bool)
	for _, d := range c.defs {
		if !seen[d.School] {
			seen[d.School] = true
			schools = append(schools, d.School)
		}
	}
	return schools
}
