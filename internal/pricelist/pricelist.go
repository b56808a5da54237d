// Package pricelist parses and validates partner price-list documents.
// A document is parsed and checked in full before any catalog write, so a
// malformed list can never leave a shop's catalog half replaced.
package pricelist

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMalformed marks a document that failed structural validation.
var ErrMalformed = errors.New("malformed price list")

// Document is a full partner price list.
type Document struct {
	Shop       string     `yaml:"shop"`
	Categories []Category `yaml:"categories"`
	Goods      []Good     `yaml:"goods"`
}

// Category is a category entry in a price list.
type Category struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// Good is a single listing in a price list.
type Good struct {
	ID         int64    `yaml:"id"`
	Category   int64    `yaml:"category"`
	Name       string   `yaml:"name"`
	Model      string   `yaml:"model"`
	Price      int64    `yaml:"price"`
	PriceRRC   int64    `yaml:"price_rrc"`
	Quantity   int      `yaml:"quantity"`
	Parameters ParamMap `yaml:"parameters"`
}

// ParamMap maps parameter names to values. Price lists carry both string
// and numeric values, so scalars are normalized to strings while decoding.
type ParamMap map[string]string

func (m *ParamMap) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	out := make(ParamMap, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any:
			return fmt.Errorf("parameter %q: value must be a scalar", k)
		}
		out[k] = fmt.Sprint(v)
	}
	*m = out
	return nil
}

// Parse decodes a YAML price list and validates it fully.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document's structural rules: a shop name, uniquely
// identified categories, and goods that reference listed categories with
// sane prices and quantities.
func (d *Document) Validate() error {
	if d.Shop == "" {
		return fmt.Errorf("%w: missing shop name", ErrMalformed)
	}

	categories := make(map[int64]string, len(d.Categories))
	for i, c := range d.Categories {
		if c.Name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrMalformed, c.ID)
		}
		if _, dup := categories[c.ID]; dup {
			return fmt.Errorf("%w: duplicate category id %d (entry %d)", ErrMalformed, c.ID, i)
		}
		categories[c.ID] = c.Name
	}

	for i, g := range d.Goods {
		if g.Name == "" {
			return fmt.Errorf("%w: good %d has no name", ErrMalformed, g.ID)
		}
		if _, ok := categories[g.Category]; !ok {
			return fmt.Errorf("%w: good %q references unlisted category %d (entry %d)",
				ErrMalformed, g.Name, g.Category, i)
		}
		if g.Price <= 0 {
			return fmt.Errorf("%w: good %q has non-positive price %d", ErrMalformed, g.Name, g.Price)
		}
		if g.Quantity < 0 {
			return fmt.Errorf("%w: good %q has negative quantity %d", ErrMalformed, g.Name, g.Quantity)
		}
	}
	return nil
}
