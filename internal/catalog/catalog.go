package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"docflow/internal/core"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Catalog is a read-only set of products loaded once at startup. A nil
// *Catalog is an empty catalog.
type Catalog struct {
	products []core.Product
	byID     map[string]core.Product
}

// file is the on-disk layout of a catalog file. Prices are kept as text so
// that 450.10 is read exactly.
type file struct {
	Products []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		BasePrice string `yaml:"base_price"`
		TaxRate   string `yaml:"tax_rate"`
		Options   []struct {
			Name    string `yaml:"name"`
			Price   string `yaml:"price"`
			TaxRate string `yaml:"tax_rate"`
		} `yaml:"options"`
	} `yaml:"products"`
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog. Product IDs must be unique and prices must be
// non-negative decimals. An option without a tax rate uses the product's.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]core.Product, len(f.Products))}
	for i, p := range f.Products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("product %d: id is required", i+1)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("product %s: duplicate id", id)
		}

		product := core.Product{ID: id, Name: strings.TrimSpace(p.Name)}
		if product.Name == "" {
			product.Name = id
		}
		var err error
		if product.BasePrice, err = amount(p.BasePrice, "0"); err != nil {
			return nil, fmt.Errorf("product %s: base_price: %w", id, err)
		}
		if product.TaxRate, err = amount(p.TaxRate, "0"); err != nil {
			return nil, fmt.Errorf("product %s: tax_rate: %w", id, err)
		}

		for _, o := range p.Options {
			opt := core.ProductOption{Name: strings.TrimSpace(o.Name)}
			if opt.Name == "" {
				return nil, fmt.Errorf("product %s: option name is required", id)
			}
			if opt.Price, err = amount(o.Price, "0"); err != nil {
				return nil, fmt.Errorf("product %s option %s: price: %w", id, opt.Name, err)
			}
			if strings.TrimSpace(o.TaxRate) != "" {
				rate, err := amount(o.TaxRate, "0")
				if err != nil {
					return nil, fmt.Errorf("product %s option %s: tax_rate: %w", id, opt.Name, err)
				}
				opt.TaxRate = decimal.NewNullDecimal(rate)
			}
			product.Options = append(product.Options, opt)
		}

		c.byID[id] = product
		c.products = append(c.products, product)
	}

	sort.Slice(c.products, func(i, j int) bool { return c.products[i].ID < c.products[j].ID })
	return c, nil
}

// Get returns the product with the given ID.
func (c *Catalog) Get(id string) (core.Product, bool) {
	if c == nil {
		return core.Product{}, false
	}
	p, ok := c.byID[strings.TrimSpace(id)]
	return p, ok
}

// List returns every product ordered by ID.
func (c *Catalog) List() []core.Product {
	if c == nil {
		return []core.Product{}
	}
	out := make([]core.Product, len(c.products))
	copy(out, c.products)
	return out
}

func amount(raw, def string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		raw = def
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", raw)
	}
	return d, nil
}
