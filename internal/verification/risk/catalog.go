package risk

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	pstrings "pastmatters/pkg/platform/strings"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog maps platform names to the matrimonial and dating categories.
type Catalog struct {
	matrimonial map[string]struct{}
	dating      map[string]struct{}
}

type catalogFile struct {
	Matrimonial []string `yaml:"matrimonial"`
	Dating      []string `yaml:"dating"`
}

// NewCatalog builds a catalog from explicit platform lists.
func NewCatalog(matrimonial, dating []string) *Catalog {
	return &Catalog{
		matrimonial: pstrings.FoldSet(matrimonial),
		dating:      pstrings.FoldSet(dating),
	}
}

// DefaultCatalog returns the built-in platform lists.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("risk: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog from path. Categories missing from the
// file keep their built-in lists.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read platform catalog: %w", err)
	}
	return ParseCatalog(data, DefaultCatalog())
}

// ParseCatalog decodes YAML, falling back to base for absent categories.
func ParseCatalog(data []byte, base *Catalog) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse platform catalog: %w", err)
	}
	c := NewCatalog(f.Matrimonial, f.Dating)
	if base != nil {
		if f.Matrimonial == nil {
			c.matrimonial = base.matrimonial
		}
		if f.Dating == nil {
			c.dating = base.dating
		}
	}
	if len(c.matrimonial) == 0 && len(c.dating) == 0 {
		return nil, fmt.Errorf("parse platform catalog: no platforms listed")
	}
	return c, nil
}

// IsMatrimonial reports whether platform is a matrimonial site.
func (c *Catalog) IsMatrimonial(platform string) bool {
	_, ok := c.matrimonial[pstrings.Fold(platform)]
	return ok
}

// IsDating reports whether platform is a dating app.
func (c *Catalog) IsDating(platform string) bool {
	_, ok := c.dating[pstrings.Fold(platform)]
	return ok
}
