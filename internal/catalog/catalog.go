// Package catalog loads the static definition tables the economy runs on.
// Tables are written in CUE and checked against an embedded schema.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"OilTycoon/internal/model"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed catalog.cue
var defaultSource []byte

// Catalog holds every definition table. It is read-only once loaded.
type Catalog struct {
	Investments  []model.InvestmentDefinition  `json:"investments"`
	Upgrades     []model.UpgradeDefinition     `json:"upgrades"`
	Achievements []model.AchievementDefinition `json:"achievements"`
	Specialists  []model.SpecialistDefinition  `json:"specialists"`
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultSource, "catalog.cue")
}

// Load reads a catalog file, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, filepath.Base(path))
}

// Parse compiles src, unifies it with the schema and decodes the result.
func Parse(src []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}

	value := schema.LookupPath(cue.ParsePath("#Catalog")).Unify(data)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filename, err)
	}

	var cat Catalog
	if err := value.Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cat.clampTargets()
	return &cat, nil
}

// Validate checks the cross-table rules the schema cannot express.
func (c *Catalog) Validate() error {
	n := len(c.Investments)
	if n == 0 {
		return errors.New("catalog has no investments")
	}

	seen := make(map[int]bool)
	for _, u := range c.Upgrades {
		if seen[u.ID] {
			return fmt.Errorf("duplicate upgrade id %d", u.ID)
		}
		seen[u.ID] = true
		if u.Target >= n {
			return fmt.Errorf("upgrade %d targets investment %d of %d", u.ID, u.Target, n)
		}
	}

	clear(seen)
	for _, a := range c.Achievements {
		if seen[a.ID] {
			return fmt.Errorf("duplicate achievement id %d", a.ID)
		}
		seen[a.ID] = true
		if a.Target >= n {
			return fmt.Errorf("achievement %d targets investment %d of %d", a.ID, a.Target, n)
		}
	}

	kinds := make(map[model.SpecialistKind]bool)
	for _, s := range c.Specialists {
		if kinds[s.Kind] {
			return fmt.Errorf("duplicate specialist %q", s.Kind)
		}
		kinds[s.Kind] = true
	}
	for _, kind := range model.SpecialistKinds {
		if !kinds[kind] {
			return fmt.Errorf("missing specialist %q", kind)
		}
	}
	return nil
}

// clampTargets keeps specialist default targets inside the investment table.
func (c *Catalog) clampTargets() {
	last := len(c.Investments) - 1
	for i := range c.Specialists {
		if c.Specialists[i].DefaultTarget > last {
			c.Specialists[i].DefaultTarget = last
		}
	}
}

// Upgrade looks up an upgrade by id.
func (c *Catalog) Upgrade(id int) (model.UpgradeDefinition, bool) {
	for _, u := range c.Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return model.UpgradeDefinition{}, false
}

// Specialist looks up the definition of kind.
func (c *Catalog) Specialist(kind model.SpecialistKind) (model.SpecialistDefinition, bool) {
	for _, s := range c.Specialists {
		if s.Kind == kind {
			return s, true
		}
	}
	return model.SpecialistDefinition{}, false
}

// ValidIndex reports whether idx addresses an investment.
func (c *Catalog) ValidIndex(idx int) bool {
	return idx >= 0 && idx < len(c.Investments)
}
