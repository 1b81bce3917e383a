package tools

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/Iemelianov/mms-promo-intelligence/models"
)

// DefaultConstraints apply when no config file overrides them.
var DefaultConstraints = models.Constraints{
	MaxDiscount: 0.3,
	MinMargin:   0.15,
}

// DefaultBrandRules apply when no config file overrides them.
var DefaultBrandRules = models.BrandRules{
	ToneGuidelines:    []string{"confident", "value-led"},
	MandatoryElements: []string{"logo"},
}

type promoConfigFile struct {
	Targets     map[string]models.Targets `json:"targets"`
	Constraints *models.Constraints       `json:"constraints"`
	BrandRules  *models.BrandRules        `json:"brandRules"`
}

// TargetsConfigTool serves monthly targets, promo constraints and brand rules
// from a JSON config file. The file is read once; a missing or empty path
// falls back to defaults (with no targets configured).
type TargetsConfigTool struct {
	path string

	once sync.Once
	cfg  promoConfigFile
}

func NewTargetsConfigTool(path string) *TargetsConfigTool {
	return &TargetsConfigTool{path: path}
}

func (t *TargetsConfigTool) load() {
	t.once.Do(func() {
		if t.path == "" {
			return
		}
		data, err := os.ReadFile(t.path)
		if err != nil {
			log.Printf("Could not read promo config %s, using defaults: %v", t.path, err)
			return
		}
		if err := json.Unmarshal(data, &t.cfg); err != nil {
			log.Printf("Could not parse promo config %s, using defaults: %v", t.path, err)
			t.cfg = promoConfigFile{}
		}
	})
}

// GetTargets returns the business targets for a month ("2024-10").
func (t *TargetsConfigTool) GetTargets(month string) (models.Targets, error) {
	t.load()
	targets, ok := t.cfg.Targets[month]
	if !ok {
		return models.Targets{}, fmt.Errorf("no targets configured for month %s", month)
	}
	targets.Month = month
	return targets, nil
}

// GetPromoConstraints returns the configured constraints, or the defaults.
func (t *TargetsConfigTool) GetPromoConstraints() models.Constraints {
	t.load()
	if t.cfg.Constraints != nil {
		return *t.cfg.Constraints
	}
	return DefaultConstraints
}

// GetBrandRules returns the configured brand rules, or the defaults.
func (t *TargetsConfigTool) GetBrandRules() models.BrandRules {
	t.load()
	if t.cfg.BrandRules != nil {
		return *t.cfg.BrandRules
	}
	return DefaultBrandRules
}
