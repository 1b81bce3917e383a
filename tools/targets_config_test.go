package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "promo_config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTargetsConfigTool(t *testing.T) {
	path := writeConfig(t, `{
		"targets": {
			"2024-10": {"salesTarget": 1000000, "marginTarget": 0.25, "unitsTarget": 10000}
		},
		"constraints": {"maxDiscount": 0.25, "minMargin": 0.18},
		"brandRules": {"mandatoryElements": ["logo", "legal_footer"]}
	}`)
	tool := NewTargetsConfigTool(path)

	targets, err := tool.GetTargets("2024-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-10", targets.Month)
	assert.InDelta(t, 1000000, targets.SalesTarget, 1e-9)
	assert.InDelta(t, 0.25, targets.MarginTarget, 1e-9)
	require.NotNil(t, targets.UnitsTarget)
	assert.InDelta(t, 10000, *targets.UnitsTarget, 1e-9)
	assert.Nil(t, targets.EBITTarget)

	constraints := tool.GetPromoConstraints()
	assert.InDelta(t, 0.25, constraints.MaxDiscount, 1e-9)
	assert.InDelta(t, 0.18, constraints.MinMargin, 1e-9)

	rules := tool.GetBrandRules()
	assert.Equal(t, []string{"logo", "legal_footer"}, rules.MandatoryElements)
}

func TestTargetsConfigToolUnknownMonth(t *testing.T) {
	path := writeConfig(t, `{"targets": {"2024-10": {"salesTarget": 1}}}`)
	tool := NewTargetsConfigTool(path)

	_, err := tool.GetTargets("2024-11")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "2024-11")
}

func TestTargetsConfigToolMissingFileFallsBack(t *testing.T) {
	tool := NewTargetsConfigTool(filepath.Join(t.TempDir(), "does_not_exist.json"))

	assert.Equal(t, DefaultConstraints, tool.GetPromoConstraints())
	assert.Equal(t, DefaultBrandRules, tool.GetBrandRules())
	_, err := tool.GetTargets("2024-10")
	assert.Error(t, err)
}

func TestTargetsConfigToolEmptyPathFallsBack(t *testing.T) {
	tool := NewTargetsConfigTool("")
	assert.Equal(t, DefaultConstraints, tool.GetPromoConstraints())
}

func TestTargetsConfigToolInvalidJSONFallsBack(t *testing.T) {
	tool := NewTargetsConfigTool(writeConfig(t, `{not json`))
	assert.Equal(t, DefaultConstraints, tool.GetPromoConstraints())
	assert.Equal(t, DefaultBrandRules, tool.GetBrandRules())
}
