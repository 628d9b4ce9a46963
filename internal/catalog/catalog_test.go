package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OilTycoon/internal/model"
)

const specialistsCUE = `
specialists: [
	{kind: "advisor", name: "A", base_cost: 10000},
	{kind: "efficiency", name: "E", base_cost: 10000, default_target: 4},
	{kind: "consultant", name: "C", base_cost: 100000000},
	{kind: "negotiator", name: "N", base_cost: 100000000},
]
`

func TestDefault(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	require.Len(t, cat.Investments, 8)
	assert.Len(t, cat.Upgrades, 6)
	assert.Len(t, cat.Achievements, 6)
	assert.Len(t, cat.Specialists, 4)

	gas := cat.Investments[0]
	assert.Equal(t, "Gas Royalties", gas.Name)
	assert.Equal(t, 2.0, gas.BaseCost)
	assert.Equal(t, 1.15, gas.Growth)
	assert.Equal(t, 2000.0, gas.BaseDurationMs)
	assert.InDelta(t, 2/1.5, gas.RevenueBasis, 1e-9)

	saudi := cat.Investments[7]
	assert.Equal(t, 7_000_000.0, saudi.BaseCost)
	assert.Equal(t, 2_400_000.0, saudi.BaseDurationMs)

	up, ok := cat.Upgrade(9)
	require.True(t, ok)
	assert.Equal(t, model.AllInvestments, up.Target)
	assert.Equal(t, 5.0, up.Multiplier)

	eff, ok := cat.Specialist(model.KindEfficiency)
	require.True(t, ok)
	assert.Equal(t, 4, eff.DefaultTarget)
	neg, ok := cat.Specialist(model.KindNegotiator)
	require.True(t, ok)
	assert.Equal(t, 100_000_000.0, neg.BaseCost)
}

func TestParse_ExplicitRevenueAndGrowth(t *testing.T) {
	src := `investments: [{name: "Well", cost: 5, growth: 1.07, duration_ms: 10000, revenue: 100}]
upgrades: []
achievements: []
` + specialistsCUE

	cat, err := Parse([]byte(src), "small.cue")
	require.NoError(t, err)
	require.Len(t, cat.Investments, 1)
	assert.Equal(t, 100.0, cat.Investments[0].RevenueBasis)
	assert.Equal(t, 1.07, cat.Investments[0].Growth)
	// default target 4 is clamped into a one-entry table
	eff, _ := cat.Specialist(model.KindEfficiency)
	assert.Equal(t, 0, eff.DefaultTarget)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `investments: [`},
		{"no investments", `investments: []
upgrades: []
achievements: []
` + specialistsCUE},
		{"negative cost", `investments: [{name: "x", cost: -1, duration_ms: 10}]
upgrades: []
achievements: []
` + specialistsCUE},
		{"unknown field", `investments: [{name: "x", cost: 1, duration_ms: 10, colour: "red"}]
upgrades: []
achievements: []
` + specialistsCUE},
		{"reward of one", `investments: [{name: "x", cost: 1, duration_ms: 10}]
upgrades: []
achievements: [{id: 1, name: "a", target: 0, threshold: 5, reward: 1}]
` + specialistsCUE},
		{"target out of range", `investments: [{name: "x", cost: 1, duration_ms: 10}]
upgrades: [{id: 1, name: "u", target: 3, cost: 10, multiplier: 2}]
achievements: []
` + specialistsCUE},
		{"duplicate upgrade", `investments: [{name: "x", cost: 1, duration_ms: 10}]
upgrades: [{id: 1, name: "u", target: 0, cost: 10, multiplier: 2}, {id: 1, name: "v", target: 0, cost: 10, multiplier: 2}]
achievements: []
` + specialistsCUE},
		{"missing specialist", `investments: [{name: "x", cost: 1, duration_ms: 10}]
upgrades: []
achievements: []
specialists: [{kind: "advisor", name: "A", base_cost: 1}]`},
		{"unknown kind", `investments: [{name: "x", cost: 1, duration_ms: 10}]
upgrades: []
achievements: []
specialists: [{kind: "janitor", name: "J", base_cost: 1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), tt.name+".cue")
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	cat, err := Load("")
	require.NoError(t, err)
	assert.Len(t, cat.Investments, 8)

	path := filepath.Join(t.TempDir(), "tiny.cue")
	src := `investments: [{name: "Pump", cost: 3, duration_ms: 500}]
upgrades: []
achievements: []
` + specialistsCUE
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	cat, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Pump", cat.Investments[0].Name)
	assert.InDelta(t, 2.0, cat.Investments[0].RevenueBasis, 1e-9)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestValidIndex(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)
	assert.True(t, cat.ValidIndex(0))
	assert.True(t, cat.ValidIndex(7))
	assert.False(t, cat.ValidIndex(8))
	assert.False(t, cat.ValidIndex(-1))
}
