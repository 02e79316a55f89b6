package presets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.Len(t, all, 9)
	assert.Equal(t, "soccer", all[0].ID)

	for _, p := range all {
		assert.NotEmpty(t, p.Name, p.ID)
		assert.NotEmpty(t, p.Items, p.ID)
	}
}

func TestGet(t *testing.T) {
	p, ok, err := Get("beach")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DifficultyEasy, p.Difficulty)

	_, ok, err = Get("skydiving")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelect(t *testing.T) {
	p, _, err := Get("soccer")
	require.NoError(t, err)

	all, err := p.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(p.Items))

	picked, err := p.Select([]string{"phone", " Soccer Ball "})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "Soccer Ball", picked[0].Name)
	assert.Equal(t, "Phone", picked[1].Name)

	_, err = p.Select([]string{"Surfboard"})
	assert.ErrorContains(t, err, "surfboard")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", "presets:\n  - name: X\n    items:\n      - name: a\n"},
		{"duplicate id", "presets:\n  - id: a\n    items: [{name: x}]\n  - id: a\n    items: [{name: y}]\n"},
		{"no items", "presets:\n  - id: a\n"},
		{"bad difficulty", "presets:\n  - id: a\n    difficulty: extreme\n    items: [{name: x}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestCategories(t *testing.T) {
	cats, err := Categories()
	require.NoError(t, err)
	assert.IsNonDecreasing(t, cats)
	assert.Contains(t, cats, "Equipment")
}

func TestMarkdown(t *testing.T) {
	p := Preset{
		ID: "x", Name: "Trip", Icon: "✈️", Description: "Short trip",
		Difficulty: DifficultyHard,
		Items: []Item{
			{Name: "Passport", Category: "Documents", Essential: true},
			{Name: "Pen|Pencil", Category: "Office"},
		},
	}
	md := Markdown(p)
	assert.Contains(t, md, "# ✈️ Trip")
	assert.Contains(t, md, "**Items:** 2 (1 essential)")
	assert.Contains(t, md, `Pen\|Pencil`)

	out, err := Render(p, 60)
	require.NoError(t, err)
	assert.Contains(t, out, "Passport")
}
