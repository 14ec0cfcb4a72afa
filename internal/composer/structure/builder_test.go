package structure

import (
	"testing"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCoversEveryLength(t *testing.T) {
	for total := 1; total <= 400; total++ {
		sections, err := Build(total, "pop", models.EnergyMedium)
		require.NoError(t, err)
		require.NotEmpty(t, sections)

		assert.Equal(t, 0, sections[0].StartBar, "total=%d", total)
		assert.Equal(t, total, sections[len(sections)-1].EndBar, "total=%d", total)

		sum := 0
		for i, s := range sections {
			assert.Greater(t, s.Bars(), 0, "total=%d section=%d", total, i)
			if i > 0 {
				assert.Equal(t, sections[i-1].EndBar, s.StartBar, "total=%d section=%d", total, i)
			}
			assert.GreaterOrEqual(t, s.Energy, 0.0)
			assert.LessOrEqual(t, s.Energy, 1.0)
			sum += s.Bars()
		}
		assert.Equal(t, total, sum)
	}
}

func TestBuildForms(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  []models.SectionName
		bars  []int
	}{
		{"single bar", 1, []models.SectionName{"main"}, []int{1}},
		{"two bars", 2, []models.SectionName{"main", "outro"}, []int{1, 1}},
		{"eight bars", 8, []models.SectionName{"intro", "main", "outro"}, []int{2, 4, 2}},
		{"sixteen bars", 16, []models.SectionName{"intro", "main", "outro"}, []int{4, 8, 4}},
		{"thirty two bars", 32, []models.SectionName{"intro", "verse", "chorus", "bridge", "outro"}, []int{4, 8, 8, 8, 4}},
		{"seventeen bars", 17, []models.SectionName{"intro", "verse", "chorus", "bridge", "outro"}, []int{2, 4, 5, 4, 2}},
		{"thirty three merges remainder", 33, []models.SectionName{"intro", "verse", "chorus", "bridge", "outro"}, []int{4, 8, 9, 8, 4}},
		{"forty eight", 48, []models.SectionName{"intro", "verse", "chorus", "verse", "chorus", "bridge", "outro"}, []int{4, 8, 8, 8, 8, 8, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, err := Build(tt.total, "pop", models.EnergyMedium)
			require.NoError(t, err)
			require.Len(t, sections, len(tt.want))
			for i, s := range sections {
				assert.Equal(t, tt.want[i], s.Name)
				assert.Equal(t, tt.bars[i], s.Bars())
			}
		})
	}
}

func TestBuildShapes(t *testing.T) {
	sections, err := Build(32, "pop", models.EnergyMedium)
	require.NoError(t, err)

	assert.Equal(t, models.ShapeBuild, sections[0].Shape)
	assert.Equal(t, models.ShapePeak, sections[2].Shape)
	assert.True(t, sections[3].Contrast)
	assert.Equal(t, models.ShapeFade, sections[4].Shape)

	ambient, err := Build(32, "ambient", models.EnergyMedium)
	require.NoError(t, err)
	assert.Equal(t, models.ShapeNone, ambient[2].Shape)
}

func TestBuildOccurrences(t *testing.T) {
	sections, err := Build(64, "rock", models.EnergyHigh)
	require.NoError(t, err)

	count := map[models.SectionName]int{}
	for _, s := range sections {
		assert.Equal(t, count[s.Name], s.Occurrence)
		count[s.Name]++
	}
	assert.Greater(t, count[models.SectionChorus], 1)
}

func TestEnergyNudge(t *testing.T) {
	low, err := Build(32, "pop", models.EnergyVeryLow)
	require.NoError(t, err)
	high, err := Build(32, "pop", models.EnergyVeryHigh)
	require.NoError(t, err)

	for i := range low {
		assert.Less(t, low[i].Energy, high[i].Energy)
		assert.Less(t, low[i].Density, high[i].Density)
	}
}

func TestBuildRejectsEmpty(t *testing.T) {
	_, err := Build(0, "pop", models.EnergyMedium)
	assert.ErrorIs(t, err, ErrNoBars)
}
