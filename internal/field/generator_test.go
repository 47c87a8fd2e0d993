package field

import (
	"math/rand"
	"testing"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator(cfg config.FieldConfig, seed int64) *Generator {
	return NewGenerator(cfg, core.Point{}, rand.New(rand.NewSource(seed)))
}

func TestGenerate_DefaultsRespectClusterCap(t *testing.T) {
	cfg := config.Default().Field
	res := newGenerator(cfg, cfg.Seed).Generate()

	require.LessOrEqual(t, len(res.Points), cfg.Count)
	require.NotEmpty(t, res.Points)

	for i, p := range res.Points {
		assert.LessOrEqual(t, p.HorizontalDist(core.Point{}), cfg.AreaRadius+1e-9, "point %d outside the disk", i)
		assert.Equal(t, cfg.GroundHeight, p.Z)

		// every point had at most MaxNeighbors earlier points within D when it was placed
		earlier := 0
		for _, q := range res.Points[:i] {
			if q.Dist(p) <= cfg.DetectionRadius {
				earlier++
			}
		}
		assert.LessOrEqual(t, earlier, cfg.MaxNeighbors, "point %d", i)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := config.Default().Field

	a := newGenerator(cfg, 42).Generate()
	b := newGenerator(cfg, 42).Generate()
	c := newGenerator(cfg, 43).Generate()

	assert.Equal(t, a.Points, b.Points)
	assert.NotEqual(t, a.Points, c.Points)
}

func TestGenerate_Underfilled(t *testing.T) {
	cfg := config.FieldConfig{
		Count:            50,
		AreaRadius:       1,
		DetectionRadius:  5,
		MaxNeighbors:     2,
		AttemptsPerPoint: 10,
		GroundHeight:     0.2,
	}
	res := newGenerator(cfg, 1).Generate()

	// the whole disk is inside every point's radius so only MaxNeighbors+1 fit
	assert.Len(t, res.Points, 3)
	assert.True(t, res.Underfilled())
	assert.Equal(t, 500, res.Attempts)
}

func TestGenerate_SparseFieldFills(t *testing.T) {
	cfg := config.FieldConfig{
		Count:            10,
		AreaRadius:       100,
		DetectionRadius:  0.5,
		MaxNeighbors:     2,
		AttemptsPerPoint: 300,
	}
	res := newGenerator(cfg, 7).Generate()

	assert.Len(t, res.Points, 10)
	assert.False(t, res.Underfilled())
	assert.Equal(t, 10, res.Attempts)
}

func TestGenerate_CentredOnBase(t *testing.T) {
	cfg := config.Default().Field
	center := core.Point{X: 100, Y: -50}
	res := NewGenerator(cfg, center, rand.New(rand.NewSource(3))).Generate()

	for _, p := range res.Points {
		assert.LessOrEqual(t, p.HorizontalDist(center), cfg.AreaRadius+1e-9)
	}
}

func TestGenerate_ZeroCount(t *testing.T) {
	cfg := config.Default().Field
	cfg.Count = 0
	res := newGenerator(cfg, 1).Generate()

	assert.Empty(t, res.Points)
	assert.False(t, res.Underfilled())
	assert.Zero(t, res.Attempts)
}
