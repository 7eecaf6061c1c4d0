package volume

import (
	"math"
	"testing"

	"weight-estimator/internal/mask"
	"weight-estimator/internal/scale"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// disc rasterises a circle of radius r pixels centred in a (2r+1)² grid.
func disc(r int) *mask.Mask {
	size := 2*r + 1
	m := mask.New(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x-r), float64(y-r)
			if dx*dx+dy*dy <= float64(r*r) {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

func relErr(got, want float64) float64 {
	return math.Abs(got-want) / want
}

func TestIntegrate_Square(t *testing.T) {
	t.Parallel()

	m := mask.New(10, 10)
	for i := range m.Pix {
		m.Pix[i] = 1
	}

	// Ten slices of diameter 1 cm and thickness 0.1 cm.
	v, err := Integrate(m, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, v, 1e-9)
}

func TestIntegrate_Background(t *testing.T) {
	t.Parallel()

	v, err := Integrate(mask.New(30, 20), 0.05)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestIntegrate_Degenerate(t *testing.T) {
	t.Parallel()

	v, err := Integrate(nil, 0.05)
	assert.ErrorIs(t, err, ErrDegenerateMask)
	assert.Equal(t, 0.0, v)

	_, err = Integrate(mask.New(0, 10), 0.05)
	assert.ErrorIs(t, err, ErrDegenerateMask)
}

func TestIntegrate_InvalidScale(t *testing.T) {
	t.Parallel()

	m := mask.New(5, 5)
	for _, s := range []scale.Factor{0, -0.1, scale.Factor(math.NaN())} {
		_, err := Integrate(m, s)
		assert.ErrorIs(t, err, ErrInvalidScale, "scale %v", float64(s))
		assert.ErrorIs(t, err, scale.ErrInvalidScale)
	}
}

func TestIntegrate_InvalidMask(t *testing.T) {
	t.Parallel()

	bad := &mask.Mask{Width: 3, Height: 3, Pix: []uint8{1, 2}}
	_, err := Integrate(bad, 0.1)
	assert.ErrorIs(t, err, mask.ErrInvalidMask)
}

func TestIntegrate_SphereConverges(t *testing.T) {
	t.Parallel()

	const s = 0.05
	sphere := func(r int) float64 {
		rad := float64(r) * s
		return 4.0 / 3.0 * math.Pi * rad * rad * rad
	}

	errs := map[int]float64{}
	for _, r := range []int{10, 50, 100} {
		v, err := Integrate(disc(r), s)
		require.NoError(t, err)
		errs[r] = relErr(v, sphere(r))
	}

	assert.Less(t, errs[10], 0.03)
	assert.Less(t, errs[50], 0.005)
	assert.Less(t, errs[100], 0.001)
	assert.Less(t, errs[100], errs[10], "finer masks approximate the sphere better")
}

func TestSlices(t *testing.T) {
	t.Parallel()

	m, err := mask.FromRows([][]uint8{
		{0, 1, 1, 0},
		{0, 0, 0, 0}, // a gap does not stop the scan
		{1, 1, 1, 1},
	})
	require.NoError(t, err)

	slices, err := Slices(m, 0.5)
	require.NoError(t, err)
	require.Len(t, slices, 3)
	assert.Equal(t, 0.0, slices[1])
	assert.Greater(t, slices[2], slices[0])

	total, err := Integrate(m, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, total, floats.Sum(slices), 1e-12)

	// Rows 0 and 2 are disks of diameter 1 cm and 2 cm, each 0.5 cm thick.
	want := math.Pi*0.25*0.5 + math.Pi*1*0.5
	assert.InDelta(t, want, total, 1e-12)
}
