package plot

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigel-lab/qsweep/internal/sweep"
)

func rabiSeries(n int) *sweep.Series {
	s := &sweep.Series{
		SweepID:  "test",
		Target:   "sim-2q",
		Register: "theta",
	}
	for _, v := range sweep.Linspace(0, 2*math.Pi, n) {
		half := math.Sin(v / 2)
		s.Points = append(s.Points, sweep.Point{
			Value:      v,
			Visibility: half * half,
			Shots:      100,
		})
	}
	return s
}

func TestRender_RabiGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rabiSeries(24), Options{}))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "rabi", buf.Bytes())
}

func TestRender_FlatGolden(t *testing.T) {
	s := &sweep.Series{Target: "sim-2q", Register: "theta"}
	for i := 0; i < 8; i++ {
		s.Points = append(s.Points, sweep.Point{
			Value:      float64(i),
			Visibility: 0.25,
			Shots:      50,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s, Options{Height: 5, Marker: '#'}))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "flat", buf.Bytes())
}

func TestRender_EmptySeries(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, &sweep.Series{}, Options{})
	require.Error(t, err)
}

func TestRender_ClampsOutOfRange(t *testing.T) {
	// Visibility outside [0, 1] cannot come from a real run, but the
	// chart clamps rather than indexing out of bounds.
	s := &sweep.Series{Target: "sim-2q", Register: "theta", Points: []sweep.Point{
		{Value: 0, Visibility: -0.5, Shots: 10},
		{Value: 1, Visibility: 1.5, Shots: 10},
	}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s, Options{Height: 4}))

	lines := strings.Split(buf.String(), "\n")
	assert.True(t, strings.HasPrefix(lines[1], "1.00 | *"), "top row: %q", lines[1])
	assert.True(t, strings.HasPrefix(lines[4], "0.00 |*"), "bottom row: %q", lines[4])
}
