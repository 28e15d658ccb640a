package diagnostics

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pdesim/internal/integrators"
	"github.com/san-kum/pdesim/internal/laplacian"
	"github.com/san-kum/pdesim/internal/pde"
	"github.com/san-kum/pdesim/internal/rhs"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, pde.ErrMissingSpacing)

	_, err = New(Config{Dx: -1})
	require.ErrorIs(t, err, pde.ErrMissingSpacing)

	_, err = New(Config{Dx: 1, Dy: -0.5})
	require.ErrorIs(t, err, pde.ErrMissingSpacing)

	_, err = New(Config{Dx: 1, Track: []string{"mass", "energy"}})
	require.ErrorIs(t, err, ErrUnknownStatistic)

	tr, err := New(Config{Dx: 1, Track: []string{"mass", "min", "mass"}})
	require.NoError(t, err)
	require.Equal(t, []string{"mass", "min"}, tr.Columns())
}

func TestTrack_Statistics(t *testing.T) {
	tr, err := New(Config{Dx: 0.5})
	require.NoError(t, err)

	require.NoError(t, tr.Track(pde.State{1, 2, 3, -2}, 0))
	require.Equal(t, 1, tr.Len())

	r := tr.Records()[0]
	require.Equal(t, 0, r.Step)
	require.InDelta(t, -2.0, r.Values[Min], 1e-15)
	require.InDelta(t, 3.0, r.Values[Max], 1e-15)
	require.InDelta(t, 1.0, r.Values[Mean], 1e-15)
	// dy defaults to dx
	require.InDelta(t, 4*0.5*0.5, r.Values[Mass], 1e-15)
	require.InDelta(t, 0.0, r.Values[L2Error], 1e-15)
}

func TestTrack_Mass2D(t *testing.T) {
	tr, err := New(Config{Dx: 0.1, Dy: 0.2, Track: []string{Mass}})
	require.NoError(t, err)
	require.NoError(t, tr.Track(pde.State{1, 1, 1, 1, 1, 1}, 0))

	v, ok := tr.Records()[0].Get(Mass)
	require.True(t, ok)
	require.InDelta(t, 6*0.1*0.2, v, 1e-15)

	_, ok = tr.Records()[0].Get(Max)
	require.False(t, ok)
}

func TestTrack_L2AgainstReference(t *testing.T) {
	ref := pde.State{0, 0, 0, 0}
	tr, err := New(Config{Dx: 0.25, Reference: ref, Track: []string{L2Error}})
	require.NoError(t, err)

	ref[0] = 100 // the tracker keeps its own copy
	require.NoError(t, tr.Track(pde.State{3, 4, 0, 0}, 0.5))

	// sqrt(25 · 0.25 · 0.25)
	require.InDelta(t, 1.25, tr.Records()[0].Values[L2Error], 1e-14)
}

func TestTrack_ShapeMismatch(t *testing.T) {
	tr, err := New(Config{Dx: 1, Reference: pde.State{0, 0, 0}})
	require.NoError(t, err)

	err = tr.Track(pde.State{1, 2}, 0)
	require.ErrorIs(t, err, pde.ErrShapeMismatch)
	require.Equal(t, 0, tr.Len())

	err = tr.Track(pde.State{}, 0)
	require.ErrorIs(t, err, pde.ErrShapeMismatch)
	require.Equal(t, 0, tr.Len())
}

func TestTrack_ReferenceIgnoredWithoutL2(t *testing.T) {
	tr, err := New(Config{Dx: 1, Reference: pde.State{0, 0, 0}, Track: []string{Min, Max}})
	require.NoError(t, err)

	require.NoError(t, tr.Track(pde.State{1, 2}, 0))
	require.NoError(t, tr.Track(pde.State{1, 2, 3, 4}, 0.1))
	require.Equal(t, 2, tr.Len())

	r := tr.Records()[1]
	require.Equal(t, 4.0, r.Values[Max])
	_, ok := r.Get(L2Error)
	require.False(t, ok)
}

func TestTrack_DoesNotMutate(t *testing.T) {
	tr, err := New(Config{Dx: 1})
	require.NoError(t, err)

	u := pde.State{5, -1, 2}
	orig := u.Clone()
	require.NoError(t, tr.Track(u, 0))
	require.NoError(t, tr.Track(u, 1))
	require.Equal(t, orig, u)
}

func TestRecordsAreCopies(t *testing.T) {
	tr, err := New(Config{Dx: 1})
	require.NoError(t, err)
	require.NoError(t, tr.Track(pde.State{1, 2}, 0))

	recs := tr.Records()
	recs[0].Values[Max] = -1
	require.Equal(t, 2.0, tr.Records()[0].Values[Max])
}

func TestReset(t *testing.T) {
	tr, err := New(Config{Dx: 1})
	require.NoError(t, err)
	require.NoError(t, tr.Track(pde.State{1, 2}, 0))
	require.NoError(t, tr.Track(pde.State{1, 2}, 1))

	tr.Reset()
	require.Equal(t, 0, tr.Len())

	// the implicit reference is dropped, so a different size is fine now
	require.NoError(t, tr.Track(pde.State{1, 2, 3}, 0))
	require.Equal(t, 0, tr.Records()[0].Step)
}

func TestTrackerAsRecorder(t *testing.T) {
	op, err := laplacian.Laplacian1D(16, 0.25)
	require.NoError(t, err)

	tr, err := New(Config{Dx: 0.25})
	require.NoError(t, err)

	sys, err := pde.New(rhs.Linear(op, 1), integrators.NewRK4(), op.Size(), pde.WithRecorder(tr))
	require.NoError(t, err)

	u0 := make(pde.State, 16)
	u0[8] = 1
	h, err := sys.Evolve(u0, 0.01, 20)
	require.NoError(t, err)

	recs := tr.Records()
	require.Len(t, recs, len(h))
	for i, r := range recs {
		require.Equal(t, i, r.Step)
		require.InDelta(t, float64(i)*0.01, r.Time, 1e-15)
		require.InDelta(t, 0.25*0.25, r.Values[Mass], 1e-12)
	}
	require.Equal(t, 0.0, recs[0].Values[L2Error])
	require.Greater(t, recs[20].Values[L2Error], 0.0)
	require.Less(t, recs[20].Values[Max], recs[0].Values[Max])

	post, err := New(Config{Dx: 0.25})
	require.NoError(t, err)
	require.NoError(t, post.TrackHistory(h, 0.01))
	require.Equal(t, recs, post.Records())
}

func TestTrackHistory_Error(t *testing.T) {
	tr, err := New(Config{Dx: 1})
	require.NoError(t, err)

	h := pde.History{{1, 2}, {1, 2}, {1, 2, 3}}
	err = tr.TrackHistory(h, 0.5)

	var stepErr *pde.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, 2, stepErr.Step)
	require.ErrorIs(t, err, pde.ErrShapeMismatch)
	require.Equal(t, 2, tr.Len())
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, "YAML": FormatYAML, "yml": FormatYAML, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func sampleTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := New(Config{Dx: 0.5, Track: []string{Max, Mass}})
	require.NoError(t, err)
	require.NoError(t, tr.Track(pde.State{1, 3}, 0))
	require.NoError(t, tr.Track(pde.State{2, 2}, 0.1))
	return tr
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tr := sampleTracker(t)

	var buf bytes.Buffer
	require.NoError(t, tr.Write(&buf, FormatCSV))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "step,time,max,mass", lines[0])
	require.Equal(t, "0,0,3,1", lines[1])
	require.Equal(t, "1,0.1,2,1", lines[2])

	cols, recs, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{Max, Mass}, cols)
	require.Equal(t, tr.Records(), recs)
}

func TestWriteYAML(t *testing.T) {
	tr := sampleTracker(t)

	var buf bytes.Buffer
	require.NoError(t, tr.Write(&buf, FormatYAML))

	var got []Record
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, tr.Records(), got)
}

func TestWriteJSON_NonFinite(t *testing.T) {
	tr, err := New(Config{Dx: 1, Track: []string{Max}})
	require.NoError(t, err)
	require.NoError(t, tr.Track(pde.State{math.Inf(1), 0}, 0))

	var buf bytes.Buffer
	require.NoError(t, tr.Write(&buf, FormatJSON))

	var got []struct {
		Values map[string]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	require.Nil(t, got[0].Values[Max])
}

func TestWrite_UnknownFormat(t *testing.T) {
	tr := sampleTracker(t)
	require.ErrorIs(t, tr.Write(&bytes.Buffer{}, Format("toml")), ErrUnknownFormat)
}

func TestSeries(t *testing.T) {
	recs := sampleTracker(t).Records()
	times, values := Series(recs, Max)
	require.Equal(t, []float64{0, 0.1}, times)
	require.Equal(t, []float64{3, 2}, values)

	_, missing := Series(recs, Min)
	require.True(t, math.IsNaN(missing[0]))
}
