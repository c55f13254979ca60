package statstable

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dimerfit/internal/stats"
)

func row(fig, panel, key string, effect float64) Row {
	return Row{
		Figure: fig, Panel: panel, SampleA: "WT", SampleB: "L109R", Measure: "Mem_post",
		SizeA: 12, SizeB: 14, Effect: effect, Lower: effect - 0.123456, Upper: effect + 0.654321, Key: key,
	}
}

func TestLoadMissingFile(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "stats.csv"))
	require.NoError(t, err)
	assert.Zero(t, tbl.Len())
}

func TestUpsertIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	r := row("2", "b", "fig2b", 1.23456)

	require.NoError(t, UpsertRow(path, r))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, UpsertRow(path, r))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))

	tbl, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	got, ok := tbl.Get("fig2b")
	require.True(t, ok)
	assert.Equal(t, 1.23, got.Effect)
	assert.Equal(t, 1.11, got.Lower)
	assert.Equal(t, 1.89, got.Upper)
	assert.Equal(t, 12, got.SizeA)
}

func TestUpsertReplacesByKey(t *testing.T) {
	tbl := New()
	tbl.Upsert(row("1", "a", "k", 1))
	tbl.Upsert(row("1", "a", "other", 2))
	tbl.Upsert(row("1", "a", "k", 5))

	require.Equal(t, 2, tbl.Len())
	got, _ := tbl.Get("k")
	assert.Equal(t, 5.0, got.Effect)
}

func TestUpsertSortsByFigureAndPanel(t *testing.T) {
	tbl := New()
	tbl.Upsert(row("10", "a", "k1", 1))
	tbl.Upsert(row("2", "c", "k2", 1))
	tbl.Upsert(row("2", "a", "k3", 1))
	tbl.Upsert(row("S1", "a", "k4", 1))

	var keys []string
	for _, r := range tbl.Rows() {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"k3", "k2", "k1", "k4"}, keys)
}

func TestCompareLabelIsConsistent(t *testing.T) {
	labels := []string{"2", "10", "1a", "S1", "1.5", "b"}
	for _, a := range labels {
		for _, b := range labels {
			assert.Equal(t, -compareLabel(b, a), compareLabel(a, b), "%q vs %q", a, b)
			for _, c := range labels {
				if compareLabel(a, b) < 0 && compareLabel(b, c) < 0 {
					assert.Negative(t, compareLabel(a, c), "%q < %q < %q", a, b, c)
				}
			}
		}
	}

	tbl := New()
	for i, fig := range []string{"1a", "10", "2"} {
		tbl.Upsert(row(fig, "a", fig, float64(i)))
	}
	var figs []string
	for _, r := range tbl.Rows() {
		figs = append(figs, r.Figure)
	}
	assert.Equal(t, []string{"2", "10", "1a"}, figs)
}

func TestWriteFormat(t *testing.T) {
	tbl := New()
	tbl.Upsert(Row{
		Figure: "3", Panel: "d", SampleA: "A", SampleB: "B", Measure: "m",
		SizeA: 5, SizeB: 6, Effect: -0.00123456, Lower: -0.0456789, Upper: 12345.6, Key: "x",
	})

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, "3,d,A,B,m,5,6,-0.00123,-0.0457,12300,x", lines[1])
}

func TestReadRejectsForeignHeader(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2\n"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestFromEffect(t *testing.T) {
	es := &stats.EffectSize{Point: 0.5, NA: 3, NB: 4, Lower: 0.1, Upper: 0.9}
	r := FromEffect("1", "a", "A", "B", "m", "key", es)
	assert.Equal(t, 3, r.SizeA)
	assert.Equal(t, 4, r.SizeB)
	assert.Equal(t, 0.9, r.Upper)
}
