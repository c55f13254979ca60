// Package statstable keeps the publication statistics table: one row per
// key, rewritten in full on every upsert.
package statstable

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"github.com/san-kum/dimerfit/internal/stats"
)

// Columns is the header of the persisted table, in order.
var Columns = []string{
	"Figure",
	"Panel",
	"Sample A",
	"Sample B",
	"Measure",
	"Sample size A",
	"Sample size B",
	"Effect size (B-A)",
	"95% CI (lower)",
	"95% CI (upper)",
	"Key",
}

// SigFigs is the precision of effect sizes and interval bounds.
const SigFigs = 3

var ErrBadHeader = errors.New("statstable: unexpected header")

type Row struct {
	Figure  string
	Panel   string
	SampleA string
	SampleB string
	Measure string
	SizeA   int
	SizeB   int
	Effect  float64
	Lower   float64
	Upper   float64
	Key     string
}

// FromEffect builds a row from a bootstrap effect size.
func FromEffect(figure, panel, sampleA, sampleB, measure, key string, es *stats.EffectSize) Row {
	return Row{
		Figure:  figure,
		Panel:   panel,
		SampleA: sampleA,
		SampleB: sampleB,
		Measure: measure,
		SizeA:   es.NA,
		SizeB:   es.NB,
		Effect:  es.Point,
		Lower:   es.Lower,
		Upper:   es.Upper,
		Key:     key,
	}
}

func (r Row) rounded() Row {
	r.Effect = stats.RoundSig(r.Effect, SigFigs)
	r.Lower = stats.RoundSig(r.Lower, SigFigs)
	r.Upper = stats.RoundSig(r.Upper, SigFigs)
	return r
}

func (r Row) record() []string {
	return []string{
		r.Figure, r.Panel, r.SampleA, r.SampleB, r.Measure,
		strconv.Itoa(r.SizeA), strconv.Itoa(r.SizeB),
		formatFloat(r.Effect), formatFloat(r.Lower), formatFloat(r.Upper),
		r.Key,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseRecord(rec []string, line int) (Row, error) {
	if len(rec) != len(Columns) {
		return Row{}, fmt.Errorf("statstable: line %d has %d fields, want %d", line, len(rec), len(Columns))
	}
	r := Row{
		Figure: rec[0], Panel: rec[1], SampleA: rec[2], SampleB: rec[3], Measure: rec[4], Key: rec[10],
	}

	var err error
	if r.SizeA, err = strconv.Atoi(rec[5]); err != nil {
		return Row{}, fmt.Errorf("statstable: line %d: %w", line, err)
	}
	if r.SizeB, err = strconv.Atoi(rec[6]); err != nil {
		return Row{}, fmt.Errorf("statstable: line %d: %w", line, err)
	}
	for i, dst := range []*float64{&r.Effect, &r.Lower, &r.Upper} {
		if *dst, err = strconv.ParseFloat(rec[7+i], 64); err != nil {
			return Row{}, fmt.Errorf("statstable: line %d: %w", line, err)
		}
	}
	return r, nil
}

// Table holds rows with unique keys, sorted by figure and panel.
type Table struct {
	rows []Row
}

func New() *Table { return &Table{} }

// Read parses a persisted table.
func Read(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	t := New()
	if len(records) == 0 {
		return t, nil
	}
	if !slices.Equal(records[0], Columns) {
		return nil, fmt.Errorf("%w: %q", ErrBadHeader, records[0])
	}
	for i, rec := range records[1:] {
		row, err := parseRecord(rec, i+2)
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// Load reads the table at path. A missing file yields an empty table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of the rows in table order.
func (t *Table) Rows() []Row { return slices.Clone(t.rows) }

func (t *Table) Get(key string) (Row, bool) {
	i := slices.IndexFunc(t.rows, func(r Row) bool { return r.Key == key })
	if i < 0 {
		return Row{}, false
	}
	return t.rows[i], true
}

// Upsert removes any row with row.Key, appends the rounded row and re-sorts.
func (t *Table) Upsert(row Row) {
	t.Delete(row.Key)
	t.rows = append(t.rows, row.rounded())
	t.sort()
}

// Delete removes the row with key and reports whether one existed.
func (t *Table) Delete(key string) bool {
	n := len(t.rows)
	t.rows = slices.DeleteFunc(t.rows, func(r Row) bool { return r.Key == key })
	return len(t.rows) != n
}

func (t *Table) sort() {
	slices.SortStableFunc(t.rows, func(a, b Row) int {
		if c := compareLabel(a.Figure, b.Figure); c != 0 {
			return c
		}
		return compareLabel(a.Panel, b.Panel)
	})
}

// compareLabel puts numeric labels first, in numeric order, then the rest
// lexically.
func compareLabel(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(fa, fb); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range t.rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save rewrites the whole table at path.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// UpsertRow loads the table at path, upserts row and saves it back.
func UpsertRow(path string, row Row) error {
	t, err := Load(path)
	if err != nil {
		return err
	}
	t.Upsert(row)
	return t.Save(path)
}
