package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/san-kum/dimerfit/internal/estimator"
)

const (
	metadataFile     = "metadata.json"
	curvesFile       = "curves.csv"
	observationsFile = "observations.csv"
	ensemblePrefix   = "ensemble.csv."
)

var curveColumns = []string{
	"group", "label", "x",
	"fit", "fit_lower", "fit_upper",
	"cyt_dimer", "cyt_dimer_lower", "cyt_dimer_upper",
	"mem_dimer", "mem_dimer_lower", "mem_dimer_upper",
}

type Store struct {
	baseDir string
	codec   Codec
}

type Option func(*Store)

// WithCodec selects the ensemble compression. The default is zstd.
func WithCodec(c Codec) Option {
	return func(s *Store) { s.codec = c }
}

func New(baseDir string, opts ...Option) *Store {
	s := &Store{baseDir: baseDir, codec: ZstdCodec{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Source     string             `json:"source"`
	Model      string             `json:"model"`
	Region     string             `json:"region"`
	Log        bool               `json:"log"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Iterations int                `json:"iterations"`
	Interval   float64            `json:"interval"`
	Groups     []string           `json:"groups"`
	Fixed      []string           `json:"fixed,omitempty"`
	ParamNames []string           `json:"param_names"`
	Params     []float64          `json:"params"`
	ParamLower []float64          `json:"param_lower"`
	ParamUpper []float64          `json:"param_upper"`
	Evals      int                `json:"evals"`
	Metrics    map[string]float64 `json:"metrics"`
	Codec      string             `json:"codec"`
}

// Save writes one finished analysis. The run id hashes the configuration
// and result, so saving the same run twice overwrites it.
func (s *Store) Save(source string, cfg estimator.Config, res *estimator.Result) (string, error) {
	ensemble, err := encodeEnsemble(res.ParamNames, res.Ensemble)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		Source:     source,
		Model:      res.Model,
		Region:     string(cfg.Region),
		Log:        res.LogSpace,
		Timestamp:  time.Now(),
		Seed:       cfg.Seed,
		Iterations: len(res.Ensemble),
		Interval:   res.Interval,
		Fixed:      cfg.Fixed,
		ParamNames: res.ParamNames,
		Params:     res.Params,
		Evals:      res.Evals,
		Metrics:    res.Metrics,
		Codec:      s.codec.Name(),
	}
	for _, c := range res.Curves {
		meta.Groups = append(meta.Groups, c.Label)
	}
	for _, name := range res.ParamNames {
		lo, hi, err := res.ParamInterval(name)
		if err != nil {
			return "", err
		}
		meta.ParamLower = append(meta.ParamLower, lo)
		meta.ParamUpper = append(meta.ParamUpper, hi)
	}
	meta.ID = runID(meta, ensemble)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, curvesFile), curveRecords(res.Curves)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, observationsFile), observationRecords(res.Curves)); err != nil {
		return "", err
	}

	packed, err := s.codec.Compress(ensemble)
	if err != nil {
		return "", fmt.Errorf("compress ensemble: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, ensemblePrefix+s.codec.Name()), packed, 0644); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func runID(meta RunMetadata, ensemble []byte) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%s|%s|%v|%d|%v|%v|%v", meta.Source, meta.Model, meta.Region, meta.Log, meta.Seed, meta.Interval, meta.Fixed, meta.Groups)
	h.Write(ensemble)
	return fmt.Sprintf("%s_%012x", meta.Model, h.Sum64()&0xffffffffffff)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func curveRecords(curves []estimator.GroupCurve) [][]string {
	records := [][]string{curveColumns}
	for _, c := range curves {
		for i, x := range c.X {
			row := []string{strconv.Itoa(c.Group), c.Label, formatFloat(x)}
			for _, col := range [][]float64{
				c.Fit, c.FitLower, c.FitUpper,
				c.CytDimer, c.CytDimerLower, c.CytDimerUpper,
				c.MemDimer, c.MemDimerLower, c.MemDimerUpper,
			} {
				row = append(row, formatFloat(col[i]))
			}
			records = append(records, row)
		}
	}
	return records
}

func observationRecords(curves []estimator.GroupCurve) [][]string {
	records := [][]string{{"group", "label", "x", "y"}}
	for _, c := range curves {
		for i := range c.ObsX {
			records = append(records, []string{strconv.Itoa(c.Group), c.Label, formatFloat(c.ObsX[i]), formatFloat(c.ObsY[i])})
		}
	}
	return records
}

func encodeEnsemble(names []string, ensemble [][]float64) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(names); err != nil {
		return nil, err
	}
	for _, p := range ensemble {
		row := make([]string, len(p))
		for i, v := range p {
			row[i] = formatFloat(v)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

func parseFloats(rec []string) ([]float64, error) {
	out := make([]float64, len(rec))
	for i, s := range rec {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// LoadCurves reads the per-group curves and observations of a run.
func (s *Store) LoadCurves(runID string) ([]estimator.GroupCurve, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, curvesFile))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || !slices.Equal(records[0], curveColumns) {
		return nil, fmt.Errorf("storage: %s: unexpected header", curvesFile)
	}

	var curves []estimator.GroupCurve
	index := map[int]int{}
	for line, rec := range records[1:] {
		if len(rec) != len(curveColumns) {
			return nil, fmt.Errorf("storage: %s line %d: %d fields", curvesFile, line+2, len(rec))
		}
		g, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", curvesFile, line+2, err)
		}
		vals, err := parseFloats(rec[2:])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", curvesFile, line+2, err)
		}

		k, ok := index[g]
		if !ok {
			k = len(curves)
			index[g] = k
			curves = append(curves, estimator.GroupCurve{Group: g, Label: rec[1]})
		}
		c := &curves[k]
		for i, dst := range []*[]float64{
			&c.X,
			&c.Fit, &c.FitLower, &c.FitUpper,
			&c.CytDimer, &c.CytDimerLower, &c.CytDimerUpper,
			&c.MemDimer, &c.MemDimerLower, &c.MemDimerUpper,
		} {
			*dst = append(*dst, vals[i])
		}
	}

	obs, err := readCSV(filepath.Join(s.baseDir, runID, observationsFile))
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return curves, nil
	}
	for line, rec := range obs[1:] {
		if len(rec) != 4 {
			return nil, fmt.Errorf("storage: %s line %d: %d fields", observationsFile, line+2, len(rec))
		}
		g, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", observationsFile, line+2, err)
		}
		xy, err := parseFloats(rec[2:4])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", observationsFile, line+2, err)
		}
		if k, ok := index[g]; ok {
			curves[k].ObsX = append(curves[k].ObsX, xy[0])
			curves[k].ObsY = append(curves[k].ObsY, xy[1])
		}
	}
	return curves, nil
}

// LoadEnsemble reads and decompresses the bootstrap ensemble of a run.
func (s *Store) LoadEnsemble(runID string) ([]string, [][]float64, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	codec, err := CodecByName(meta.Codec)
	if err != nil {
		return nil, nil, err
	}

	packed, err := os.ReadFile(filepath.Join(s.baseDir, runID, ensemblePrefix+codec.Name()))
	if err != nil {
		return nil, nil, err
	}
	data, err := codec.Decompress(packed)
	if err != nil {
		return nil, nil, err
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("storage: empty ensemble")
	}

	ensemble := make([][]float64, 0, len(records)-1)
	for _, rec := range records[1:] {
		p, err := parseFloats(rec)
		if err != nil {
			return nil, nil, err
		}
		ensemble = append(ensemble, p)
	}
	return records[0], ensemble, nil
}

// LoadResult reassembles the estimator result of a stored run.
func (s *Store) LoadResult(runID string) (*RunMetadata, *estimator.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	curves, err := s.LoadCurves(runID)
	if err != nil {
		return nil, nil, err
	}
	names, ensemble, err := s.LoadEnsemble(runID)
	if err != nil {
		return nil, nil, err
	}

	return meta, &estimator.Result{
		Model:      meta.Model,
		ParamNames: names,
		Params:     meta.Params,
		Ensemble:   ensemble,
		Curves:     curves,
		Metrics:    meta.Metrics,
		Interval:   meta.Interval,
		LogSpace:   meta.Log,
		Evals:      meta.Evals,
	}, nil
}
