package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/dimerfit/internal/estimator"
)

type ParamData struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

type CurveData struct {
	Group         int       `json:"group"`
	Label         string    `json:"label"`
	Affinity      float64   `json:"affinity"`
	X             []float64 `json:"x"`
	Fit           []float64 `json:"fit"`
	FitLower      []float64 `json:"fit_lower"`
	FitUpper      []float64 `json:"fit_upper"`
	CytDimer      []float64 `json:"cyt_dimer"`
	CytDimerLower []float64 `json:"cyt_dimer_lower"`
	CytDimerUpper []float64 `json:"cyt_dimer_upper"`
	MemDimer      []float64 `json:"mem_dimer"`
	MemDimerLower []float64 `json:"mem_dimer_lower"`
	MemDimerUpper []float64 `json:"mem_dimer_upper"`
}

type ExportData struct {
	ID         string             `json:"id,omitempty"`
	Model      string             `json:"model"`
	LogSpace   bool               `json:"log_space"`
	Interval   float64            `json:"interval"`
	Iterations int                `json:"iterations"`
	Params     []ParamData        `json:"params"`
	Curves     []CurveData        `json:"curves"`
	Metrics    map[string]float64 `json:"metrics"`
	Ensemble   [][]float64        `json:"ensemble,omitempty"`
}

// NewExportData flattens a result. The ensemble is included only when
// withEnsemble is set.
func NewExportData(id string, res *estimator.Result, withEnsemble bool) (*ExportData, error) {
	data := &ExportData{
		ID:         id,
		Model:      res.Model,
		LogSpace:   res.LogSpace,
		Interval:   res.Interval,
		Iterations: len(res.Ensemble),
		Metrics:    res.Metrics,
	}
	for i, name := range res.ParamNames {
		lo, hi, err := res.ParamInterval(name)
		if err != nil {
			return nil, err
		}
		data.Params = append(data.Params, ParamData{Name: name, Estimate: res.Params[i], Lower: lo, Upper: hi})
	}
	for _, c := range res.Curves {
		data.Curves = append(data.Curves, CurveData{
			Group: c.Group, Label: c.Label, Affinity: c.Affinity,
			X:   c.X,
			Fit: c.Fit, FitLower: c.FitLower, FitUpper: c.FitUpper,
			CytDimer: c.CytDimer, CytDimerLower: c.CytDimerLower, CytDimerUpper: c.CytDimerUpper,
			MemDimer: c.MemDimer, MemDimerLower: c.MemDimerLower, MemDimerUpper: c.MemDimerUpper,
		})
	}
	if withEnsemble {
		data.Ensemble = res.Ensemble
	}
	return data, nil
}

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, id string, res *estimator.Result, withEnsemble bool) error {
	data, err := NewExportData(id, res, withEnsemble)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
