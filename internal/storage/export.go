package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

type ExportData struct {
	Run    RunMetadata  `json:"run"`
	Times  []float64    `json:"times"`
	States [][]*float64 `json:"states"`
}

// ExportJSON writes a run as a single JSON document. Non-finite state values
// become null. Records are left out, see [diagnostics.WriteRecords].
func ExportJSON(w io.Writer, meta RunMetadata, states [][]float64, times []float64) error {
	data := ExportData{
		Run:    meta,
		Times:  times,
		States: make([][]*float64, len(states)),
	}
	for i, u := range states {
		data.States[i] = nullable(u)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes states with a leading time column, one row per step.
func ExportCSV(w io.Writer, states [][]float64, times []float64) error {
	if len(states) != len(times) {
		return fmt.Errorf("storage: %d times for %d states", len(times), len(states))
	}
	cw := csv.NewWriter(w)
	if len(states) > 0 {
		header := []string{statesTimeHeader}
		for i := range states[0] {
			header = append(header, fmt.Sprintf("u%d", i))
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	for i, u := range states {
		row := make([]string, 0, len(u)+1)
		row = append(row, strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, v := range u {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func nullable(u []float64) []*float64 {
	out := make([]*float64, len(u))
	for i := range u {
		if math.IsNaN(u[i]) || math.IsInf(u[i], 0) {
			continue
		}
		out[i] = &u[i]
	}
	return out
}
