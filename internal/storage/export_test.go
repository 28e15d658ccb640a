package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := RunMetadata{ID: "heat_1234", Equation: "heat"}
	states := [][]float64{{1, 2}, {math.NaN(), 3}}
	if err := ExportJSON(&buf, meta, states, []float64{0, 0.1}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got struct {
		Run    RunMetadata  `json:"run"`
		Times  []float64    `json:"times"`
		States [][]*float64 `json:"states"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Run.ID != "heat_1234" {
		t.Errorf("expected run id heat_1234, got %s", got.Run.ID)
	}
	if got.States[1][0] != nil {
		t.Error("expected NaN to export as null")
	}
	if *got.States[1][1] != 3 {
		t.Errorf("expected 3, got %v", *got.States[1][1])
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, [][]float64{{1, 2}, {0.5, 1.5}}, []float64{0, 0.1}); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	want := "time,u0,u1\n0,1,2\n0.1,0.5,1.5\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	if err := ExportCSV(&buf, [][]float64{{1}}, nil); err == nil {
		t.Error("expected error for mismatched times")
	}
}
