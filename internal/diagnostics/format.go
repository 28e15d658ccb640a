package diagnostics

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var ErrUnknownFormat = errors.New("diagnostics: unknown format")

func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Write serializes the tracker's records.
func (tr *Tracker) Write(w io.Writer, format Format) error {
	return WriteRecords(w, format, tr.track, tr.records)
}

// WriteRecords serializes records with the given column order. Only the CSV
// format uses columns; nil derives them from the records.
func WriteRecords(w io.Writer, format Format, columns []string, records []Record) error {
	switch format {
	case FormatCSV:
		if columns == nil {
			columns = columnsOf(records)
		}
		return writeCSV(w, columns, records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonRecords(records))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeCSV(w io.Writer, columns []string, records []Record) error {
	cw := csv.NewWriter(w)
	header := append([]string{"step", "time"}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range records {
		row[0] = strconv.Itoa(r.Step)
		row[1] = strconv.FormatFloat(r.Time, 'g', -1, 64)
		for i, name := range columns {
			v, ok := r.Values[name]
			if !ok {
				row[i+2] = ""
				continue
			}
			row[i+2] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses records written with FormatCSV.
func ReadCSV(r io.Reader) (columns []string, records []Record, err error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	header := rows[0]
	if len(header) < 2 || header[0] != "step" || header[1] != "time" {
		return nil, nil, fmt.Errorf("diagnostics: unexpected csv header %v", header)
	}
	columns = header[2:]

	records = make([]Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		step, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, nil, fmt.Errorf("diagnostics: row %d: %w", n+1, err)
		}
		t, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("diagnostics: row %d: %w", n+1, err)
		}
		values := make(map[string]float64, len(columns))
		for i, name := range columns {
			if row[i+2] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[i+2], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("diagnostics: row %d, %s: %w", n+1, name, err)
			}
			values[name] = v
		}
		records = append(records, Record{Step: step, Time: t, Values: values})
	}
	return columns, records, nil
}

func columnsOf(records []Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, name := range All() {
		for _, r := range records {
			if _, ok := r.Values[name]; ok {
				cols = append(cols, name)
				seen[name] = true
				break
			}
		}
	}
	var extra []string
	for _, r := range records {
		for name := range r.Values {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// jsonRecord uses pointers so non-finite values, which encoding/json
// rejects, are written as null.
type jsonRecord struct {
	Step   int                 `json:"step"`
	Time   float64             `json:"time"`
	Values map[string]*float64 `json:"values"`
}

func jsonRecords(records []Record) []jsonRecord {
	out := make([]jsonRecord, len(records))
	for i, r := range records {
		values := make(map[string]*float64, len(r.Values))
		for k, v := range r.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				values[k] = nil
				continue
			}
			v := v
			values[k] = &v
		}
		out[i] = jsonRecord{Step: r.Step, Time: r.Time, Values: values}
	}
	return out
}
