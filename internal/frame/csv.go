package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCSV loads a labeled frame from CSV with a header row.
// A column is Int64 when every value parses as an integer, Float64 otherwise.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("frame: empty csv")
		}
		return nil, fmt.Errorf("frame: read header: %w", err)
	}

	raw := make([][]string, len(header))
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame: read line %d: %w", line, err)
		}
		for j, s := range rec {
			raw[j] = append(raw[j], strings.TrimSpace(s))
		}
	}

	cols := make([]Column, len(header))
	for j, name := range header {
		col, err := parseColumn(strings.TrimSpace(name), raw[j])
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return New(cols...)
}

// ReadCSVFile loads a labeled frame from the CSV file at path.
func ReadCSVFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func parseColumn(name string, raw []string) (Column, error) {
	col := Column{Name: name, DType: Int64, Values: make([]float64, len(raw))}
	for i, s := range raw {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && col.DType == Int64 {
			col.Values[i] = float64(n)
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Column{}, fmt.Errorf("frame: column %q row %d: %q is not numeric", name, i+1, s)
		}
		col.DType = Float64
		col.Values[i] = v
	}
	return col, nil
}
