package marketdata

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ta-enginev1/internal/series"
)

// LoadFile reads bar records from a CSV or JSON file, dispatching on the
// file extension.
func LoadFile(path string) ([]series.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("%s: unsupported file type (want .csv or .json)", path)
	}
}

// LoadCSV reads a CSV file with a header row into raw records. Numeric cells
// become float64, everything else stays a string; the series validator does
// the field-name resolution.
func LoadCSV(path string) ([]series.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: reading csv header: %w", path, err)
	}

	var recs []series.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: reading csv row: %w", path, err)
		}
		rec := make(series.Record, len(header))
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			if v, perr := strconv.ParseFloat(strings.TrimSpace(cell), 64); perr == nil {
				rec[header[i]] = v
			} else {
				rec[header[i]] = cell
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// LoadJSON reads a JSON file holding an array of bar objects into raw
// records.
func LoadJSON(path string) ([]series.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var recs []series.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%s: want a JSON array of bar objects: %w", path, err)
	}
	return recs, nil
}
