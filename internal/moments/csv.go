package moments

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Record pairs a segment ID with its descriptor set for labeled export.
type Record struct {
	ID  int
	Set Set
}

// WriteCSV writes one row per set with the ten descriptors in M1..M10 order,
// separated by ';'. Values are printed at single precision and no header is
// written.
func WriteCSV(w io.Writer, sets []Set) error {
	cw := newWriter(w)
	row := make([]string, Count)
	for _, s := range sets {
		for i, v := range s {
			row[i] = formatValue(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write moments row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLabeledCSV writes a header "id;M1;...;M10" followed by one row per
// record.
func WriteLabeledCSV(w io.Writer, records []Record) error {
	cw := newWriter(w)

	header := make([]string, 0, Count+1)
	header = append(header, "id")
	for _, d := range Descriptors() {
		header = append(header, d.String())
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write moments header: %w", err)
	}

	row := make([]string, Count+1)
	for _, r := range records {
		row[0] = strconv.Itoa(r.ID)
		for i, v := range r.Set {
			row[i+1] = formatValue(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write moments row for segment %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return cw
}

// formatValue prints v with six significant digits at float32 precision.
func formatValue(v float64) string {
	return strconv.FormatFloat(float64(float32(v)), 'g', 6, 32)
}
