package features

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/i474232898/triage-trend/internal/common"
)

// Table is the merged training table: one row per date, columns in registry
// order, plus the target.
type Table struct {
	Columns []string
	Dates   []time.Time
	Rows    [][]float64
	Target  []float64
}

// NewTable flattens records through the registry.
func (r *Registry) NewTable(records []DailyRecord) *Table {
	t := &Table{Columns: r.Names()}
	for _, rec := range records {
		v := r.Vector(rec)
		t.Dates = append(t.Dates, rec.Date)
		t.Rows = append(t.Rows, v.Values)
		t.Target = append(t.Target, float64(rec.Occurrences))
	}
	return t
}

// Len is the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Row returns row i as a Vector.
func (t *Table) Row(i int) Vector {
	return Vector{Names: t.Columns, Values: t.Rows[i]}
}

// WriteCSV dumps the table with a leading Datum column and trailing target.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"Datum"}, t.Columns...)
	header = append(header, Target)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		rec := make([]string, 0, len(row)+2)
		rec = append(rec, common.DateKey(t.Dates[i]))
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		rec = append(rec, strconv.FormatFloat(t.Target[i], 'f', -1, 64))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
