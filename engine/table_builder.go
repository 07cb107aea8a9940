package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a RecordView
// ============================================================================
// Column discovery uses view.DimensionKeys() then view.MeasureKeys(), so the
// table follows whatever the dataset adapter registered.
// ============================================================================

// MissingCell is rendered for measures with no value.
const MissingCell = "NA"

// BuildTable lists every row of view, dimensions first, then measures.
// With WithRowNumbers the first column is the 1-based source row.
func BuildTable(view RecordView, opts ...Option) *TableData {
	cfg := applyOptions(opts)

	dimKeys := view.DimensionKeys()
	mesKeys := view.MeasureKeys()
	columns := make([]Column, 0, len(dimKeys)+len(mesKeys)+1)

	if cfg.RowNumbers {
		columns = append(columns, Column{Key: "row", Label: "#", Type: "number", Align: "right"})
	}
	for _, key := range dimKeys {
		columns = append(columns, Column{
			Key:   key,
			Label: cfg.Label(key),
			Type:  "text",
			Align: "left",
		})
	}
	for _, key := range mesKeys {
		columns = append(columns, Column{
			Key:   key,
			Label: cfg.Label(key),
			Type:  "number",
			Align: "right",
		})
	}

	var sources []int
	if cfg.RowNumbers {
		sources = SourceIndices(view)
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(columns))
		if cfg.RowNumbers {
			row = append(row, strconv.Itoa(sources[i]+1))
		}
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		for _, key := range mesKeys {
			if v, ok := view.Measure(i, key); ok {
				row = append(row, FormatValue(v))
			} else {
				row = append(row, MissingCell)
			}
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   cfg.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("Total (%d rows)", view.Len()),
			Values: map[string]string{
				"rows": strconv.Itoa(view.Len()),
			},
		},
	}
}
