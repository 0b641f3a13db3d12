// Package history turns stored balance history records into display rows and
// filters and sorts them for the admin audit view.
package history

import "bankroll/internal/models"

// RowKind tags a display row.
type RowKind string

const (
	RowSingle RowKind = "single"
	RowBefore RowKind = "before"
	RowAfter  RowKind = "after"
)

// Row is one display line of a history record.
type Row struct {
	Kind RowKind                `json:"kind"`
	Body models.BalanceSnapshot `json:"body"`
}

// Expand returns the display rows of a record: one single row for create
// (the after snapshot) and delete (the before snapshot), and for update the
// after row followed by the before row. A missing half yields no row.
func Expand(h *models.HistoryRecord) []Row {
	det := h.ChangeDetails
	switch h.ChangeCategory {
	case models.ChangeCreate:
		if det.After != nil {
			return []Row{{Kind: RowSingle, Body: *det.After}}
		}
	case models.ChangeDelete:
		if det.Before != nil {
			return []Row{{Kind: RowSingle, Body: *det.Before}}
		}
	case models.ChangeUpdate:
		rows := make([]Row, 0, 2)
		if det.After != nil {
			rows = append(rows, Row{Kind: RowAfter, Body: *det.After})
		}
		if det.Before != nil {
			rows = append(rows, Row{Kind: RowBefore, Body: *det.Before})
		}
		return rows
	}
	return nil
}

// Representative picks the row used as a record's sort value: the after row,
// else the before row, else the first expanded row. It returns nil when the
// record expands to nothing.
func Representative(rows []Row) *models.BalanceSnapshot {
	for i := range rows {
		if rows[i].Kind == RowAfter {
			return &rows[i].Body
		}
	}
	for i := range rows {
		if rows[i].Kind == RowBefore {
			return &rows[i].Body
		}
	}
	if len(rows) > 0 {
		return &rows[0].Body
	}
	return nil
}
