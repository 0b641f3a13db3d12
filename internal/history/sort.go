package history

import (
	"sort"
	"time"

	"bankroll/internal/models"
)

// SortKey names a sortable history column.
type SortKey string

const (
	SortChangedAt SortKey = "changed_at"
	SortDate      SortKey = "date"
	SortBuyIn     SortKey = "buy_in_bb"
	SortEnding    SortKey = "ending_bb"
	SortDelta     SortKey = "delta"
)

// Valid reports whether k is a known key.
func (k SortKey) Valid() bool {
	switch k {
	case SortChangedAt, SortDate, SortBuyIn, SortEnding, SortDelta:
		return true
	}
	return false
}

// SortDir is the sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// SortState is the caller-owned sort selection.
type SortState struct {
	Key SortKey `json:"key"`
	Dir SortDir `json:"dir"`
}

// DefaultSort orders by change time, newest first.
func DefaultSort() SortState {
	return SortState{Key: SortChangedAt, Dir: Desc}
}

// Toggle returns the state after a column header is selected: a new key
// starts ascending, the active key flips direction.
func (s SortState) Toggle(k SortKey) SortState {
	if s.Key != k {
		return SortState{Key: k, Dir: Asc}
	}
	if s.Dir == Asc {
		return SortState{Key: k, Dir: Desc}
	}
	return SortState{Key: k, Dir: Asc}
}

// Entry is a sorted record with its display rows.
type Entry struct {
	Record         models.HistoryRecord    `json:"record"`
	Rows           []Row                   `json:"rows"`
	Representative *models.BalanceSnapshot `json:"representative,omitempty"`
	SortValue      float64                 `json:"-"`
}

// Sort expands every record and orders them by s. For keys other than change
// time the value comes from the record's representative row; records without
// one sort as zero. Equal values keep their input order.
func Sort(records []models.HistoryRecord, s SortState) []Entry {
	entries := make([]Entry, len(records))
	for i := range records {
		rows := Expand(&records[i])
		rep := Representative(rows)
		entries[i] = Entry{
			Record:         records[i],
			Rows:           rows,
			Representative: rep,
			SortValue:      sortValue(&records[i], rep, s.Key),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if s.Dir == Asc {
			return entries[i].SortValue < entries[j].SortValue
		}
		return entries[i].SortValue > entries[j].SortValue
	})
	return entries
}

func sortValue(h *models.HistoryRecord, rep *models.BalanceSnapshot, key SortKey) float64 {
	if key == SortChangedAt {
		return float64(h.ChangedAt.UnixMilli())
	}
	if rep == nil {
		return 0
	}
	switch key {
	case SortDate:
		d, err := time.Parse(models.DateLayout, rep.Date)
		if err != nil {
			return 0
		}
		return float64(d.UnixMilli())
	case SortBuyIn:
		return rep.BuyInBB
	case SortEnding:
		return rep.EndingBB
	case SortDelta:
		return rep.Net()
	}
	return 0
}

// Apply filters then sorts.
func Apply(records []models.HistoryRecord, c Criteria, s SortState) []Entry {
	return Sort(Filter(records, c), s)
}
