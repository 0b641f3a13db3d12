package history

import (
	"strconv"
	"strings"
	"time"

	"bankroll/internal/models"
)

// Criteria is the admin history filter. Zero-valued fields match everything.
// Record-level fields (changed range, balance id, category) are checked
// against the record itself; the rest are row-level and checked against the
// before and after snapshots.
type Criteria struct {
	// ChangedStart and ChangedEnd are calendar days. The end is inclusive
	// through the end of that day.
	ChangedStart *time.Time
	ChangedEnd   *time.Time
	BalanceID    string
	Category     models.ChangeCategory

	PlayerUID string
	DateStart string
	DateEnd   string
	Stakes    string
	BuyInMin  *float64
	BuyInMax  *float64
	EndingMin *float64
	EndingMax *float64
	DeltaMin  *float64
	DeltaMax  *float64
	Memo      string
}

// HasRowCriteria reports whether any row-level field is set.
func (c *Criteria) HasRowCriteria() bool {
	return c.PlayerUID != "" ||
		c.DateStart != "" ||
		c.DateEnd != "" ||
		c.Stakes != "" ||
		c.BuyInMin != nil ||
		c.BuyInMax != nil ||
		c.EndingMin != nil ||
		c.EndingMax != nil ||
		c.DeltaMin != nil ||
		c.DeltaMax != nil ||
		c.Memo != ""
}

// Active reports whether any field is set at all.
func (c *Criteria) Active() bool {
	return c.ChangedStart != nil ||
		c.ChangedEnd != nil ||
		c.BalanceID != "" ||
		c.Category != "" ||
		c.HasRowCriteria()
}

// Match reports whether a record passes the filter. Row-level fields are
// ANDed within one snapshot, and the record passes if either its before or
// its after snapshot satisfies all of them.
func (c *Criteria) Match(h *models.HistoryRecord) bool {
	if c.ChangedStart != nil && h.ChangedAt.Before(*c.ChangedStart) {
		return false
	}
	if c.ChangedEnd != nil && !h.ChangedAt.Before(c.ChangedEnd.AddDate(0, 0, 1)) {
		return false
	}
	if c.BalanceID != "" && strconv.FormatInt(h.BalanceID, 10) != c.BalanceID {
		return false
	}
	if c.Category != "" && h.ChangeCategory != c.Category {
		return false
	}
	if !c.HasRowCriteria() {
		return true
	}
	return c.MatchRow(h.ChangeDetails.Before) || c.MatchRow(h.ChangeDetails.After)
}

// MatchRow applies the row-level fields to one snapshot. A nil snapshot
// never matches.
func (c *Criteria) MatchRow(b *models.BalanceSnapshot) bool {
	if b == nil {
		return false
	}
	if c.PlayerUID != "" && b.PlayerUID != c.PlayerUID {
		return false
	}
	if c.DateStart != "" && b.Date < c.DateStart {
		return false
	}
	if c.DateEnd != "" && b.Date > c.DateEnd {
		return false
	}
	if c.Stakes != "" && !strings.Contains(b.Stakes, c.Stakes) {
		return false
	}
	if !inRange(b.BuyInBB, c.BuyInMin, c.BuyInMax) {
		return false
	}
	if !inRange(b.EndingBB, c.EndingMin, c.EndingMax) {
		return false
	}
	if !inRange(b.Net(), c.DeltaMin, c.DeltaMax) {
		return false
	}
	if c.Memo != "" && !strings.Contains(b.Memo, c.Memo) {
		return false
	}
	return true
}

func inRange(v float64, lo, hi *float64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

// Filter returns the records that match c, preserving order.
func Filter(records []models.HistoryRecord, c Criteria) []models.HistoryRecord {
	out := make([]models.HistoryRecord, 0, len(records))
	for i := range records {
		if c.Match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
