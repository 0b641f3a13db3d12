package history

import (
	"testing"
	"time"

	"bankroll/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func snap(uid, date string, buyIn, ending float64) models.BalanceSnapshot {
	return models.BalanceSnapshot{PlayerUID: uid, Date: date, Stakes: "1/3", BuyInBB: buyIn, EndingBB: ending}
}

func record(id int64, cat models.ChangeCategory, at time.Time, before, after *models.BalanceSnapshot) models.HistoryRecord {
	return models.HistoryRecord{
		HistoryID:      id,
		BalanceID:      id * 10,
		ChangedAt:      at,
		ChangeCategory: cat,
		ChangeDetails:  models.ChangeDetails{Before: before, After: after},
	}
}

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func TestExpand(t *testing.T) {
	after := snap("u1", "2024-05-01", 100, 150)
	before := snap("u1", "2024-05-01", 100, 120)

	t.Run("create_yields_single_after", func(t *testing.T) {
		h := record(1, models.ChangeCreate, day(1), nil, &after)
		rows := Expand(&h)
		require.Len(t, rows, 1)
		assert.Equal(t, RowSingle, rows[0].Kind)
		assert.Equal(t, 150.0, rows[0].Body.EndingBB)
	})

	t.Run("delete_yields_single_before", func(t *testing.T) {
		h := record(1, models.ChangeDelete, day(1), &before, nil)
		rows := Expand(&h)
		require.Len(t, rows, 1)
		assert.Equal(t, RowSingle, rows[0].Kind)
		assert.Equal(t, 120.0, rows[0].Body.EndingBB)
	})

	t.Run("update_yields_after_then_before", func(t *testing.T) {
		h := record(1, models.ChangeUpdate, day(1), &before, &after)
		rows := Expand(&h)
		require.Len(t, rows, 2)
		assert.Equal(t, RowAfter, rows[0].Kind)
		assert.Equal(t, RowBefore, rows[1].Kind)
	})

	t.Run("update_missing_half_yields_one_row", func(t *testing.T) {
		h := record(1, models.ChangeUpdate, day(1), &before, nil)
		rows := Expand(&h)
		require.Len(t, rows, 1)
		assert.Equal(t, RowBefore, rows[0].Kind)
	})

	t.Run("create_without_after_yields_nothing", func(t *testing.T) {
		h := record(1, models.ChangeCreate, day(1), nil, nil)
		assert.Empty(t, Expand(&h))
	})
}

func TestRepresentative(t *testing.T) {
	after := snap("u1", "2024-05-01", 100, 150)
	before := snap("u1", "2024-05-01", 100, 120)

	h := record(1, models.ChangeUpdate, day(1), &before, &after)
	rep := Representative(Expand(&h))
	require.NotNil(t, rep)
	assert.Equal(t, 150.0, rep.EndingBB)

	h = record(2, models.ChangeDelete, day(1), &before, nil)
	rep = Representative(Expand(&h))
	require.NotNil(t, rep)
	assert.Equal(t, 120.0, rep.EndingBB)

	assert.Nil(t, Representative(nil))
}

func TestCriteria_Match(t *testing.T) {
	created := snap("u1", "2024-05-03", 100, 150)
	h := record(7, models.ChangeCreate, time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC), nil, &created)

	t.Run("zero_criteria_matches_everything", func(t *testing.T) {
		c := Criteria{}
		assert.False(t, c.Active())
		assert.True(t, c.Match(&h))
	})

	t.Run("changed_end_is_inclusive_through_the_day", func(t *testing.T) {
		end := day(10)
		c := Criteria{ChangedEnd: &end}
		assert.True(t, c.Match(&h))

		end = day(9)
		c = Criteria{ChangedEnd: &end}
		assert.False(t, c.Match(&h))
	})

	t.Run("changed_start_excludes_earlier", func(t *testing.T) {
		start := day(11)
		c := Criteria{ChangedStart: &start}
		assert.False(t, c.Match(&h))

		start = day(10)
		c = Criteria{ChangedStart: &start}
		assert.True(t, c.Match(&h))
	})

	t.Run("balance_id_compares_as_string", func(t *testing.T) {
		assert.True(t, (&Criteria{BalanceID: "70"}).Match(&h))
		assert.False(t, (&Criteria{BalanceID: "7"}).Match(&h))
	})

	t.Run("category", func(t *testing.T) {
		assert.True(t, (&Criteria{Category: models.ChangeCreate}).Match(&h))
		assert.False(t, (&Criteria{Category: models.ChangeDelete}).Match(&h))
	})

	t.Run("row_fields_are_anded", func(t *testing.T) {
		c := Criteria{PlayerUID: "u1", Stakes: "1/", DeltaMin: ptr(50), Memo: ""}
		assert.True(t, c.HasRowCriteria())
		assert.True(t, c.Match(&h))

		c.DeltaMin = ptr(51)
		assert.False(t, c.Match(&h))
	})

	t.Run("date_range_compares_strings", func(t *testing.T) {
		assert.True(t, (&Criteria{DateStart: "2024-05-03", DateEnd: "2024-05-03"}).Match(&h))
		assert.False(t, (&Criteria{DateStart: "2024-05-04"}).Match(&h))
		assert.False(t, (&Criteria{DateEnd: "2024-05-02"}).Match(&h))
	})

	t.Run("memo_is_substring", func(t *testing.T) {
		withMemo := created
		withMemo.Memo = "late night session"
		r := record(8, models.ChangeCreate, day(1), nil, &withMemo)
		assert.True(t, (&Criteria{Memo: "night"}).Match(&r))
		assert.False(t, (&Criteria{Memo: "Night"}).Match(&r))
	})
}

func TestCriteria_MatchEitherSide(t *testing.T) {
	before := snap("u1", "2024-05-01", 100, 120)
	after := models.BalanceSnapshot{Date: "2024-05-01", Stakes: "1/3", BuyInBB: 100, EndingBB: 300}
	h := record(1, models.ChangeUpdate, day(2), &before, &after)

	// the before row matches on uid, the after row on ending
	assert.True(t, (&Criteria{PlayerUID: "u1"}).Match(&h))
	assert.True(t, (&Criteria{EndingMin: ptr(250)}).Match(&h))
	// no single row satisfies both
	assert.False(t, (&Criteria{PlayerUID: "u1", EndingMin: ptr(250)}).Match(&h))
}

func TestFilter_IsSubsetInOrder(t *testing.T) {
	a := snap("u1", "2024-05-01", 100, 150)
	b := snap("u2", "2024-05-02", 100, 50)
	records := []models.HistoryRecord{
		record(3, models.ChangeCreate, day(3), nil, &a),
		record(2, models.ChangeCreate, day(2), nil, &b),
		record(1, models.ChangeDelete, day(1), &a, nil),
	}

	got := Filter(records, Criteria{PlayerUID: "u1"})
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].HistoryID)
	assert.Equal(t, int64(1), got[1].HistoryID)

	assert.Len(t, Filter(records, Criteria{}), 3)
	assert.Empty(t, Filter(nil, Criteria{PlayerUID: "u1"}))
}

func TestSortState_Toggle(t *testing.T) {
	s := DefaultSort()
	assert.Equal(t, SortState{Key: SortChangedAt, Dir: Desc}, s)

	s = s.Toggle(SortDelta)
	assert.Equal(t, SortState{Key: SortDelta, Dir: Asc}, s)

	s = s.Toggle(SortDelta)
	assert.Equal(t, SortState{Key: SortDelta, Dir: Desc}, s)

	s = s.Toggle(SortDelta)
	assert.Equal(t, SortState{Key: SortDelta, Dir: Asc}, s)

	s = s.Toggle(SortDate)
	assert.Equal(t, SortState{Key: SortDate, Dir: Asc}, s)
}

func TestSort(t *testing.T) {
	small := snap("u1", "2024-05-03", 100, 110)
	big := snap("u2", "2024-05-01", 100, 300)
	loss := snap("u3", "2024-05-02", 200, 50)
	records := []models.HistoryRecord{
		record(1, models.ChangeCreate, day(1), nil, &small),
		record(2, models.ChangeCreate, day(3), nil, &big),
		record(3, models.ChangeDelete, day(2), &loss, nil),
	}

	ids := func(entries []Entry) []int64 {
		out := make([]int64, len(entries))
		for i, e := range entries {
			out[i] = e.Record.HistoryID
		}
		return out
	}

	assert.Equal(t, []int64{2, 3, 1}, ids(Sort(records, DefaultSort())))
	assert.Equal(t, []int64{3, 1, 2}, ids(Sort(records, SortState{Key: SortDelta, Dir: Asc})))
	assert.Equal(t, []int64{3, 1, 2}, ids(Sort(records, SortState{Key: SortBuyIn, Dir: Desc})))
	assert.Equal(t, []int64{2, 3, 1}, ids(Sort(records, SortState{Key: SortDate, Dir: Asc})))
	assert.Equal(t, []int64{2, 1, 3}, ids(Sort(records, SortState{Key: SortEnding, Dir: Desc})))
}

func TestSort_UsesAfterRowOfUpdates(t *testing.T) {
	before := snap("u1", "2024-05-01", 100, 500)
	after := models.BalanceSnapshot{Date: "2024-05-01", BuyInBB: 100, EndingBB: 90}
	other := snap("u2", "2024-05-01", 100, 200)
	records := []models.HistoryRecord{
		record(1, models.ChangeUpdate, day(1), &before, &after),
		record(2, models.ChangeCreate, day(2), nil, &other),
	}

	entries := Sort(records, SortState{Key: SortEnding, Dir: Desc})
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].Record.HistoryID)
	assert.Len(t, entries[1].Rows, 2)
	assert.Equal(t, 90.0, entries[1].Representative.EndingBB)
}

func TestSort_UnparseableDateSortsAsZero(t *testing.T) {
	bad := snap("u1", "not-a-date", 0, 0)
	good := snap("u2", "2024-05-01", 0, 0)
	records := []models.HistoryRecord{
		record(1, models.ChangeCreate, day(1), nil, &good),
		record(2, models.ChangeCreate, day(2), nil, &bad),
	}

	entries := Sort(records, SortState{Key: SortDate, Dir: Asc})
	assert.Equal(t, int64(2), entries[0].Record.HistoryID)
}

func TestSort_IsPermutation(t *testing.T) {
	a := snap("u1", "2024-05-01", 10, 10)
	records := []models.HistoryRecord{
		record(1, models.ChangeCreate, day(1), nil, &a),
		record(2, models.ChangeCreate, day(1), nil, &a),
		record(3, models.ChangeCreate, day(1), nil, &a),
	}

	for _, key := range []SortKey{SortChangedAt, SortDate, SortBuyIn, SortEnding, SortDelta} {
		entries := Sort(records, SortState{Key: key, Dir: Desc})
		require.Len(t, entries, 3)
		// equal values keep input order
		assert.Equal(t, int64(1), entries[0].Record.HistoryID, string(key))
		assert.Equal(t, int64(3), entries[2].Record.HistoryID, string(key))
	}
}
