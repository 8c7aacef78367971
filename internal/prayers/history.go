package prayers

import (
	"time"

	"namaz-tracker/internal/calendar"
)

// OverFetchFactor is how many records per requested day the most-recent
// strategy asks the store for.
const OverFetchFactor = 2

// OverFetch returns the record limit used to cover a window of days when
// the store can only list the most recently modified records. It is a
// heuristic: bursts of edits on older days can push window days out of the
// batch, and those days then render as not done.
func OverFetch(days int) int {
	if days <= 0 {
		return 0
	}
	return days * OverFetchFactor
}

// Item is one toggle on a day card.
type Item struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// DayCard is one rendered day of the history window.
type DayCard struct {
	DateID string `json:"date"`
	Label  string `json:"label"`
	Items  []Item `json:"prayers"`
	Stored bool   `json:"stored"`
}

// Item returns the card's item named name.
func (c *DayCard) Item(name string) (*Item, bool) {
	for i := range c.Items {
		if c.Items[i].Name == name {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// History is a reconciled window, today first.
type History struct {
	Days  []DayCard `json:"days"`
	Empty bool      `json:"empty"`
}

// Card builds the card for day from rec, which may be nil.
func Card(set Set, day time.Time, rec *Record) DayCard {
	card := DayCard{
		DateID: calendar.RecordKey(day),
		Label:  calendar.FormatLabel(day),
		Items:  make([]Item, 0, set.Len()),
		Stored: rec != nil,
	}
	for _, name := range set.names {
		card.Items = append(card.Items, Item{Name: name, Title: Title(name), Done: rec.Done(name)})
	}
	return card
}

// Index maps records by their date key. Later duplicates win.
func Index(records []Record) map[string]Record {
	out := make(map[string]Record, len(records))
	for _, r := range records {
		out[r.DateID] = r
	}
	return out
}

// Reconcile lays the fetched records over the trailing window of days
// ending at today. Window days without a record become all-false cards;
// fetched records outside the window are ignored. Empty is set when no
// card in the window comes from a stored record.
func Reconcile(set Set, today time.Time, days int, fetched map[string]Record) History {
	window := calendar.Window(today, days)
	h := History{Days: make([]DayCard, 0, len(window)), Empty: true}

	for _, day := range window {
		var rec *Record
		if r, ok := fetched[calendar.RecordKey(day)]; ok {
			rec = &r
		}
		card := Card(set, day, rec)
		if card.Stored {
			h.Empty = false
		}
		h.Days = append(h.Days, card)
	}
	return h
}
