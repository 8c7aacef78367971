package frontend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"namaz-tracker/internal/calendar"
	"namaz-tracker/internal/prayers"
)

type historyState struct {
	days   int
	loaded bool
	view   prayers.History
}

// clear drops the loaded cards but keeps the day selection.
func (h *historyState) clear() {
	h.loaded = false
	h.view = prayers.History{}
}

func (h *historyState) card(dateID string) *prayers.DayCard {
	for i := range h.view.Days {
		if h.view.Days[i].DateID == dateID {
			return &h.view.Days[i]
		}
	}
	return nil
}

func (a *App) validHistoryDays(days int) bool {
	for _, d := range a.historyOptions {
		if d == days {
			return true
		}
	}
	return false
}

func (a *App) loadHistory(days int) {
	if !a.validHistoryDays(days) {
		opts := make([]string, len(a.historyOptions))
		for i, d := range a.historyOptions {
			opts[i] = strconv.Itoa(d)
		}
		a.showBanner(SectionHistory, BannerError,
			fmt.Sprintf("Error loading history: choose one of %s days", strings.Join(opts, ", ")))
		return
	}
	a.history.days = days

	today := a.today()
	sess := a.session
	query := a.historyQuery
	a.spawn(func(ctx context.Context) Event {
		var (
			records []prayers.Record
			err     error
		)
		if query == HistoryQueryRecent {
			records, err = a.store.ListRecords(ctx, sess.User.ID, prayers.OverFetch(days))
		} else {
			from := calendar.RecordKey(calendar.DaysBack(today, days-1))
			records, err = a.store.ListRange(ctx, sess.User.ID, from, calendar.RecordKey(today))
		}
		return historyLoaded{session: sess, today: today, days: days, records: records, err: storeErr(err)}
	})
}

func (a *App) historyLoaded(e historyLoaded) {
	if !e.session.same(a.session) || e.days != a.history.days {
		return
	}
	if e.err != nil {
		a.showBanner(SectionHistory, BannerError, "Error loading history: "+e.err.Error())
		return
	}

	a.history.view = prayers.Reconcile(a.set, e.today, e.days, prayers.Index(e.records))
	a.history.loaded = true

	if a.history.view.Empty {
		a.showBanner(SectionHistory, BannerInfo, "No prayer records found for the selected period.")
		return
	}
	a.showBanner(SectionHistory, BannerSuccess, fmt.Sprintf("History for last %d days loaded.", e.days))
}
