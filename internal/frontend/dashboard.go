package frontend

import (
	"context"
	"fmt"
	"strings"

	"namaz-tracker/internal/calendar"
	"namaz-tracker/internal/models"
	"namaz-tracker/internal/prayers"
)

type dashboardState struct {
	label string
	card  *prayers.DayCard
}

func (a *App) loadDashboard() {
	if !a.session.SignedIn() {
		return
	}

	day := a.today()
	a.dashboard.label = calendar.FormatLabel(day)

	sess := a.session
	dateID := calendar.RecordKey(day)
	a.spawn(func(ctx context.Context) Event {
		rec, err := a.store.GetRecord(ctx, sess.User.ID, dateID)
		return dashboardLoaded{session: sess, day: day, record: rec, err: storeErr(err)}
	})
}

func (a *App) dashboardLoaded(e dashboardLoaded) {
	if !e.session.same(a.session) {
		return
	}
	if e.err != nil {
		a.showBanner(SectionDashboard, BannerError, "Error loading dashboard: "+e.err.Error())
		return
	}
	card := prayers.Card(a.set, e.day, e.record)
	a.dashboard.card = &card
	a.showBanner(SectionDashboard, BannerInfo, "Dashboard loaded successfully.")
}

type toggleTexts struct {
	loginRequired string
	failurePrefix string
	success       func(name, dateID string) string
}

var toggleMessages = map[Section]toggleTexts{
	SectionDashboard: {
		loginRequired: "Please log in to track prayers.",
		failurePrefix: "Error updating prayer: ",
		success: func(name, _ string) string {
			return prayers.Title(name) + " prayer status updated!"
		},
	},
	SectionHistory: {
		loginRequired: "Please log in to update records.",
		failurePrefix: "Error updating history prayer: ",
		success: func(name, dateID string) string {
			return fmt.Sprintf("%s for %s updated!", prayers.Title(name), dateID)
		},
	},
}

type toggleKey struct {
	dateID string
	name   string
}

// toggle flips one item of one day. The new value is computed from a fresh
// read of the stored record, never from what the control shows; the
// control is updated before the write and restored if the write fails.
// Toggles of the same item run one at a time, so the read for the next one
// sees the previous write.
func (a *App) toggle(section Section, dateID, name string) {
	msgs := toggleMessages[section]
	if !a.session.SignedIn() {
		a.showBanner(section, BannerError, msgs.loginRequired)
		return
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if !a.set.Has(name) {
		a.showBanner(section, BannerError, msgs.failurePrefix+(&ValidationError{Message: fmt.Sprintf("unknown prayer %q", name)}).Error())
		return
	}
	if section == SectionHistory && a.history.card(dateID) == nil {
		a.showBanner(section, BannerError, msgs.failurePrefix+(&ValidationError{Message: dateID + " is not in the loaded history"}).Error())
		return
	}

	key := toggleKey{dateID: dateID, name: name}
	if queued, busy := a.toggles[key]; busy {
		a.toggles[key] = append(queued, section)
		return
	}
	a.toggles[key] = nil
	a.readForToggle(section, key)
}

func (a *App) readForToggle(section Section, key toggleKey) {
	sess := a.session
	a.spawn(func(ctx context.Context) Event {
		rec, err := a.store.GetRecord(ctx, sess.User.ID, key.dateID)
		return toggleRead{session: sess, section: section, dateID: key.dateID, name: key.name, record: rec, err: storeErr(err)}
	})
}

// toggleDone starts the next queued toggle of key, if any.
func (a *App) toggleDone(key toggleKey) {
	queued := a.toggles[key]
	if len(queued) == 0 {
		delete(a.toggles, key)
		return
	}
	a.toggles[key] = queued[1:]
	a.readForToggle(queued[0], key)
}

func (a *App) toggleRead(e toggleRead) {
	if !e.session.same(a.session) {
		return
	}
	msgs := toggleMessages[e.section]
	if e.err != nil {
		a.showBanner(e.section, BannerError, msgs.failurePrefix+e.err.Error())
		a.toggleDone(toggleKey{dateID: e.dateID, name: e.name})
		return
	}

	value := !e.record.Done(e.name)
	var previous bool
	if item := a.control(e.section, e.dateID, e.name); item != nil {
		previous = item.Done
		item.Done = value
	}

	sess := e.session
	a.spawn(func(ctx context.Context) Event {
		err := a.store.SetPrayerField(ctx, sess.User.ID, e.dateID, e.name, value)
		return toggleWritten{
			session:  sess,
			section:  e.section,
			dateID:   e.dateID,
			name:     e.name,
			value:    value,
			previous: previous,
			err:      storeErr(err),
		}
	})
}

func (a *App) toggleWritten(e toggleWritten) {
	if !e.session.same(a.session) {
		return
	}
	defer a.toggleDone(toggleKey{dateID: e.dateID, name: e.name})

	msgs := toggleMessages[e.section]
	if e.err != nil {
		if item := a.control(e.section, e.dateID, e.name); item != nil {
			item.Done = e.previous
		}
		a.showBanner(e.section, BannerError, msgs.failurePrefix+e.err.Error())
		return
	}
	if e.section == SectionHistory {
		if card := a.history.card(e.dateID); card != nil {
			card.Stored = true
		}
	}
	a.showBanner(e.section, BannerSuccess, msgs.success(e.name, e.dateID))
}

// control returns the displayed toggle for name on dateID in section.
func (a *App) control(section Section, dateID, name string) *prayers.Item {
	var card *prayers.DayCard
	switch section {
	case SectionDashboard:
		if a.dashboard.card != nil && a.dashboard.card.DateID == dateID {
			card = a.dashboard.card
		}
	case SectionHistory:
		card = a.history.card(dateID)
	}
	if card == nil {
		return nil
	}
	item, ok := card.Item(name)
	if !ok {
		return nil
	}
	return item
}

// recordChanged mirrors a write made elsewhere onto the displayed controls.
func (a *App) recordChanged(ev models.SessionEvent) {
	if !a.session.SignedIn() || ev.Type != models.EventRecord || ev.Value == nil {
		return
	}
	for _, section := range []Section{SectionDashboard, SectionHistory} {
		if item := a.control(section, ev.Date, ev.Prayer); item != nil {
			item.Done = *ev.Value
		}
	}
}
