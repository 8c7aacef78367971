package frontend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"namaz-tracker/internal/prayers"
)

// View is a snapshot of the UI state, safe to use off the event loop.
type View struct {
	Section    Section
	NavVisible bool
	User       *SessionUser
	Banners    map[Section]Banner

	Dashboard DashboardView
	History   HistoryView
}

type DashboardView struct {
	Label string
	Card  *prayers.DayCard
}

type HistoryView struct {
	Days    int
	Options []int
	Loaded  bool
	Empty   bool
	Cards   []prayers.DayCard
}

// View copies the current state. It must be called from the event loop.
func (a *App) View() View {
	v := View{
		Section:    a.section,
		NavVisible: a.session.SignedIn(),
		Banners:    make(map[Section]Banner, len(a.banners)),
		Dashboard:  DashboardView{Label: a.dashboard.label},
		History: HistoryView{
			Days:    a.history.days,
			Options: append([]int(nil), a.historyOptions...),
			Loaded:  a.history.loaded,
			Empty:   a.history.view.Empty,
		},
	}
	if a.session.User != nil {
		u := *a.session.User
		v.User = &u
	}
	for s, b := range a.banners {
		v.Banners[s] = b
	}
	if a.dashboard.card != nil {
		c := copyCard(*a.dashboard.card)
		v.Dashboard.Card = &c
	}
	if a.history.loaded {
		v.History.Cards = make([]prayers.DayCard, len(a.history.view.Days))
		for i, c := range a.history.view.Days {
			v.History.Cards[i] = copyCard(c)
		}
	}
	return v
}

func copyCard(c prayers.DayCard) prayers.DayCard {
	c.Items = append([]prayers.Item(nil), c.Items...)
	return c
}

// Render draws v as plain text.
func Render(v View) string {
	var b strings.Builder

	if v.NavVisible && v.User != nil {
		fmt.Fprintf(&b, "[%s]  dashboard | history | logout\n", v.User.Email)
	}
	fmt.Fprintf(&b, "== %s ==\n", strings.ToUpper(v.Section.String()))
	if banner, ok := v.Banners[v.Section]; ok {
		writeBanner(&b, banner)
	}

	switch v.Section {
	case SectionLogin:
		b.WriteString("login <email>    (or show-register)\n")
	case SectionRegister:
		b.WriteString("register <email>    (or show-login)\n")
	case SectionDashboard:
		renderDashboard(&b, v.Dashboard)
	case SectionHistory:
		renderHistory(&b, v.History)
	}

	// Messages left on hidden sections stay visible until they expire.
	var others []Section
	for s := range v.Banners {
		if s != v.Section {
			others = append(others, s)
		}
	}
	sort.Slice(others, func(i, j int) bool { return others[i] < others[j] })
	for _, s := range others {
		fmt.Fprintf(&b, "(%s) ", s)
		writeBanner(&b, v.Banners[s])
	}
	return b.String()
}

func writeBanner(b *strings.Builder, banner Banner) {
	fmt.Fprintf(b, "[%s] %s\n", banner.Kind, banner.Text)
}

func renderDashboard(b *strings.Builder, d DashboardView) {
	if d.Label != "" {
		fmt.Fprintf(b, "Today: %s\n", d.Label)
	}
	if d.Card == nil {
		b.WriteString("loading...\n")
		return
	}
	writeItems(b, d.Card.Items)
}

func renderHistory(b *strings.Builder, h HistoryView) {
	opts := make([]string, len(h.Options))
	for i, d := range h.Options {
		opts[i] = strconv.Itoa(d)
		if d == h.Days {
			opts[i] = "*" + opts[i]
		}
	}
	fmt.Fprintf(b, "Last %d days (options: %s)\n", h.Days, strings.Join(opts, ", "))
	if !h.Loaded {
		b.WriteString("loading...\n")
		return
	}
	if h.Empty {
		b.WriteString("No prayer records found for the selected period.\n")
	}
	for _, c := range h.Cards {
		fmt.Fprintf(b, "%s  %s\n", c.DateID, c.Label)
		writeItems(b, c.Items)
	}
}

func writeItems(b *strings.Builder, items []prayers.Item) {
	parts := make([]string, len(items))
	for i, it := range items {
		mark := "❌"
		if it.Done {
			mark = "✅"
		}
		parts[i] = it.Title + " " + mark
	}
	fmt.Fprintf(b, "  %s\n", strings.Join(parts, "  "))
}
