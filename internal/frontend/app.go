// Package frontend is the terminal front-end of the tracker. A single
// event loop owns every piece of UI state: the visible section, the
// banners, the dashboard card and the history cards. Commands,
// auth-change notifications and network results all arrive as events;
// network calls run as tasks off the loop and report back as events.
package frontend

import (
	"context"
	"time"

	"namaz-tracker/internal/calendar"
	"namaz-tracker/internal/prayers"
)

const (
	// MinPasswordLength is checked locally before registering.
	MinPasswordLength = 6

	HistoryQueryRange  = "range"
	HistoryQueryRecent = "recent"

	eventBuffer = 64
)

type Options struct {
	Store RecordStore
	Auth  AuthProvider

	Prayers  prayers.Set
	Location *time.Location

	HistoryDays    int
	HistoryOptions []int
	HistoryQuery   string

	BannerTTL      time.Duration
	RequestTimeout time.Duration

	// OnRender is called from the event loop after every handled event.
	OnRender func(View)
}

type App struct {
	store    RecordStore
	auth     AuthProvider
	set      prayers.Set
	loc      *time.Location
	onRender func(View)

	bannerTTL      time.Duration
	requestTimeout time.Duration
	historyQuery   string
	historyOptions []int

	events chan Event
	done   chan struct{}
	ctx    context.Context

	// seams
	now       func() time.Time
	runner    func(task func() Event)
	afterFunc func(d time.Duration, f func())

	// state below is owned by the event loop
	session   Session
	epoch     uint64
	section   Section
	banners   map[Section]Banner
	bannerSeq uint64
	dashboard dashboardState
	history   historyState
	toggles   map[toggleKey][]Section
}

func New(opts Options) *App {
	a := &App{
		store:          opts.Store,
		auth:           opts.Auth,
		set:            opts.Prayers,
		loc:            opts.Location,
		onRender:       opts.OnRender,
		bannerTTL:      opts.BannerTTL,
		requestTimeout: opts.RequestTimeout,
		historyQuery:   opts.HistoryQuery,
		historyOptions: append([]int(nil), opts.HistoryOptions...),
		events:         make(chan Event, eventBuffer),
		done:           make(chan struct{}),
		ctx:            context.Background(),
		now:            time.Now,
		section:        SectionLogin,
		banners:        make(map[Section]Banner),
		toggles:        make(map[toggleKey][]Section),
	}
	if a.set.Len() == 0 {
		a.set = prayers.Default()
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.bannerTTL <= 0 {
		a.bannerTTL = 5 * time.Second
	}
	if a.requestTimeout <= 0 {
		a.requestTimeout = 10 * time.Second
	}
	if a.historyQuery != HistoryQueryRecent {
		a.historyQuery = HistoryQueryRange
	}
	if len(a.historyOptions) == 0 {
		a.historyOptions = []int{7, 14, 30}
	}
	a.history.days = opts.HistoryDays
	if !a.validHistoryDays(a.history.days) {
		a.history.days = a.historyOptions[0]
	}

	a.runner = func(task func() Event) {
		go func() { a.Post(task()) }()
	}
	a.afterFunc = func(d time.Duration, f func()) {
		time.AfterFunc(d, f)
	}
	return a
}

// Post queues ev for the event loop. It is safe from any goroutine and
// returns without delivering once the loop has stopped.
func (a *App) Post(ev Event) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}

// AuthChanged is the auth-change listener to register with the provider.
func (a *App) AuthChanged(user *SessionUser) {
	a.Post(AuthChanged{User: user})
}

// Run drives the event loop until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	defer close(a.done)

	a.render()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-a.events:
			a.handle(ev)
		}
	}
}

// Drain handles queued events until none are left. It stands in for Run
// when the caller drives the loop itself.
func (a *App) Drain() {
	for {
		select {
		case ev := <-a.events:
			a.handle(ev)
		default:
			return
		}
	}
}

func (a *App) handle(ev Event) {
	switch e := ev.(type) {
	case LoginSubmitted:
		a.login(e.Email, e.Password)
	case RegisterSubmitted:
		a.register(e.Email, e.Password)
	case LogoutRequested:
		a.logout()
	case ShowRegister:
		a.show(SectionRegister)
		a.clearBanner(SectionLogin)
	case ShowLogin:
		a.show(SectionLogin)
		a.clearBanner(SectionRegister)
	case NavigateDashboard:
		a.navigateDashboard()
	case NavigateHistory:
		a.navigateHistory(e.Days)
	case ToggleToday:
		a.toggle(SectionDashboard, calendar.RecordKey(a.today()), e.Prayer)
	case ToggleHistory:
		a.toggle(SectionHistory, e.DateID, e.Prayer)
	case AuthChanged:
		a.authChanged(e.User)
	case RecordChanged:
		a.recordChanged(e.Event)

	case loginDone:
		a.loginDone(e)
	case logoutDone:
		a.logoutDone(e)
	case dashboardLoaded:
		a.dashboardLoaded(e)
	case historyLoaded:
		a.historyLoaded(e)
	case toggleRead:
		a.toggleRead(e)
	case toggleWritten:
		a.toggleWritten(e)
	case bannerExpired:
		a.bannerExpired(e)
	}
	a.render()
}

// spawn runs task off the loop; its result comes back as an event.
func (a *App) spawn(task func(ctx context.Context) Event) {
	parent, timeout := a.ctx, a.requestTimeout
	a.runner(func() Event {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		return task(ctx)
	})
}

func (a *App) today() time.Time {
	return calendar.Today(a.now(), a.loc)
}

func (a *App) render() {
	if a.onRender != nil {
		a.onRender(a.View())
	}
}
