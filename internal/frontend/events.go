package frontend

import (
	"time"

	"namaz-tracker/internal/models"
	"namaz-tracker/internal/prayers"
)

// Event is anything the event loop reacts to: a user command, an
// auth-change notification or the result of a network task.
type Event interface {
	event()
}

// User commands.
type (
	LoginSubmitted struct {
		Email    string
		Password string
	}
	RegisterSubmitted struct {
		Email    string
		Password string
	}
	LogoutRequested   struct{}
	ShowRegister      struct{}
	ShowLogin         struct{}
	NavigateDashboard struct{}
	// NavigateHistory opens the history view. Days of zero keeps the
	// current selection.
	NavigateHistory struct {
		Days int
	}
	ToggleToday struct {
		Prayer string
	}
	ToggleHistory struct {
		DateID string
		Prayer string
	}
)

// Notifications.
type (
	// AuthChanged carries the new user, or nil after sign-out.
	AuthChanged struct {
		User *SessionUser
	}
	// RecordChanged is a write made by another client of the same user.
	RecordChanged struct {
		Event models.SessionEvent
	}
)

// Task results and timers.
type (
	loginDone struct {
		register bool
		err      error
	}
	logoutDone struct {
		err error
	}
	dashboardLoaded struct {
		session Session
		day     time.Time
		record  *prayers.Record
		err     error
	}
	historyLoaded struct {
		session Session
		today   time.Time
		days    int
		records []prayers.Record
		err     error
	}
	toggleRead struct {
		session Session
		section Section
		dateID  string
		name    string
		record  *prayers.Record
		err     error
	}
	toggleWritten struct {
		session  Session
		section  Section
		dateID   string
		name     string
		value    bool
		previous bool
		err      error
	}
	bannerExpired struct {
		section Section
		seq     uint64
	}
)

func (LoginSubmitted) event()    {}
func (RegisterSubmitted) event() {}
func (LogoutRequested) event()   {}
func (ShowRegister) event()      {}
func (ShowLogin) event()         {}
func (NavigateDashboard) event() {}
func (NavigateHistory) event()   {}
func (ToggleToday) event()       {}
func (ToggleHistory) event()     {}
func (AuthChanged) event()       {}
func (RecordChanged) event()     {}
func (loginDone) event()         {}
func (logoutDone) event()        {}
func (dashboardLoaded) event()   {}
func (historyLoaded) event()     {}
func (toggleRead) event()        {}
func (toggleWritten) event()     {}
func (bannerExpired) event()     {}
