package frontend

import (
	"context"
	"fmt"
	"strings"
)

// Section is one of the four mutually exclusive UI sections.
type Section int

const (
	SectionLogin Section = iota
	SectionRegister
	SectionDashboard
	SectionHistory
)

func (s Section) String() string {
	switch s {
	case SectionLogin:
		return "login"
	case SectionRegister:
		return "register"
	case SectionDashboard:
		return "dashboard"
	case SectionHistory:
		return "history"
	}
	return "unknown"
}

func (a *App) show(s Section) {
	a.section = s
}

// authChanged is the only place the session is written.
func (a *App) authChanged(user *SessionUser) {
	a.epoch++
	a.toggles = make(map[toggleKey][]Section)
	if user == nil {
		a.session = Session{epoch: a.epoch}
		a.dashboard = dashboardState{}
		a.history.clear()
		a.show(SectionLogin)
		return
	}

	u := *user
	a.session = Session{User: &u, epoch: a.epoch}
	a.show(SectionDashboard)
	a.loadDashboard()
}

func (a *App) navigateDashboard() {
	if !a.session.SignedIn() {
		return
	}
	a.show(SectionDashboard)
	a.loadDashboard()
}

func (a *App) navigateHistory(days int) {
	if !a.session.SignedIn() {
		a.showBanner(SectionHistory, BannerError, "Please log in to view history.")
		return
	}
	a.show(SectionHistory)
	if days == 0 {
		days = a.history.days
	}
	a.loadHistory(days)
}

func (a *App) login(email, password string) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		a.showError(SectionLogin, &ValidationError{Message: "Please enter both email and password."})
		return
	}
	a.spawn(func(ctx context.Context) Event {
		_, err := a.auth.SignIn(ctx, email, password)
		return loginDone{err: authErr(err)}
	})
}

func (a *App) register(email, password string) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		a.showError(SectionRegister, &ValidationError{Message: "Please enter both email and password."})
		return
	}
	if len(password) < MinPasswordLength {
		a.showError(SectionRegister, &ValidationError{Message: fmt.Sprintf("Password should be at least %d characters.", MinPasswordLength)})
		return
	}
	a.spawn(func(ctx context.Context) Event {
		_, err := a.auth.Register(ctx, email, password)
		return loginDone{register: true, err: authErr(err)}
	})
}

func (a *App) loginDone(e loginDone) {
	section, success := SectionLogin, "Logged in successfully!"
	if e.register {
		section, success = SectionRegister, "Registration successful! You are now logged in."
	}
	if e.err != nil {
		a.showError(section, e.err)
		return
	}
	a.showBanner(section, BannerSuccess, success)
}

func (a *App) logout() {
	if !a.session.SignedIn() {
		return
	}
	a.spawn(func(ctx context.Context) Event {
		return logoutDone{err: authErr(a.auth.SignOut(ctx))}
	})
}

func (a *App) logoutDone(e logoutDone) {
	if e.err != nil {
		a.showBanner(SectionDashboard, BannerError, "Logout error: "+e.err.Error())
		return
	}
	a.showBanner(SectionDashboard, BannerInfo, "Logged out successfully.")
}
