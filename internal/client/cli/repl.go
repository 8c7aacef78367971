// Package cli reads commands from the terminal and turns them into
// front-end events.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"namaz-tracker/internal/calendar"
	"namaz-tracker/internal/frontend"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

const helpText = `Commands:
  login [email]              sign in
  register [email]           create an account
  show-register, show-login  switch between the two forms
  dashboard                  today's prayers
  history [days]             the last 7, 14 or 30 days
  toggle <prayer>            flip one of today's prayers
  toggle <YYYY-MM-DD> <prayer>  flip a prayer on a history day
  logout
  exit | quit`

// poster is the part of the front-end the REPL drives.
type poster interface {
	Post(ev frontend.Event)
}

// RunREPL reads commands from in until EOF, exit or ctx is done. Commands
// are posted as events; their outcome shows up in the next render.
func RunREPL(ctx context.Context, p poster, in *bufio.Reader, w io.Writer) error {
	done := make(chan struct{})
	defer close(done)
	src := &ctxLines{ctx: ctx, lines: readLines(in, done)}

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := src.ReadString('\n')
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		parts := strings.Fields(line)
		if len(parts) > 0 {
			if quit := dispatch(p, parts, src, w); quit {
				return nil
			}
		}
		if eof {
			return nil
		}
	}
}

type lineResult struct {
	text string
	err  error
}

// readLines reads in on its own goroutine so a pending read never holds up
// cancellation. The goroutine exits after the first read error or once done
// is closed and its current read returns.
func readLines(in *bufio.Reader, done <-chan struct{}) <-chan lineResult {
	out := make(chan lineResult)
	go func() {
		defer close(out)
		for {
			text, err := in.ReadString('\n')
			select {
			case out <- lineResult{text: text, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// ctxLines hands out lines from readLines until ctx is done.
type ctxLines struct {
	ctx   context.Context
	lines <-chan lineResult
}

func (c *ctxLines) ReadString(byte) (string, error) {
	select {
	case <-c.ctx.Done():
		return "", c.ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

func dispatch(p poster, parts []string, in lineReader, w io.Writer) (quit bool) {
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "help":
		printlnFn(helpText)

	case "login", "register":
		email, password, err := credentials(args, in, w)
		if err != nil {
			printlnFn("Input error:", err)
			return false
		}
		if cmd == "login" {
			p.Post(frontend.LoginSubmitted{Email: email, Password: password})
		} else {
			p.Post(frontend.RegisterSubmitted{Email: email, Password: password})
		}

	case "show-register":
		p.Post(frontend.ShowRegister{})

	case "show-login":
		p.Post(frontend.ShowLogin{})

	case "logout":
		p.Post(frontend.LogoutRequested{})

	case "dashboard":
		p.Post(frontend.NavigateDashboard{})

	case "history":
		days := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				printlnFn("Usage: history [days]")
				return false
			}
			days = n
		}
		p.Post(frontend.NavigateHistory{Days: days})

	case "toggle":
		switch {
		case len(args) == 1:
			p.Post(frontend.ToggleToday{Prayer: args[0]})
		case len(args) == 2 && calendar.ValidKey(args[0]):
			p.Post(frontend.ToggleHistory{DateID: args[0], Prayer: args[1]})
		default:
			printlnFn("Usage: toggle <prayer> | toggle <YYYY-MM-DD> <prayer>")
		}

	case "exit", "quit":
		printlnFn("Bye!")
		return true

	default:
		printlnFn("Unknown command:", cmd)
	}
	return false
}

func credentials(args []string, in lineReader, w io.Writer) (email, password string, err error) {
	if len(args) > 0 {
		email = args[0]
	} else if email, err = GetSimpleText(in, "Email:", w); err != nil {
		return "", "", err
	}
	if password, err = GetPassword(w); err != nil {
		return "", "", err
	}
	return email, password, nil
}
