// Package view holds the client-side state of the user list and its submit protocol.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/roster/roster/internal/client"
	"github.com/roster/roster/internal/model"
	"github.com/roster/roster/internal/web"
)

// Text shown by the view.
const (
	MsgEmptyName    = "Please enter a name"
	MsgEmptyList    = "No users yet. Add one above!"
	LabelIdle       = "Add User"
	LabelSubmitting = "Adding..."
)

// KeyEnter is the key that submits the form.
const KeyEnter = "Enter"

// Adder sends a name to the server and returns the authoritative list.
type Adder interface {
	AddUser(ctx context.Context, name string) ([]model.User, error)
}

// State is a point-in-time copy of the view.
type State struct {
	Users          []model.User
	NameInput      string
	IsSubmitting   bool
	ErrorMessage   string
	ButtonLabel    string
	ButtonDisabled bool
}

// Option configures a ListView.
type Option func(*ListView)

// WithLocation sets the zone used to display creation times.
func WithLocation(loc *time.Location) Option {
	return func(v *ListView) {
		if loc != nil {
			v.loc = loc
		}
	}
}

// ListView is the user list state container. It is safe for concurrent use.
type ListView struct {
	adder Adder
	loc   *time.Location

	mu           sync.Mutex
	users        []model.User
	nameInput    string
	isSubmitting bool
	errorMessage string
}

// New creates a view showing initial.
func New(adder Adder, initial []model.User, opts ...Option) *ListView {
	v := &ListView{
		adder: adder,
		loc:   time.Local,
		users: normalize(initial),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetInput replaces the current form value.
func (v *ListView) SetInput(value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nameInput = value
}

// KeyPress handles a key typed into the input. Enter submits, so a blank
// input reports MsgEmptyName; Submit ignores it while a request is in flight.
func (v *ListView) KeyPress(ctx context.Context, key string) {
	if key != KeyEnter {
		return
	}
	v.Submit(ctx)
}

// Submit sends the trimmed input to the server.
// On success the list is replaced by the server's and the input cleared;
// on failure the list is kept and ErrorMessage set. A submit while one is
// in flight is ignored.
func (v *ListView) Submit(ctx context.Context) {
	v.mu.Lock()
	if v.isSubmitting {
		v.mu.Unlock()
		return
	}
	name := model.NormalizeName(v.nameInput)
	if name == "" {
		v.errorMessage = MsgEmptyName
		v.mu.Unlock()
		return
	}
	v.isSubmitting = true
	v.errorMessage = ""
	v.mu.Unlock()

	users, err := v.add(ctx, name)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.isSubmitting = false
	if err != nil {
		v.errorMessage = errorMessage(err)
		return
	}
	v.users = normalize(users)
	v.nameInput = ""
}

// add calls the Adder, converting a panic into an error so the view survives it.
func (v *ListView) add(ctx context.Context, name string) (users []model.User, err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("add user: %v", rvr)
		}
	}()
	if v.adder == nil {
		return nil, errors.New(client.FallbackMessage)
	}
	return v.adder.AddUser(ctx, name)
}

// Snapshot returns a copy of the current state.
func (v *ListView) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	label := LabelIdle
	if v.isSubmitting {
		label = LabelSubmitting
	}
	return State{
		Users:          append([]model.User(nil), v.users...),
		NameInput:      v.nameInput,
		IsSubmitting:   v.isSubmitting,
		ErrorMessage:   v.errorMessage,
		ButtonLabel:    label,
		ButtonDisabled: v.buttonDisabled(),
	}
}

// Render writes a text rendering of the view.
func (v *ListView) Render(w io.Writer) error {
	s := v.Snapshot()

	var b strings.Builder
	button := "[" + s.ButtonLabel + "]"
	if s.ButtonDisabled {
		button = "(" + s.ButtonLabel + ")"
	}
	fmt.Fprintf(&b, "Name: %q %s\n", s.NameInput, button)
	if s.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error: %s\n", s.ErrorMessage)
	}
	if len(s.Users) == 0 {
		b.WriteString(MsgEmptyList + "\n")
	}
	for _, u := range s.Users {
		if u.HasCreated() {
			fmt.Fprintf(&b, "- %s  Created: %s\n", u.Name, u.CreatedAt().In(v.loc).Format(web.CreatedLayout))
			continue
		}
		fmt.Fprintf(&b, "- %s\n", u.Name)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// buttonDisabled must be called with mu held.
func (v *ListView) buttonDisabled() bool {
	return v.isSubmitting || model.NormalizeName(v.nameInput) == ""
}

// errorMessage converts a submit failure into display text.
func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return client.FallbackMessage
}

// normalize copies users, dropping timestamps that cannot be creation times.
func normalize(users []model.User) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if !u.HasCreated() {
			u.Created = 0
		}
		out = append(out, u)
	}
	return out
}
