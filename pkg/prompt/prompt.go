// Package prompt asks the operator for confirmation before expensive runs.
package prompt

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Confirmer asks a yes/no question
type Confirmer interface {
	Confirm(title, description string) (bool, error)
}

// Terminal asks on the controlling terminal with a huh confirm form
type Terminal struct{}

// Confirm shows the form. Aborting with ctrl+c counts as "no".
func (Terminal) Confirm(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes, continue").
				Negative("Cancel").
				Value(&ok),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// Fixed always gives the same answer. Used for --yes and for unattended runs.
type Fixed bool

// Confirm returns the fixed answer
func (f Fixed) Confirm(string, string) (bool, error) {
	return bool(f), nil
}

// Interactive reports whether stdin and stdout are both terminals
func Interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// For picks the confirmer for a run: a fixed yes when assumeYes is set, a fixed no
// when there is no terminal to ask on, otherwise the terminal form.
func For(assumeYes bool) Confirmer {
	switch {
	case assumeYes:
		return Fixed(true)
	case !Interactive():
		return Fixed(false)
	default:
		return Terminal{}
	}
}
