package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// isInteractiveTTY reports whether prompts can be shown.
func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// promptConfirm asks a yes/no question. Without a terminal the answer is
// no; aborting the prompt also counts as no.
func promptConfirm(ctx context.Context, prompt string) (bool, error) {
	if !isInteractiveTTY() {
		_, _ = fmt.Fprintf(stderr, "%s\nNo terminal to confirm on; pass --assume-yes to approve.\n", prompt)
		return false, nil
	}

	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	))
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
