// Package prompt asks for hunt settings on an interactive terminal.
package prompt

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/panbanda/deadhunt/pkg/hunt"
)

// ErrCancelled is returned when the user aborts the form.
var ErrCancelled = errors.New("prompt cancelled")

// DefaultDir is offered as the directory to scan.
const DefaultDir = "./src"

// Answers holds what the user chose.
type Answers struct {
	Dir        string
	Categories hunt.CategorySet
}

// categoryLabels describes each category in the multi-select.
var categoryLabels = map[hunt.Category]string{
	hunt.CategoryComponent: "Components (PascalCase)",
	hunt.CategoryHook:      "Custom hooks (use...)",
	hunt.CategoryFunction:  "Utility functions (camelCase)",
	hunt.CategoryType:      "Type definitions (interfaces/types)",
}

// Interactive reports whether stdin is a terminal a form can run on.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Prompter runs the settings form.
type Prompter struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// New returns a prompter on stdin and stderr.
func New() *Prompter {
	return &Prompter{in: os.Stdin, out: os.Stderr}
}

// NewWithIO returns a prompter on the given streams in accessible mode,
// which reads plain lines instead of driving a full-screen form.
func NewWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, accessible: true}
}

// Ask asks for the directory to scan and the categories to hunt. dir and
// selected prefill the form; a zero selection preselects every category.
func (p *Prompter) Ask(ctx context.Context, dir string, selected hunt.CategorySet) (*Answers, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if selected.Empty() {
		selected = hunt.AllCategorySet()
	}
	chosen := selected.Strings()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Folder to scan for dead code").
				Placeholder(DefaultDir).
				Value(&dir),
			huh.NewMultiSelect[string]().
				Title("What do you want to hunt for?").
				Options(categoryOptions()...).
				Value(&chosen).
				Validate(ValidateCategories),
		),
	).
		WithInput(p.in).
		WithOutput(p.out).
		WithAccessible(p.accessible)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, ErrCancelled
		}
		return nil, err
	}

	cats, err := hunt.ParseCategorySet(chosen)
	if err != nil {
		return nil, err
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultDir
	}
	return &Answers{Dir: dir, Categories: cats}, nil
}

// ValidateCategories rejects an empty selection.
func ValidateCategories(selected []string) error {
	if len(selected) == 0 {
		return errors.New("please select at least one option to hunt for")
	}
	return nil
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(hunt.AllCategories))
	for _, c := range hunt.AllCategories {
		opts = append(opts, huh.NewOption(categoryLabels[c], c.String()))
	}
	return opts
}
