package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCommandModeAcceptsRuneKeys(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"b", "q", "s", "n"} {
		m := newBaseModel()
		m.mode = viewModeCommand
		m.command.Focus()

		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		updated, ok := next.(topModel)
		if !ok {
			t.Fatalf("expected topModel, got %T", next)
		}
		if updated.command.Value() != key {
			t.Fatalf("expected command input to include rune key %q, got %q", key, updated.command.Value())
		}
		if updated.mode != viewModeCommand {
			t.Fatalf("expected to stay in command mode after %q", key)
		}
	}
}

func TestSearchModeAcceptsRuneKeys(t *testing.T) {
	t.Parallel()

	m := newBaseModel()
	m.mode = viewModeSearch
	m.search.Focus()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	updated, ok := next.(topModel)
	if !ok {
		t.Fatalf("expected topModel, got %T", next)
	}
	if updated.search.Value() != "s" {
		t.Fatalf("expected search query to include rune key, got %q", updated.search.Value())
	}
}

func TestSearchEscClearsQuery(t *testing.T) {
	t.Parallel()

	m := newBaseModel()
	m.mode = viewModeSearch
	m.search.Focus()
	m.search.SetValue("redshift")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	updated := next.(topModel)
	if updated.mode != viewModeTable {
		t.Fatalf("expected table mode, got %v", updated.mode)
	}
	if updated.search.Value() != "" {
		t.Fatalf("expected empty query, got %q", updated.search.Value())
	}
}
