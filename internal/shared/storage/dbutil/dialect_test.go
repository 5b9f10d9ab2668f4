package dbutil

import "testing"

func TestRebindToQuestion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT * FROM users WHERE id = $1", "SELECT * FROM users WHERE id = ?"},
		{"INSERT INTO users (a, b) VALUES ($1, $2)", "INSERT INTO users (a, b) VALUES (?, ?)"},
		{"SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := RebindToQuestion(tt.in); got != tt.want {
			t.Errorf("RebindToQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripPgCasts(t *testing.T) {
	got := StripPgCasts("SELECT $1::text, role::varchar FROM users")
	want := "SELECT $1, role FROM users"
	if got != want {
		t.Errorf("StripPgCasts() = %q, want %q", got, want)
	}
}
