package clipboard

import (
	"testing"
)

func TestCite(t *testing.T) {
	tests := []struct {
		keys []string
		want string
	}{
		{[]string{"Smith_2020_a1b2c3d"}, `\cite{Smith_2020_a1b2c3d}`},
		{[]string{"A", "B"}, `\cite{A,B}`},
	}
	for _, tt := range tests {
		if got := Cite(tt.keys...); got != tt.want {
			t.Errorf("Cite(%v) = %q, want %q", tt.keys, got, tt.want)
		}
	}
}

func TestCopy(t *testing.T) {
	if !IsAvailable() {
		t.Skip("clipboard not available on this system")
	}
	if err := Copy(Cite("Smith_2020_a1b2c3d")); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
}

func TestGetClipboardCommand(t *testing.T) {
	// either a command or an error, never both
	cmd, err := getClipboardCommand()
	if err != nil {
		if cmd != nil {
			t.Error("getClipboardCommand returned both command and error")
		}
	} else if cmd == nil {
		t.Error("getClipboardCommand returned nil command with no error")
	}
}
