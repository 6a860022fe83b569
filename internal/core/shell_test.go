package core

import "testing"

func TestShellEscapePosix_Table(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple", "abc", "'abc'"},
		{"single quote", "a'b", "'a'\"'\"'b'"},
		{"empty string", "", "''"},
		{"spaces", "a b c", "'a b c'"},
		{"path with spaces", "/tmp/a b", "'/tmp/a b'"},
		{"double quotes", `a"b`, `'a"b'`},
		{"backslash", `a\b`, `'a\b'`},
		{"dollar sign", "a$b", "'a$b'"},
		{"backticks", "a`b", "'a`b'"},
		{"multiple single quotes", "a''b", "'a'\"'\"''\"'\"'b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShellEscapePosix(tt.input)
			if got != tt.expect {
				t.Errorf("ShellEscapePosix(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestShellEscapePosix_EmptyString(t *testing.T) {
	got := ShellEscapePosix("")
	if got != "''" {
		t.Errorf("ShellEscapePosix(\"\") = %q, want \"''\"", got)
	}
}

func TestShellEscapePosix_Newline(t *testing.T) {
	got := ShellEscapePosix("a\nb")
	expect := "'a\nb'"
	if got != expect {
		t.Errorf("ShellEscapePosix(%q) = %q, want %q", "a\nb", got, expect)
	}
}

func TestShellJoin(t *testing.T) {
	tests := []struct {
		name   string
		argv   []string
		expect string
	}{
		{"bare tokens", []string{"cargo", "risczero", "new", "widget"}, "cargo risczero new widget"},
		{"path with spaces", []string{"cd", "/tmp/a b"}, "cd '/tmp/a b'"},
		{"flags and paths", []string{"ceres", "add-pr", "./feeds/weather-v2"}, "ceres add-pr ./feeds/weather-v2"},
		{"empty token", []string{"echo", ""}, "echo ''"},
		{"single quote", []string{"cd", "it's"}, "cd 'it'\"'\"'s'"},
		{"no args", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShellJoin(tt.argv...)
			if got != tt.expect {
				t.Errorf("ShellJoin(%q) = %q, want %q", tt.argv, got, tt.expect)
			}
		})
	}
}
