package core

import "strings"

// ShellEscapePosix returns a single shell token using single-quote strategy,
// including surrounding single quotes.
// example: abc -> 'abc'
// example: a'b -> 'a'"'"'b'
// example: "" -> ''
func ShellEscapePosix(s string) string {
	if s == "" {
		return "''"
	}
	escaped := strings.ReplaceAll(s, "'", "'\"'\"'")
	return "'" + escaped + "'"
}

// ShellJoin renders argv as a copy-pasteable command line. Tokens made only
// of safe characters are left bare; the rest are quoted.
// example: [cd, /tmp/a b] -> cd '/tmp/a b'
func ShellJoin(argv ...string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if isShellSafe(a) {
			parts[i] = a
		} else {
			parts[i] = ShellEscapePosix(a)
		}
	}
	return strings.Join(parts, " ")
}

func isShellSafe(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./=:@+,", r):
		default:
			return false
		}
	}
	return true
}
