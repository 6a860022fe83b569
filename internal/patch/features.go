package patch

import "strings"

// FeatureRewrite augments a default-features declaration on every line that
// names a given dependency. It is plain text substitution; lines without
// Marker, or without From, pass through unchanged.
type FeatureRewrite struct {
	Marker string // dependency name, e.g. "risc0-zkvm"
	From   string // text to augment, e.g. "default-features = false"
	To     string // replacement text
}

// Apply returns a copy of lines with the rewrite applied. Lines that already
// contain To are left alone so the rewrite can be repeated safely.
func (r FeatureRewrite) Apply(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.Contains(line, r.Marker) && !strings.Contains(line, r.To) {
			line = strings.ReplaceAll(line, r.From, r.To)
		}
		out[i] = line
	}
	return out
}

// StdFeatures returns the rewrite that enables the given features on the
// zkVM dependency while keeping default features off.
func StdFeatures(marker string, features ...string) FeatureRewrite {
	quoted := make([]string, len(features))
	for i, f := range features {
		quoted[i] = `"` + f + `"`
	}
	return FeatureRewrite{
		Marker: marker,
		From:   "default-features = false",
		To:     "default-features = false, features = [ " + strings.Join(quoted, ", ") + " ]",
	}
}
