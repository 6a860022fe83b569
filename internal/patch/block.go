package patch

import (
	"strconv"
	"strings"

	"github.com/mercury-protocol/ceres/internal/errors"
)

// Insertion emits Lines immediately after every kept line that Match accepts.
type Insertion struct {
	Match Matcher
	Lines []string
}

// BlockRewrite replaces the body of the block introduced by the Trigger
// line with Body. Body is emitted right after the opening brace and must
// close the block itself; the original body and its closing brace are
// dropped.
//
// Braces are counted on code text only: string, char and raw-string
// literals and line/block comments are masked out first, and the lexer
// state carries across lines. Matchers for Trigger, Insertions and Drop see
// the masked code text too, so a comment mentioning a marker is not a match.
type BlockRewrite struct {
	Trigger    string
	Body       []string
	Insertions []Insertion
	Drop       []Matcher // kept lines accepted by any of these are removed
}

// Apply runs the rewrite over lines. It fails with E_PATCH_TARGET_NOT_FOUND
// when no code line contains Trigger, E_PATCH_TARGET_AMBIGUOUS when more than
// one does, and E_UNBALANCED_BLOCK when the block never opens or closes.
//
// Header lines between the trigger and the opening brace (a brace on its own
// line, a where clause) are kept, and Body follows the brace. Code after the
// closing brace is kept on a line of its own.
func (b BlockRewrite) Apply(lines []string) ([]string, error) {
	var (
		lx       lexer
		out      = make([]string, 0, len(lines)+len(b.Body))
		st       blockState
		replaced = -1
	)

	for n, line := range lines {
		code := lx.mask(line)

		switch st.mode {
		case awaitingOpen:
			out = b.enter(out, &st, line, code, 0)
			continue
		case skipping:
			if end, closed := scanBraces(code, 0, &st.depth, &st.opened); closed {
				st.mode = copying
				out = appendRest(out, line, end)
			}
			continue
		}

		at := strings.Index(string(code), b.Trigger)
		if at >= 0 {
			if replaced >= 0 {
				return nil, errors.NewWithDetails(errors.EPatchTargetAmbiguous, "entry point declared more than once",
					map[string]string{"trigger": b.Trigger, "lines": strconv.Itoa(replaced+1) + "," + strconv.Itoa(n+1)})
			}
			replaced = n
			from := len([]rune(string(code)[:at])) + len([]rune(b.Trigger))
			out = b.enter(out, &st, line, code, from)
			continue
		}

		if b.dropped(string(code)) {
			continue
		}
		out = append(out, line)
		for _, ins := range b.Insertions {
			if ins.Match(string(code)) {
				out = append(out, ins.Lines...)
			}
		}
	}

	if replaced < 0 {
		return nil, errors.NewWithDetails(errors.EPatchTargetNotFound, "entry point not found",
			map[string]string{"trigger": b.Trigger})
	}
	switch st.mode {
	case awaitingOpen:
		return nil, errors.NewWithDetails(errors.EUnbalancedBlock, "entry point body is never opened",
			map[string]string{"trigger": b.Trigger, "line": strconv.Itoa(replaced + 1)})
	case skipping:
		return nil, errors.NewWithDetails(errors.EUnbalancedBlock, "entry point body is never closed",
			map[string]string{"trigger": b.Trigger, "line": strconv.Itoa(replaced + 1)})
	}
	return out, nil
}

type blockMode int

const (
	copying blockMode = iota
	awaitingOpen
	skipping
)

type blockState struct {
	mode   blockMode
	depth  int
	opened bool
}

// enter handles a header line of the target block, scanning code from
// index from. Until the opening brace shows up the line is kept verbatim;
// the brace line is kept up to the brace and followed by Body.
func (b BlockRewrite) enter(out []string, st *blockState, line string, code []rune, from int) []string {
	openAt := firstOpen(code, from)
	if openAt < 0 {
		st.mode = awaitingOpen
		return append(out, line)
	}

	out = append(out, string([]rune(line)[:openAt+1]))
	out = append(out, b.Body...)

	st.depth, st.opened = 0, false
	if end, closed := scanBraces(code, openAt, &st.depth, &st.opened); closed {
		st.mode = copying
		return appendRest(out, line, end)
	}
	st.mode = skipping
	return out
}

// appendRest keeps whatever code follows the closing brace at index end.
func appendRest(out []string, line string, end int) []string {
	rest := strings.TrimSpace(string([]rune(line)[end+1:]))
	if rest == "" {
		return out
	}
	return append(out, rest)
}

func (b BlockRewrite) dropped(code string) bool {
	for _, m := range b.Drop {
		if m(code) {
			return true
		}
	}
	return false
}

// scanBraces walks code[from:] updating depth. It reports the index of the
// brace that closes the block and true once the block has been opened and
// closed again.
func scanBraces(code []rune, from int, depth *int, opened *bool) (int, bool) {
	for i := from; i < len(code); i++ {
		switch code[i] {
		case '{':
			*depth++
			*opened = true
		case '}':
			if *depth == 0 {
				continue
			}
			*depth--
			if *depth == 0 && *opened {
				return i, true
			}
		}
	}
	return -1, false
}

func firstOpen(code []rune, from int) int {
	for i := from; i < len(code); i++ {
		if code[i] == '{' {
			return i
		}
	}
	return -1
}
