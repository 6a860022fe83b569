package patch

import "unicode"

type lexState int

const (
	stCode lexState = iota
	stString
	stRawString
	stBlockComment
)

// lexer tracks string and comment context for Rust source across lines so
// that braces inside literals and comments are never counted.
type lexer struct {
	state        lexState
	rawHashes    int // number of '#' closing the current raw string
	commentDepth int // block comments nest in Rust
}

// mask returns line with every rune that belongs to a string literal, char
// literal or comment replaced by a space. The result has the same number of
// runes as line.
func (lx *lexer) mask(line string) []rune {
	rs := []rune(line)
	out := make([]rune, len(rs))
	for i := range out {
		out[i] = ' '
	}

	for i := 0; i < len(rs); {
		switch lx.state {
		case stString:
			if rs[i] == '\\' {
				i += 2
				continue
			}
			if rs[i] == '"' {
				lx.state = stCode
			}
			i++

		case stRawString:
			if rs[i] == '"' && closesRaw(rs, i, lx.rawHashes) {
				i += 1 + lx.rawHashes
				lx.state = stCode
				continue
			}
			i++

		case stBlockComment:
			if rs[i] == '*' && i+1 < len(rs) && rs[i+1] == '/' {
				lx.commentDepth--
				i += 2
				if lx.commentDepth == 0 {
					lx.state = stCode
				}
				continue
			}
			if rs[i] == '/' && i+1 < len(rs) && rs[i+1] == '*' {
				lx.commentDepth++
				i += 2
				continue
			}
			i++

		default:
			r := rs[i]
			switch {
			case r == '/' && i+1 < len(rs) && rs[i+1] == '/':
				return out
			case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
				lx.state = stBlockComment
				lx.commentDepth = 1
				i += 2
			case r == '"':
				lx.state = stString
				i++
			case r == 'r' && !identBefore(rs, i):
				if hashes, ok := opensRaw(rs, i+1); ok {
					lx.state = stRawString
					lx.rawHashes = hashes
					i += 2 + hashes
					continue
				}
				out[i] = r
				i++
			case r == 'b' && i+1 < len(rs) && rs[i+1] == 'r' && !identBefore(rs, i):
				if hashes, ok := opensRaw(rs, i+2); ok {
					lx.state = stRawString
					lx.rawHashes = hashes
					i += 3 + hashes
					continue
				}
				out[i] = r
				i++
			case r == '\'':
				i = skipCharLiteral(rs, i, out)
			default:
				out[i] = r
				i++
			}
		}
	}
	return out
}

// opensRaw reports whether rs[i:] starts with zero or more '#' followed by '"'.
func opensRaw(rs []rune, i int) (int, bool) {
	hashes := 0
	for i+hashes < len(rs) && rs[i+hashes] == '#' {
		hashes++
	}
	if i+hashes < len(rs) && rs[i+hashes] == '"' {
		return hashes, true
	}
	return 0, false
}

func closesRaw(rs []rune, i, hashes int) bool {
	for k := 1; k <= hashes; k++ {
		if i+k >= len(rs) || rs[i+k] != '#' {
			return false
		}
	}
	return true
}

func identBefore(rs []rune, i int) bool {
	if i == 0 {
		return false
	}
	p := rs[i-1]
	return p == '_' || unicode.IsLetter(p) || unicode.IsDigit(p)
}

// skipCharLiteral consumes a char literal starting at rs[i] == '\'' and
// returns the index after it. Lifetimes and loop labels ('a, 'static) are
// code and are copied to out.
func skipCharLiteral(rs []rune, i int, out []rune) int {
	if i+1 < len(rs) && rs[i+1] == '\\' {
		j := i + 2
		if j < len(rs) {
			j++
		}
		for j < len(rs) && rs[j] != '\'' {
			j++
		}
		return j + 1
	}
	if i+2 < len(rs) && rs[i+2] == '\'' {
		return i + 3
	}
	out[i] = rs[i]
	return i + 1
}
