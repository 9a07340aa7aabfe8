package unsafescan

// The lexer reduces Rust source to the token stream the counter needs:
// identifiers/keywords and single punctuation runes, with comments,
// string/char literals and lifetimes stripped so braces and keywords
// inside them never confuse the counting pass.

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenPunct
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) []token {
	var tokens []token
	runes := []rune(src)
	i := 0

	for i < len(runes) {
		c := runes[i]

		switch {
		case c == '/' && peek(runes, i+1) == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case c == '/' && peek(runes, i+1) == '*':
			i = skipBlockComment(runes, i+2)
		case c == '\'':
			i = skipCharOrLifetime(runes, i)
		case c == '"':
			i = skipString(runes, i+1)
		case isIdentStart(c):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			// r"...", r#"..."#, b"...", br#"..."# are literals, not
			// identifiers followed by a string.
			if isRawStringPrefix(word) && i < len(runes) && (runes[i] == '"' || runes[i] == '#') {
				i = skipRawString(runes, i)
				continue
			}
			tokens = append(tokens, token{kind: tokenIdent, text: word})
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			tokens = append(tokens, token{kind: tokenPunct, text: string(c)})
			i++
		}
	}
	return tokens
}

func peek(runes []rune, i int) rune {
	if i < len(runes) {
		return runes[i]
	}
	return 0
}

// skipBlockComment consumes a possibly nested /* */ comment body.
func skipBlockComment(runes []rune, i int) int {
	depth := 1
	for i < len(runes) && depth > 0 {
		if runes[i] == '/' && peek(runes, i+1) == '*' {
			depth++
			i += 2
		} else if runes[i] == '*' && peek(runes, i+1) == '/' {
			depth--
			i += 2
		} else {
			i++
		}
	}
	return i
}

// skipCharOrLifetime distinguishes 'a' (char literal) from 'a (lifetime)
// at position i of the opening quote.
func skipCharOrLifetime(runes []rune, i int) int {
	if peek(runes, i+1) == '\\' {
		// escaped char literal: '\n', '\u{..}', ...
		j := i + 2
		for j < len(runes) && runes[j] != '\'' {
			j++
		}
		return j + 1
	}
	if peek(runes, i+2) == '\'' {
		return i + 3 // plain char literal
	}
	// lifetime: consume the quote and the identifier after it
	j := i + 1
	for j < len(runes) && isIdentPart(runes[j]) {
		j++
	}
	return j
}

func skipString(runes []rune, i int) int {
	for i < len(runes) {
		if runes[i] == '\\' {
			i += 2
			continue
		}
		if runes[i] == '"' {
			return i + 1
		}
		i++
	}
	return i
}

func isRawStringPrefix(word string) bool {
	return word == "r" || word == "b" || word == "br"
}

// skipRawString consumes r"..."/r#"..."# style literals starting at the
// rune after the prefix.
func skipRawString(runes []rune, i int) int {
	hashes := 0
	for i < len(runes) && runes[i] == '#' {
		hashes++
		i++
	}
	if i >= len(runes) || runes[i] != '"' {
		return i // not a raw string after all; resume normally
	}
	i++
	for i < len(runes) {
		if runes[i] == '"' {
			matched := 0
			j := i + 1
			for j < len(runes) && runes[j] == '#' && matched < hashes {
				matched++
				j++
			}
			if matched == hashes {
				return j
			}
		}
		i++
	}
	return i
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
