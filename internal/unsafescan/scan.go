// Package unsafescan statically counts Rust memory-safety opt-outs (the
// unsafe keyword) per syntactic position and derives per-file deltas
// across a version diff. Counting is deliberately the whole story: an
// edit inside an existing unsafe region leaves the counters unchanged
// and is reported as Uncertain rather than guessed at.
package unsafescan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diem/whackadep/internal/domain/entities"
)

// ErrNotRustFile marks files the scanner cannot parse; callers drop
// such files from the analysis when both sides are unparsable.
var ErrNotRustFile = errors.New("not a rust source file")

type blockKind int

const (
	blockPlain blockKind = iota
	blockImpl
	blockTrait
)

// ScanFile scans one file from disk.
func ScanFile(path string) (*entities.UnsafeCounters, error) {
	if filepath.Ext(path) != ".rs" {
		return nil, ErrNotRustFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	counters := ScanSource(string(data))
	return &counters, nil
}

// ScanSource counts unsafe occurrences in Rust source, excluding
// test-gated items (#[test] functions, #[cfg(test)] modules).
func ScanSource(src string) entities.UnsafeCounters {
	tokens := lex(src)
	var counters entities.UnsafeCounters

	var stack []blockKind
	pending := blockPlain
	prev, prev2 := "", ""

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if tok.kind == tokenPunct && tok.text == "#" && nextIs(tokens, i+1, "[") {
			end := skipAttribute(tokens, i)
			if isTestAttribute(tokens[i:end]) {
				i = skipItem(tokens, end) - 1
			} else {
				i = end - 1
			}
			continue
		}

		if tok.kind == tokenIdent {
			switch tok.text {
			case "unsafe":
				countUnsafe(tokens, i, stack, &counters)
			case "impl":
				// "-> impl Trait" is a return type, not an item.
				if !(prev == ">" && prev2 == "-") {
					pending = blockImpl
				}
			case "trait":
				if !(prev == ">" && prev2 == "-") {
					pending = blockTrait
				}
			case "fn", "mod", "match", "loop", "while", "if", "else":
				pending = blockPlain
			}
		} else {
			switch tok.text {
			case "{":
				stack = append(stack, pending)
				pending = blockPlain
			case "}":
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				pending = blockPlain
			case ";":
				pending = blockPlain
			}
		}

		prev2, prev = prev, tok.text
	}
	return counters
}

// countUnsafe classifies the unsafe keyword at index i by what follows
// it and where it sits.
func countUnsafe(tokens []token, i int, stack []blockKind, counters *entities.UnsafeCounters) {
	j := i + 1
	// "unsafe extern \"C\" fn" carries the ABI between the keywords; the
	// lexer already dropped the string literal.
	for j < len(tokens) && tokens[j].kind == tokenIdent && tokens[j].text == "extern" {
		j++
	}
	if j >= len(tokens) {
		return
	}

	next := tokens[j]
	switch {
	case next.kind == tokenIdent && next.text == "fn":
		if insideImplOrTrait(stack) {
			counters.Methods++
		} else {
			counters.Functions++
		}
	case next.kind == tokenIdent && next.text == "impl":
		counters.Impls++
	case next.kind == tokenIdent && next.text == "trait":
		counters.Traits++
	case next.kind == tokenPunct && next.text == "{":
		counters.Expressions++
	}
}

func insideImplOrTrait(stack []blockKind) bool {
	if len(stack) == 0 {
		return false
	}
	top := stack[len(stack)-1]
	return top == blockImpl || top == blockTrait
}

func nextIs(tokens []token, i int, text string) bool {
	return i < len(tokens) && tokens[i].text == text
}

// skipAttribute consumes "#[...]" starting at the '#' and returns the
// index past the closing bracket.
func skipAttribute(tokens []token, i int) int {
	i++ // '#'
	depth := 0
	for ; i < len(tokens); i++ {
		switch tokens[i].text {
		case "[":
			depth++
		case "]":
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// isTestAttribute recognizes #[test] and #[cfg(test)]-style attributes.
// #[cfg(not(test))] gates production code and is left alone.
func isTestAttribute(attr []token) bool {
	sawCfg, sawNot := false, false
	for idx, tok := range attr {
		if tok.kind != tokenIdent {
			continue
		}
		if tok.text == "cfg" {
			sawCfg = true
		}
		if tok.text == "not" {
			sawNot = true
		}
		if tok.text == "test" && !sawNot {
			// first identifier inside #[...] being "test" is #[test]
			if idx == 2 && len(attr) == 4 {
				return true
			}
			if sawCfg {
				return true
			}
		}
	}
	return false
}

// skipItem consumes the item following a test attribute: any further
// attributes, then either a bodyless item ending in ';' or a braced body.
func skipItem(tokens []token, i int) int {
	for i < len(tokens) {
		tok := tokens[i]
		if tok.kind == tokenPunct && tok.text == "#" && nextIs(tokens, i+1, "[") {
			i = skipAttribute(tokens, i)
			continue
		}
		if tok.text == ";" {
			return i + 1
		}
		if tok.text == "{" {
			depth := 0
			for ; i < len(tokens); i++ {
				switch tokens[i].text {
				case "{":
					depth++
				case "}":
					depth--
					if depth == 0 {
						return i + 1
					}
				}
			}
			return i
		}
		i++
	}
	return i
}
