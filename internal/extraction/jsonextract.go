package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind selects which JSON literal ExtractJSON looks for.
type Kind int

const (
	KindAny Kind = iota
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "value"
	}
}

var (
	// ErrNoJSON means the text contains no opening bracket of the wanted kind.
	ErrNoJSON = errors.New("no JSON found")
	// ErrUnbalanced means an opening bracket was never closed.
	ErrUnbalanced = errors.New("unbalanced JSON")
	// ErrInvalidJSON means a balanced literal was found but is not JSON.
	ErrInvalidJSON = errors.New("invalid JSON literal")
)

// ParseError explains why model output could not be turned into a value.
type ParseError struct {
	Kind Kind
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse JSON %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractJSON returns the first balanced, valid JSON literal of the given
// kind in text. Surrounding prose and markdown fences are ignored.
func ExtractJSON(text string, kind Kind) (string, error) {
	start, end, err := nextLiteral(text, 0, kind)
	if err != nil {
		return "", err
	}
	return text[start:end], nil
}

// DecodeJSON decodes the first JSON literal of the given kind in text that
// unmarshals into T. Bracketed prose that precedes the payload is skipped.
func DecodeJSON[T any](text string, kind Kind) (T, error) {
	var zero T
	var decodeErr error
	for from := 0; ; {
		start, end, err := nextLiteral(text, from, kind)
		if err != nil {
			if decodeErr != nil {
				return zero, &ParseError{Kind: kind, Err: decodeErr}
			}
			return zero, err
		}

		var v T
		decodeErr = json.Unmarshal([]byte(text[start:end]), &v)
		if decodeErr == nil {
			return v, nil
		}
		// Literals nested in the rejected one are still candidates.
		from = start + 1
	}
}

// nextLiteral finds the first valid literal opening at or after from and
// returns its bounds.
func nextLiteral(text string, from int, kind Kind) (int, int, error) {
	reason := ErrNoJSON
	for start := from; start < len(text); start++ {
		if !opens(text[start], kind) {
			continue
		}
		end, ok := balancedEnd(text, start)
		if !ok {
			if reason == ErrNoJSON {
				reason = ErrUnbalanced
			}
			continue
		}
		if json.Valid([]byte(text[start : end+1])) {
			return start, end + 1, nil
		}
		reason = ErrInvalidJSON
	}
	return 0, 0, &ParseError{Kind: kind, Err: reason}
}

func opens(c byte, kind Kind) bool {
	switch kind {
	case KindArray:
		return c == '['
	case KindObject:
		return c == '{'
	default:
		return c == '[' || c == '{'
	}
}

// balancedEnd returns the index of the bracket closing the one at start.
// Brackets inside string literals do not count; mismatched nesting fails.
func balancedEnd(text string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	inString, escaped := false, false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
