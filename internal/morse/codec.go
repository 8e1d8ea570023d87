package morse

import (
	"errors"
	"fmt"
	"strings"
)

// Separators used in Morse text.
const (
	LetterGap = " "
	WordGap   = " / "
	wordMark  = "/"
)

var (
	// ErrUnmappedCharacter marks a source character that has no Morse sequence.
	ErrUnmappedCharacter = errors.New("unmapped character")
	// ErrMalformedMorseInput marks a Morse token that does not decode to a character.
	ErrMalformedMorseInput = errors.New("malformed morse token")
)

// Encode converts text to Morse. Input is upper-cased before lookup, characters
// missing from the table are dropped, and spaces become word separators.
func Encode(text string) string {
	words := make([]string, 0)

	for _, word := range strings.Split(strings.ToUpper(text), string(WordSeparator)) {
		letters := make([]string, 0, len(word))

		for _, char := range word {
			seq, ok := Lookup(char)
			if !ok {
				continue
			}

			letters = append(letters, seq.String())
		}

		if len(letters) > 0 {
			words = append(words, strings.Join(letters, LetterGap))
		}
	}

	return strings.Join(words, WordGap)
}

// Decode converts Morse back to lower-case text. Tokens that are not in the
// table are dropped. A "/" token or a run of two or more spaces separates words.
func Decode(morseText string) string {
	words := make([]string, 0)

	for _, group := range splitWords(morseText) {
		var builder strings.Builder

		for _, token := range strings.Fields(group) {
			char, ok := Reverse(token)
			if !ok {
				continue
			}

			builder.WriteRune(char)
		}

		if builder.Len() > 0 {
			words = append(words, builder.String())
		}
	}

	return strings.ToLower(strings.Join(words, string(WordSeparator)))
}

// UnmappedCharacters lists the errors Encode recovered from, one per skipped
// character, in input order.
func UnmappedCharacters(text string) []error {
	var skipped []error

	for i, char := range strings.ToUpper(text) {
		if char == WordSeparator {
			continue
		}

		if _, ok := Lookup(char); !ok {
			skipped = append(skipped, fmt.Errorf("%w: %q at offset %d", ErrUnmappedCharacter, char, i))
		}
	}

	return skipped
}

// MalformedTokens lists the errors Decode recovered from, one per dropped token.
func MalformedTokens(morseText string) []error {
	var skipped []error

	for _, group := range splitWords(morseText) {
		for _, token := range strings.Fields(group) {
			if _, ok := Reverse(token); !ok {
				skipped = append(skipped, fmt.Errorf("%w: %q", ErrMalformedMorseInput, token))
			}
		}
	}

	return skipped
}

// splitWords breaks Morse text into per-word groups of letter tokens.
func splitWords(morseText string) []string {
	normalized := strings.NewReplacer("\t", " ", "\r", " ", "\n", "  ").Replace(morseText)

	var (
		groups  []string
		current strings.Builder
		spaces  int
	)

	flush := func() {
		groups = append(groups, current.String())
		current.Reset()
	}

	for _, char := range normalized {
		if char == ' ' {
			spaces++

			continue
		}

		if spaces >= 2 {
			flush()
		} else if spaces == 1 {
			current.WriteByte(' ')
		}

		spaces = 0

		current.WriteRune(char)
	}

	flush()

	result := make([]string, 0, len(groups))

	for _, group := range groups {
		result = append(result, strings.Split(group, wordMark)...)
	}

	return result
}
