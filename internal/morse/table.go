// Package morse provides the fixed Morse symbol table and the text <-> Morse codec.
package morse

import (
	"fmt"
	"strings"
)

// Symbol is one element of a Morse sequence.
type Symbol byte

// The two Morse symbols, using their conventional text glyphs.
const (
	Dot  Symbol = '.'
	Dash Symbol = '-'
)

// WordSeparator is the character in source text that marks a word boundary.
const WordSeparator = ' '

// Sequence is the ordered list of symbols for a single character.
type Sequence []Symbol

// String renders the sequence with '.' and '-'.
func (s Sequence) String() string {
	var builder strings.Builder

	builder.Grow(len(s))

	for _, symbol := range s {
		builder.WriteByte(byte(symbol))
	}

	return builder.String()
}

var codes = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'.': ".-.-.-", ',': "--..--", '?': "..--..", '\'': ".----.",
	'!': "-.-.--", '/': "-..-.", '(': "-.--.", ')': "-.--.-",
	'&': ".-...", ':': "---...", ';': "-.-.-.", '=': "-...-",
	'+': ".-.-.", '-': "-....-", '_': "..--.-", '"': ".-..-.",
	'$': "...-..-", '@': ".--.-.",
}

var (
	forward map[rune]Sequence
	inverse map[string]rune
)

func init() {
	forward = make(map[rune]Sequence, len(codes))
	inverse = make(map[string]rune, len(codes))

	for char, code := range codes {
		if other, taken := inverse[code]; taken {
			panic(fmt.Sprintf("morse: %q and %q share the sequence %s", other, char, code))
		}

		forward[char] = Sequence(code)
		inverse[code] = char
	}
}

// Lookup returns the sequence for an upper-case character.
func Lookup(char rune) (Sequence, bool) {
	seq, ok := forward[char]

	return seq, ok
}

// Reverse returns the character for a sequence written with '.' and '-'.
func Reverse(code string) (rune, bool) {
	char, ok := inverse[code]

	return char, ok
}

// Size reports how many characters the table maps.
func Size() int {
	return len(forward)
}
