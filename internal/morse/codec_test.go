// Package morse_test tests the Morse symbol table and codec.
package morse_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/book-expert/morse-service/internal/morse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "sos", input: "SOS", expected: "... --- ..."},
		{name: "lower case is upper-cased", input: "sos", expected: "... --- ..."},
		{name: "two words", input: "hi there", expected: ".... .. / - .... . .-. ."},
		{name: "unmapped characters are skipped", input: "a#b", expected: ".- -..."},
		{name: "repeated spaces collapse", input: "a   b", expected: ".- / -..."},
		{name: "empty", input: "", expected: ""},
		{name: "whitespace only", input: "   ", expected: ""},
		{name: "word of unmapped characters", input: "a ~~ b", expected: ".- / -..."},
		{name: "punctuation", input: "ok?", expected: "--- -.- ..--.."},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, morse.Encode(testCase.input))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "sos", input: "... --- ...", expected: "sos"},
		{name: "slash separator", input: ".... .. / - .... . .-. .", expected: "hi there"},
		{name: "bare slash", input: ".-/-...", expected: "a b"},
		{name: "double space separator", input: ".-  -...", expected: "a b"},
		{name: "malformed token skipped", input: ".- ........ -...", expected: "ab"},
		{name: "empty", input: "", expected: ""},
		{name: "whitespace only", input: " \t ", expected: ""},
		{name: "only separators", input: " / / ", expected: ""},
		{name: "garbage", input: "hello", expected: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, morse.Decode(testCase.input))
		})
	}
}

func TestRoundTrip_EveryCharacter(t *testing.T) {
	t.Parallel()

	alphabet := "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.,?'!/()&:;=+-_\"$@"
	require.Len(t, alphabet, morse.Size())

	for _, char := range alphabet {
		upper := string(char)
		assert.Equal(t, strings.ToLower(upper), morse.Decode(morse.Encode(upper)), "character %q", char)
	}
}

func TestRoundTrip_Sentence(t *testing.T) {
	t.Parallel()

	input := "  The quick  brown fox   jumps over 13 lazy dogs "
	expected := strings.ToLower(strings.Join(strings.Fields(input), " "))

	assert.Equal(t, expected, morse.Decode(morse.Encode(input)))
}

func TestLookupAndReverse(t *testing.T) {
	t.Parallel()

	seq, ok := morse.Lookup('S')
	require.True(t, ok)
	assert.Equal(t, morse.Sequence{morse.Dot, morse.Dot, morse.Dot}, seq)
	assert.Equal(t, "...", seq.String())

	_, ok = morse.Lookup('s')
	assert.False(t, ok, "lookup expects upper-case input")

	char, ok := morse.Reverse("-.--.-")
	require.True(t, ok)
	assert.Equal(t, ')', char)

	_, ok = morse.Reverse("........")
	assert.False(t, ok)
}

func TestUnmappedCharacters(t *testing.T) {
	t.Parallel()

	skipped := morse.UnmappedCharacters("a#b é")
	require.Len(t, skipped, 2)

	for _, err := range skipped {
		assert.True(t, errors.Is(err, morse.ErrUnmappedCharacter))
	}

	assert.Empty(t, morse.UnmappedCharacters("hello world"))
}

func TestMalformedTokens(t *testing.T) {
	t.Parallel()

	skipped := morse.MalformedTokens(".- ........ / x")
	require.Len(t, skipped, 2)
	require.ErrorIs(t, skipped[0], morse.ErrMalformedMorseInput)
	assert.Contains(t, skipped[0].Error(), "........")

	assert.Empty(t, morse.MalformedTokens("... --- ..."))
}
