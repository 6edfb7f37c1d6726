package convert

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// German special characters are folded to their digraph equivalents before
// the general Unicode decomposition below. The order is load-bearing: NFKD
// alone decomposes ä to "a"+combining diaeresis, which would drop to "a" —
// but the market keyword table needs "ae".
var germanFold = strings.NewReplacer(
	"Ä", "AE", "Ö", "OE", "Ü", "UE",
	"ä", "ae", "ö", "oe", "ü", "ue",
	"ẞ", "SS", "ß", "ss",
)

// Normalize canonicalizes extracted PDF text for pattern matching and
// keyword lookup: umlauts/ß become ASCII digraphs, remaining accented
// characters decompose to their base letter, anything without an ASCII
// equivalent is discarded, and all whitespace runs (including newlines)
// collapse to single spaces. Empty input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = germanFold.Replace(text)
	text = norm.NFKD.String(text)

	b := make([]byte, 0, len(text))
	for _, r := range text {
		if r < 0x80 {
			b = append(b, byte(r))
		}
	}
	return strings.Join(strings.Fields(string(b)), " ")
}
