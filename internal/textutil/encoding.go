package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// codePages maps detector charset names (lower-cased) to the code pages a
// spreadsheet export is realistically saved in.
var codePages = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"windows-1258": charmap.Windows1258,
	"cp1258":       charmap.Windows1258,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"latin9":       charmap.ISO8859_15,
	"iso-8859-2":   charmap.ISO8859_2,
	"latin2":       charmap.ISO8859_2,
}

// EncodingByName returns the code page for a detector charset name, or nil
// when it is not a supported Western or Vietnamese code page.
func EncodingByName(name string) encoding.Encoding {
	return codePages[strings.ToLower(name)]
}

// minDetectConfidence is the chardet score needed to trust a guess. Short
// cells such as a single name give the detector little to go on, so the bar
// is lower for them.
func minDetectConfidence(n int) int {
	if n > 50 {
		return 50
	}
	return 30
}

// EnsureUTF8 returns s as valid UTF-8. A roster cell that is not UTF-8 is
// decoded from the detected code page, else from Windows-1252, which maps
// every byte.
func EnsureUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	raw := []byte(s)

	enc := encoding.Encoding(charmap.Windows1252)
	if best, err := chardet.NewTextDetector().DetectBest(raw); err == nil && best.Confidence >= minDetectConfidence(len(raw)) {
		if e := EncodingByName(best.Charset); e != nil {
			enc = e
		}
	}
	if out, err := enc.NewDecoder().Bytes(raw); err == nil && utf8.Valid(out) {
		return string(out)
	}
	return SanitizeUTF8(s)
}

// SanitizeUTF8 substitutes U+FFFD for each invalid byte.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, r)
	}
	return string(out)
}
