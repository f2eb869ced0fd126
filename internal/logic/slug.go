package logic

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// UnknownSlug is returned when nothing of the input survives
// transliteration.
const UnknownSlug = "unknown"

// Slugify transliterates s to ASCII, lower-cases it and joins the
// remaining alphanumeric runs with single underscores. An input with no
// usable characters gives UnknownSlug.
//
//	Slugify("Kitchen Keypad: Button 1") == "kitchen_keypad_button_1"
//	Slugify("Кухня") == "kukhnia"
func Slugify(s string) string {
	ascii := unidecode.Unidecode(norm.NFKC.String(s))

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(ascii) {
		// Quotes vanish instead of splitting a word: "Kid's" is "kids".
		if r == '\'' || r == '"' {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return UnknownSlug
	}
	return b.String()
}
