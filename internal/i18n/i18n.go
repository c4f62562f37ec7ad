// ABOUTME: String tables for the console and storefront in English and Chinese
// ABOUTME: Languages are negotiated with golang.org/x/text/language matching

package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Supported languages, in matcher preference order.
var (
	English            = language.English
	SimplifiedChinese  = language.MustParse("zh-CN")
	TraditionalChinese = language.MustParse("zh-TW")
)

var supported = []language.Tag{English, SimplifiedChinese, TraditionalChinese}

var matcher = language.NewMatcher(supported)

// Translator looks up keys for one language. Lookups are pure; a missing key
// returns the key itself.
type Translator struct {
	tag  language.Tag
	slot int
}

// New returns a translator for the best supported match of the given
// preferences, which may be BCP 47 tags or Accept-Language strings.
// Unparseable or empty input selects English.
func New(prefs ...string) *Translator {
	var tags []language.Tag
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	_, index, _ := matcher.Match(tags...)
	return &Translator{tag: supported[index], slot: index}
}

// Language returns the selected tag.
func (t *Translator) Language() language.Tag { return t.tag }

// T translates key.
func (t *Translator) T(key string) string {
	entry, ok := messages[key]
	if !ok {
		return key
	}
	if s := entry[t.slot]; s != "" {
		return s
	}
	return entry[0]
}

// Tf translates key and formats it with args.
func (t *Translator) Tf(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}

// Has reports whether key exists in the table.
func Has(key string) bool {
	_, ok := messages[key]
	return ok
}
