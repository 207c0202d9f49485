package ics

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The French text is the canonical wording of the feed.
const (
	msgCalendarName = "Horaires de prière – %s"
	msgDescription  = "Calcul: AlAdhan (method=%s, school=%s)."
	msgAlarm        = "%s dans %s min"
)

var (
	supportedLanguages = []language.Tag{language.French, language.English}
	languageMatcher    = language.NewMatcher(supportedLanguages)
	messages           = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.French))
	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}

	set(language.French, msgCalendarName, msgCalendarName)
	set(language.French, msgDescription, msgDescription)
	set(language.French, msgAlarm, msgAlarm)

	set(language.English, msgCalendarName, "Prayer times – %s")
	set(language.English, msgDescription, "Calculation: AlAdhan (method=%s, school=%s).")
	set(language.English, msgAlarm, "%s in %s min")

	return b
}

// printer returns a message printer for lang, falling back to French.
func printer(lang string) *message.Printer {
	tag := language.French
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			_, idx, conf := languageMatcher.Match(t)
			if conf != language.No {
				tag = supportedLanguages[idx]
			}
		}
	}
	return message.NewPrinter(tag, message.Catalog(messages))
}
