package index

// Built-in stopword lists. Filtering is exact-match only; there is no
// stemming.

var stopwordsEN = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"that": {}, "the": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "this": {}, "these": {}, "those": {}, "or": {},
	"not": {}, "but": {}, "we": {}, "you": {}, "your": {}, "our": {},
}

var stopwordsID = map[string]struct{}{
	"yang": {}, "dan": {}, "di": {}, "ke": {}, "dari": {}, "untuk": {},
	"pada": {}, "dengan": {}, "adalah": {}, "itu": {}, "ini": {},
	"ada": {}, "atau": {}, "tidak": {}, "saya": {}, "kami": {},
	"kita": {}, "anda": {}, "dia": {}, "mereka": {}, "sebagai": {},
	"sebuah": {}, "para": {}, "dalam": {}, "akan": {}, "lagi": {},
	"serta": {},
}

// stopwordSet selects the built-in stopword list for a language code.
// Unknown codes fall back to English.
func stopwordSet(language string) map[string]struct{} {
	if language == "id" {
		return stopwordsID
	}
	return stopwordsEN
}
