// Package sentiment scores social post text. A Gemini-backed scorer is the
// primary; a local model service is the fallback; when both are unavailable
// the router degrades to neutral rather than failing the pipeline.
package sentiment

import "strings"

// Text language classes. Hinglish covers both romanized Hindi and Devanagari
// script mixed into market chatter.
const (
	LangEnglish  = "english"
	LangHinglish = "hinglish"
)

// Romanized Hindi words common in Indian market chatter. Two or more hits
// classify a text as Hinglish.
var hinglishLexicon = map[string]struct{}{
	"hai": {}, "nahi": {}, "kya": {}, "bhai": {}, "kyun": {}, "matlab": {},
	"paisa": {}, "bazaar": {}, "kharido": {}, "becho": {}, "munafa": {},
	"nuksan": {}, "tezi": {}, "mandi": {}, "aaj": {}, "kal": {}, "abhi": {},
	"bahut": {}, "thoda": {}, "zyada": {}, "lagta": {}, "dekho": {},
	"chalega": {}, "badhiya": {}, "gaya": {}, "hoga": {}, "karo": {},
}

// ClassifyLanguage labels a text as english or hinglish. Any Devanagari
// character is decisive; otherwise at least two lexicon words are required so
// that a single loanword does not flip the class.
func ClassifyLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return LangHinglish
		}
	}

	hits := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if _, ok := hinglishLexicon[w]; ok {
			hits++
			if hits >= 2 {
				return LangHinglish
			}
		}
	}
	return LangEnglish
}
