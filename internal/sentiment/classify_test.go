package sentiment

import "testing"

func TestClassifyLanguage(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"plain english", "RELIANCE looking strong after results, targets raised", LangEnglish},
		{"devanagari", "रिलायंस में तेजी", LangHinglish},
		{"two lexicon words", "bhai kya scene hai RELIANCE me", LangHinglish},
		{"single lexicon word stays english", "bhai RELIANCE is breaking out", LangEnglish},
		{"punctuation around words", "aaj, kal! market volatile", LangHinglish},
		{"empty", "", LangEnglish},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyLanguage(tc.text); got != tc.want {
				t.Fatalf("ClassifyLanguage(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	in := "Buy now!!   https://example.com/tip  @trader_99 \n RELIANCE to the moon"
	want := "Buy now!! RELIANCE to the moon"
	if got := CleanText(in); got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestExtractSymbol(t *testing.T) {
	symbols := []string{"RELIANCE", "TCS", "INFY"}

	cases := []struct {
		text string
		want string
	}{
		{"reliance results today", "RELIANCE"},
		{"$TCS printing money", "TCS"},
		{"#infy breakout", "INFY"},
		{"TCSL is a different listing", ""},
		{"no symbols here", ""},
	}
	for _, tc := range cases {
		if got := ExtractSymbol(tc.text, symbols); got != tc.want {
			t.Fatalf("ExtractSymbol(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
