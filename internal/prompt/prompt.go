// Package prompt turns classified queries and evidence bundles into
// generation prompts, and cleans up what comes back.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/civic-india/backend/internal/evidence"
	"github.com/civic-india/backend/internal/intent"
	"github.com/civic-india/backend/internal/language"
)

var languageInstructions = map[language.Language]string{
	language.English:   "Use simple English words. Avoid jargon and complex terms.",
	language.Hindi:     "Use simple Hindi words. Avoid complex English terms. Write in Devanagari script.",
	language.Tamil:     "Use simple Tamil words. Avoid complex English terms. Write in Tamil script.",
	language.Malayalam: "Use simple Malayalam words. Avoid complex English terms. Write in Malayalam script.",
	language.Telugu:    "Use simple Telugu words. Avoid complex English terms. Write in Telugu script.",
}

// Phrases that signal partisan framing. Matched case-insensitively as
// substrings.
var biasPhrases = []string{
	"recommend voting",
	"support party",
	"best candidate",
	"worst politician",
	"you should vote",
	"don't vote for",
	"good leader",
	"bad leader",
	"corrupt",
	"honest politician",
	"vote for",
	"support this party",
}

var newlineRuns = regexp.MustCompile(`\n+`)

// BuildContext renders a bundle as the evidence block of a prompt. Markup in
// provider data is stripped and whitespace collapsed to single spaces.
func BuildContext(in intent.Intent, b evidence.Bundle) string {
	return fmt.Sprintf("INTENT: %s\nSOURCE: %s\nDATA: %s", in, b.Source, normalize(b.Data))
}

func normalize(data string) string {
	text := data
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(data)); err == nil {
		doc.Find("script, style").Remove()
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}

// ForQuery picks the template for in and fills it. Grievance and general
// queries use the civic Q&A template.
func ForQuery(in intent.Intent, question, context string, lang language.Language) string {
	var tmpl string
	switch in {
	case intent.Law:
		tmpl = legalTemplate
	case intent.Representative:
		tmpl = representativeTemplate
	case intent.FactCheck:
		tmpl = factCheckTemplate
	default:
		tmpl = qaTemplate
	}

	return fill(tmpl, lang, "{question}", question, "{context}", context)
}

func ForFactCheck(claim, context string, lang language.Language) string {
	return fill(factCheckTemplate, lang, "{question}", claim, "{context}", context)
}

func ForGrievance(issue, department string, lang language.Language) string {
	return fill(grievanceTemplate, lang, "{issue}", issue, "{department}", department)
}

func fill(tmpl string, lang language.Language, pairs ...string) string {
	pairs = append(pairs, "{language}", lang.String())
	filled := strings.NewReplacer(pairs...).Replace(tmpl)
	return filled + "\n\nLANGUAGE INSTRUCTION: " + LanguageInstruction(lang)
}

// LanguageInstruction falls back to the English instruction for unknown tags.
func LanguageInstruction(lang language.Language) string {
	if s, ok := languageInstructions[lang]; ok {
		return s
	}
	return languageInstructions[language.English]
}

// CheckNeutrality returns the bias phrases present in text, in list order.
func CheckNeutrality(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, phrase := range biasPhrases {
		if strings.Contains(lower, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}

// PostProcess collapses runs of newlines and trims surrounding whitespace.
func PostProcess(text string) string {
	return strings.TrimSpace(newlineRuns.ReplaceAllString(text, "\n"))
}
