// Package intent assigns a coarse civic category to a citizen query.
package intent

import (
	"regexp"
	"strings"
)

type Intent string

const (
	Law            Intent = "law"
	Representative Intent = "representative"
	FactCheck      Intent = "fact-check"
	Grievance      Intent = "grievance"
	General        Intent = "general"
)

// All returns every intent in classification order, General last.
func All() []Intent {
	return []Intent{Law, Representative, FactCheck, Grievance, General}
}

type rule struct {
	intent  Intent
	pattern *regexp.Regexp
}

// First match wins. A query mentioning both "court" and "minister" is law.
var rules = []rule{
	{Law, regexp.MustCompile(`\b(law|act|bill|section|legal|court)\b`)},
	{Representative, regexp.MustCompile(`\b(mla|mp|representative|minister|politician)\b`)},
	{FactCheck, regexp.MustCompile(`\b(fact|true|false|verify|check|claim|fake)\b`)},
	{Grievance, regexp.MustCompile(`\b(complaint|grievance|problem|issue)\b`)},
}

// Classify lower-cases text and returns the intent of the first matching
// keyword rule, or General.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.pattern.MatchString(lower) {
			return r.intent
		}
	}
	return General
}

func Parse(s string) (Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, i := range All() {
		if string(i) == s {
			return i, true
		}
	}
	return "", false
}

func (i Intent) String() string {
	return string(i)
}
