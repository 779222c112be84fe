// Package language tags citizen text with one of the supported Indian
// response languages using Unicode script ranges.
package language

import (
	"strings"
	"unicode"
)

type Language string

const (
	English   Language = "english"
	Hindi     Language = "hindi"
	Tamil     Language = "tamil"
	Malayalam Language = "malayalam"
	Telugu    Language = "telugu"
)

// All returns every supported language, English first.
func All() []Language {
	return []Language{English, Hindi, Tamil, Malayalam, Telugu}
}

type scriptRule struct {
	lang  Language
	table *unicode.RangeTable
}

// Checked in order; the first script present in the text wins, so mixed
// Devanagari/Tamil input is tagged hindi.
var scriptRules = []scriptRule{
	{Hindi, rangeTable(0x0900, 0x097F)},
	{Tamil, rangeTable(0x0B80, 0x0BFF)},
	{Malayalam, rangeTable(0x0D00, 0x0D7F)},
	{Telugu, rangeTable(0x0C00, 0x0C7F)},
}

func rangeTable(lo, hi rune) *unicode.RangeTable {
	return &unicode.RangeTable{
		R16: []unicode.Range16{{Lo: uint16(lo), Hi: uint16(hi), Stride: 1}},
	}
}

// Detect returns the language of the first matching script range, or English.
func Detect(text string) Language {
	for _, rule := range scriptRules {
		if containsScript(text, rule.table) {
			return rule.lang
		}
	}
	return English
}

func containsScript(text string, table *unicode.RangeTable) bool {
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}

// Parse maps a caller-supplied tag to a Language, ignoring case and
// surrounding whitespace.
func Parse(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range All() {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Resolve prefers an explicit, known override and otherwise detects.
func Resolve(override, text string) Language {
	if l, ok := Parse(override); ok {
		return l
	}
	return Detect(text)
}

func (l Language) String() string {
	return string(l)
}
