package dao

import "strings"

// Words we refuse to hand out in generated codes. Matched as substrings
// after lowercasing, so "clASSic" trips on "ass". Supplied codes are the
// caller's business and skip this filter.
var badWords = []string{
	"ass",
	"crap",
	"cunt",
	"damn",
	"dick",
	"fuck",
	"hell",
	"piss",
	"sex",
	"shit",
	"tit",
	"xxx",
}

func AcceptableWord(word string) bool {
	lowered := strings.ToLower(word)
	for _, bad := range badWords {
		if strings.Contains(lowered, bad) {
			return false
		}
	}
	return true
}

func BadWord(word string) bool {
	return !AcceptableWord(word)
}
