package dao

import (
	"regexp"
	"strings"

	"github.com/kmills/shortlink/rando"
)

const generatedCodeLength = 7

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

func newCode() string {
	code := rando.RandStrn(generatedCodeLength)
	for BadWord(code) {
		code = rando.RandStrn(generatedCodeLength)
	}
	return code
}

// CreateLink validates the request and persists a new link through d. An
// empty code means "generate one"; a supplied code is used verbatim. Either
// way, a code that is already taken surfaces as ErrDuplicateCode straight
// from the store. No retry, no pre-check.
func CreateLink(d LinkDao, targetURL string, code string) (Link, error) {
	if strings.TrimSpace(targetURL) == "" {
		return Link{}, ErrEmptyURL
	}
	if code == "" {
		code = newCode()
	} else if !codePattern.MatchString(code) {
		return Link{}, ErrInvalidCode
	}
	return d.Insert(code, targetURL)
}
