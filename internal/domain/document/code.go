package document

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	mmmLen  = 3
	ggggLen = 4
	vvvLen  = 3
	seqLen  = 4
)

var upper = cases.Upper(language.Und)

func filterSegment(s string, keep func(rune) bool) string {
	var b strings.Builder
	for _, r := range upper.String(strings.TrimSpace(s)) {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIILetter(r rune) bool { return r >= 'A' && r <= 'Z' }

func isASCIIAlnum(r rune) bool { return isASCIILetter(r) || (r >= '0' && r <= '9') }

// NormalizeMMM uppercases a machine segment and checks it is three letters.
func NormalizeMMM(s string) (string, error) {
	v := filterSegment(s, isASCIILetter)
	if len(v) != mmmLen {
		return "", fmt.Errorf("%w: machine code %q must be %d letters", ErrInvalidInput, s, mmmLen)
	}
	return v, nil
}

// NormalizeGGGG uppercases a group segment and checks it is four letters.
func NormalizeGGGG(s string) (string, error) {
	v := filterSegment(s, isASCIILetter)
	if len(v) != ggggLen {
		return "", fmt.Errorf("%w: group code %q must be %d letters", ErrInvalidInput, s, ggggLen)
	}
	return v, nil
}

// NormalizeVVV uppercases a variant segment. Empty means no variant.
func NormalizeVVV(s string) (string, error) {
	v := filterSegment(s, isASCIIAlnum)
	if v != "" && len(v) != vvvLen {
		return "", fmt.Errorf("%w: variant %q must be %d alphanumerics", ErrInvalidInput, s, vvvLen)
	}
	return v, nil
}

// NormalizePropertyName uppercases a custom property name.
func NormalizePropertyName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, upper.String(strings.TrimSpace(s)))
}

// BuildCode formats a document code from already-normalized segments.
//
//	PART/ASSY  MMM_GGGG-0001 or MMM_GGGG-VVV-0001
//	MACHINE    MMM-V0001
//	GROUP      MMM_GGGG-V0001
func BuildCode(docType DocType, mmm, gggg, vvv string, seq int) string {
	switch docType {
	case DocTypeMachine:
		return fmt.Sprintf("%s-V%0*d", mmm, seqLen, seq)
	case DocTypeGroup:
		return fmt.Sprintf("%s_%s-V%0*d", mmm, gggg, seqLen, seq)
	}
	if vvv != "" {
		return fmt.Sprintf("%s_%s-%s-%0*d", mmm, gggg, vvv, seqLen, seq)
	}
	return fmt.Sprintf("%s_%s-%0*d", mmm, gggg, seqLen, seq)
}
