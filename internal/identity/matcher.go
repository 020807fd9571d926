// Package identity links institutional email addresses to roster entries.
//
// Matching is a pure scoring function over normalized names: the derived
// name of an email is compared with every roster row and the first row
// scoring at or above MatchThreshold wins, in roster order.
package identity

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// MatchThreshold is the minimum similarity score (0-100) for a roster match.
const MatchThreshold = 85

// ErrMalformedEmail is returned for input without a local part and domain.
var ErrMalformedEmail = errors.New("identity: malformed email address")

// SplitEmail returns the local part and domain of an address.
func SplitEmail(email string) (local, domainPart string, err error) {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "", "", ErrMalformedEmail
	}
	return email[:at], email[at+1:], nil
}

// DerivedName builds "first [middle] last" from the email's local part by
// splitting on the last period. It returns "" when the local part has no period.
func DerivedName(email string) (string, error) {
	local, _, err := SplitEmail(email)
	if err != nil {
		return "", err
	}
	dot := strings.LastIndexByte(local, '.')
	if dot < 0 {
		return "", nil
	}
	first := strings.ReplaceAll(local[:dot], ".", " ")
	last := local[dot+1:]
	return strings.TrimSpace(strings.TrimSpace(first) + " " + last), nil
}

// Normalize folds accents, lowercases, and sorts name tokens, then joins
// them without spaces or periods so that token order does not matter.
func Normalize(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(strings.ReplaceAll(folded, ".", " "))
	tokens := strings.Fields(folded)
	sort.Strings(tokens)
	return strings.Join(tokens, "")
}

// Score returns the similarity of two names in the range 0-100.
func Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	longest := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(na, nb)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// Match returns the first roster row whose name scores at or above
// MatchThreshold against the email's derived name, or nil when none does.
// Only a malformed email yields an error; rows without a name are skipped.
func Match(email string, roster []domain.AdminRosterRow) (*domain.AdminRosterRow, error) {
	name, err := DerivedName(email)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	for i := range roster {
		if strings.TrimSpace(roster[i].Name) == "" {
			continue
		}
		if Score(name, roster[i].Name) >= MatchThreshold {
			row := roster[i]
			return &row, nil
		}
	}
	return nil, nil
}

// CoursesFor returns the course rows whose lecturer equals name exactly,
// ignoring case and surrounding whitespace.
func CoursesFor(name string, roster []domain.CourseRosterRow) []domain.CourseRosterRow {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	var courses []domain.CourseRosterRow
	for _, row := range roster {
		if strings.EqualFold(strings.TrimSpace(row.Lecturer), name) {
			courses = append(courses, row)
		}
	}
	return courses
}
