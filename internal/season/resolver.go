package season

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/private-school-system/backend/internal/models"
)

// ErrNotResolved means no season matched the label. Callers must not fall
// back to a default season; grading against a guessed season is worse than
// failing the request.
var ErrNotResolved = errors.New("season label not resolved")

var (
	numberPattern = regexp.MustCompile(`[0-9]+`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// Legacy records carry Arabic-Indic and extended Arabic-Indic digits.
var digitFolder = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
)

// Normalize folds a free-text season label into its comparable form:
// ASCII digits, lower case, trimmed, inner runs of whitespace collapsed.
func Normalize(label string) string {
	s := digitFolder.Replace(label)
	s = strings.ToLower(strings.TrimSpace(s))
	return spacePattern.ReplaceAllString(s, " ")
}

// Variants returns every normalized form a season answers to: each of its
// display names, the canonical "season {order}" form, and the bare order.
func Variants(s models.Season) []string {
	out := make([]string, 0, len(s.Names)+2)
	for _, name := range s.Names {
		if v := Normalize(name); v != "" {
			out = append(out, v)
		}
	}
	out = append(out, fmt.Sprintf("season %d", s.Order), strconv.Itoa(s.Order))
	return out
}

// Resolve maps a free-text label to the canonical season. Exact variant
// matches win; if data corruption ever lets two seasons share a variant, the
// lowest order wins so the answer stays deterministic. Labels that match no
// variant fall back to their first integer substring compared against season
// orders, which covers malformed legacy entries like "Saeson 2 ".
func Resolve(label string, seasons []models.Season) (*models.Season, error) {
	candidate := Normalize(label)
	if candidate == "" {
		return nil, ErrNotResolved
	}

	var match *models.Season
	for i := range seasons {
		s := &seasons[i]
		for _, v := range Variants(*s) {
			if v == candidate {
				if match == nil || s.Order < match.Order {
					match = s
				}
				break
			}
		}
	}
	if match != nil {
		return match, nil
	}

	if digits := numberPattern.FindString(candidate); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			for i := range seasons {
				if seasons[i].Order == n {
					return &seasons[i], nil
				}
			}
		}
	}

	return nil, ErrNotResolved
}
