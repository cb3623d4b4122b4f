package caze

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/person"
)

// Matcher scores case pairs for duplicate likelihood. NameThreshold is the
// minimum trigram name similarity (0..1); ReportDateWindow is the maximum
// report date distance, compared in absolute time.
type Matcher struct {
	NameThreshold    float64
	ReportDateWindow time.Duration
}

// MatchInput pairs a case with its person record for similarity scoring.
type MatchInput struct {
	Case   *Case
	Person *person.Person
}

// DuplicatePair is a candidate for the merge review workflow. Parent is the
// more complete of the two records.
type DuplicatePair struct {
	Parent *MatchInput
	Child  *MatchInput
}

// trigrams returns the set of 3-grams of the lowercased string, each word
// padded with two leading and one trailing space, so word boundaries weigh
// into the comparison the way they do for the review users.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(s)) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			set[padded[i:i+3]] = struct{}{}
		}
	}
	return set
}

// NameSimilarity computes the Dice coefficient over the trigram sets of the
// two names: 2·|A∩B| / (|A|+|B|). Identical non-empty names score 1.
func NameSimilarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ta)+len(tb))
}

// Similar is the fuzzy duplicate predicate: trigram name similarity above
// the threshold, identical disease, overlapping jurisdiction, report dates
// within the window, and no disqualifying sex or birthdate mismatch. The
// predicate is symmetric.
func (m Matcher) Similar(a, b MatchInput) bool {
	if a.Case == nil || b.Case == nil || a.Person == nil || b.Person == nil {
		return false
	}
	if a.Case.Disease != b.Case.Disease {
		return false
	}
	if NameSimilarity(a.Person.FullName(), b.Person.FullName()) <= m.NameThreshold {
		return false
	}
	if !reportDatesClose(a.Case.ReportDate, b.Case.ReportDate, m.ReportDateWindow) {
		return false
	}
	if ao, bo := a.Case.OnsetDate(), b.Case.OnsetDate(); ao != nil && bo != nil &&
		!reportDatesClose(*ao, *bo, m.ReportDateWindow) {
		return false
	}
	if !jurisdictionsOverlap(a.Case, b.Case) {
		return false
	}
	// Optional fields disqualify only when both sides have them set. Two
	// records both missing birth data are not thereby more similar.
	if bothSetAndDiffer(a.Person.Sex, b.Person.Sex) {
		return false
	}
	if bothSetAndDifferInt(a.Person.BirthdateDD, b.Person.BirthdateDD) ||
		bothSetAndDifferInt(a.Person.BirthdateMM, b.Person.BirthdateMM) ||
		bothSetAndDifferInt(a.Person.BirthdateYYYY, b.Person.BirthdateYYYY) {
		return false
	}
	return true
}

// IsDuplicate ORs the exact-identifier predicates with the fuzzy one:
// shared external ID, shared external token, or combined similarity.
func (m Matcher) IsDuplicate(a, b MatchInput) bool {
	if a.Case == nil || b.Case == nil {
		return false
	}
	if a.Case.ExternalID != "" && a.Case.ExternalID == b.Case.ExternalID {
		return true
	}
	if a.Case.ExternalToken != "" && a.Case.ExternalToken == b.Case.ExternalToken {
		return true
	}
	return m.Similar(a, b)
}

// RankDuplicatePairs builds the ordered duplicate-review list: every
// distinct pair satisfying IsDuplicate, newest pairs first, with the more
// complete case of each pair as parent.
func (m Matcher) RankDuplicatePairs(inputs []MatchInput) []DuplicatePair {
	var pairs []DuplicatePair
	for i := range inputs {
		for j := i + 1; j < len(inputs); j++ {
			if !m.IsDuplicate(inputs[i], inputs[j]) {
				continue
			}
			parent, child := &inputs[i], &inputs[j]
			if child.Case.Completeness() > parent.Case.Completeness() {
				parent, child = child, parent
			}
			pairs = append(pairs, DuplicatePair{Parent: parent, Child: child})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairCreation(pairs[i]).After(pairCreation(pairs[j]))
	})
	return pairs
}

func pairCreation(p DuplicatePair) time.Time {
	if p.Child.Case.CreatedAt.After(p.Parent.Case.CreatedAt) {
		return p.Child.Case.CreatedAt
	}
	return p.Parent.Case.CreatedAt
}

func reportDatesClose(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}

// jurisdictionsOverlap matches responsible or current district of one case
// against responsible or current district of the other, falling back to the
// region level when neither side carries a district.
func jurisdictionsOverlap(a, b *Case) bool {
	if anyIDMatch([]*uuid.UUID{a.ResponsibleDistrictID, a.DistrictID},
		[]*uuid.UUID{b.ResponsibleDistrictID, b.DistrictID}) {
		return true
	}
	if a.ResponsibleDistrictID == nil && a.DistrictID == nil &&
		b.ResponsibleDistrictID == nil && b.DistrictID == nil {
		return anyIDMatch([]*uuid.UUID{a.ResponsibleRegionID, a.RegionID},
			[]*uuid.UUID{b.ResponsibleRegionID, b.RegionID})
	}
	return false
}

func anyIDMatch(as, bs []*uuid.UUID) bool {
	for _, a := range as {
		if a == nil {
			continue
		}
		for _, b := range bs {
			if b != nil && *a == *b {
				return true
			}
		}
	}
	return false
}

func bothSetAndDiffer(a, b *person.Sex) bool {
	return a != nil && b != nil && *a != *b
}

func bothSetAndDifferInt(a, b *int) bool {
	return a != nil && b != nil && *a != *b
}
