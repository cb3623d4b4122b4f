package caze

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
)

// An epid number is districtEpidCode-YY-suffix. The prefix form ends with
// the dash; a complete number carries a suffix containing at least one
// digit. Suffixes may hold historical noise, including stray dashes, so the
// prefix is always the last "-YY-" boundary.
var (
	epidPrefixRe   = regexp.MustCompile(`^[A-Za-z0-9-]+-\d{2}-$`)
	epidCompleteRe = regexp.MustCompile(`^[A-Za-z0-9-]+-\d{2}-.*\d.*$`)
	epidSplitRe    = regexp.MustCompile(`^([A-Za-z0-9-]+-\d{2}-)(.*)$`)
)

func IsEpidPrefix(s string) bool {
	return epidPrefixRe.MatchString(s)
}

func IsCompleteEpidNumber(s string) bool {
	return epidCompleteRe.MatchString(s)
}

// splitEpidNumber separates a complete epid number or prefix into the
// prefix (including the trailing dash) and the suffix after it.
func splitEpidNumber(s string) (prefix, suffix string) {
	m := epidSplitRe.FindStringSubmatch(s)
	if m == nil {
		return "", s
	}
	return m[1], m[2]
}

// suffixNumber strips every non-digit character from the suffix to tolerate
// historical data-entry noise, then parses the rest. ok is false when no
// digit remains.
func suffixNumber(suffix string) (n int, ok bool) {
	var digits strings.Builder
	for _, r := range suffix {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

// GenerateEpidNumber produces the next epid number for the case. When the
// case's current value is not already a well-formed prefix or number, a
// fresh prefix is synthesized from the responsible district's epid code and
// the report year. The suffix is one past the highest suffix sharing the
// prefix and disease, zero-padded to three digits; numbers past 999 simply
// grow a fourth digit.
//
// Concurrent generation for the same prefix may compute the same suffix;
// the uniqueness constraint on persistence catches that collision, the
// generator does not serialize.
func (s *Service) GenerateEpidNumber(ctx context.Context, c *Case) (string, error) {
	prefix := c.EpidNumber
	if !IsEpidPrefix(prefix) {
		if IsCompleteEpidNumber(prefix) {
			prefix, _ = splitEpidNumber(prefix)
		} else {
			if c.ResponsibleDistrictID == nil {
				return "", validationErr("epidNumberDistrictMissing",
					"cannot build an epid number without a responsible district")
			}
			code, err := s.districts.FullEpidCode(ctx, *c.ResponsibleDistrictID)
			if err != nil {
				return "", fmt.Errorf("district epid code: %w", err)
			}
			prefix = fmt.Sprintf("%s-%02d-", code, c.ReportDate.Year()%100)
		}
	}

	numbers, err := s.cases.ListEpidNumbersByPrefix(ctx, prefix, c.ID, c.Disease)
	if err != nil {
		return "", fmt.Errorf("list epid numbers: %w", err)
	}
	highest := 0
	for _, number := range numbers {
		if !strings.HasPrefix(number, prefix) {
			continue
		}
		if n, ok := suffixNumber(number[len(prefix):]); ok && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

// EpidNumberExists reports whether another non-deleted case of the disease
// carries the number. Suffixes compare numerically so leading-zero variants
// of the same number collide.
func (s *Service) EpidNumberExists(ctx context.Context, epidNumber string, excludeCaseID uuid.UUID, d disease.Disease) (bool, error) {
	prefix, suffix := splitEpidNumber(epidNumber)
	want, ok := suffixNumber(suffix)
	if !ok {
		return false, fmt.Errorf("%w: epid number %q has no numeric suffix", ErrDataIntegrity, epidNumber)
	}
	numbers, err := s.cases.ListEpidNumbersByPrefix(ctx, prefix, excludeCaseID, d)
	if err != nil {
		return false, fmt.Errorf("list epid numbers: %w", err)
	}
	for _, number := range numbers {
		if !strings.HasPrefix(number, prefix) {
			continue
		}
		if n, ok := suffixNumber(number[len(prefix):]); ok && n == want {
			return true, nil
		}
	}
	return false, nil
}
