package listing

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

// Criteria selects the listings worth tracking.
type Criteria struct {
	MaxPrice decimal.Decimal // Inclusive ceiling on the all-inclusive price
	Quantity int             // Exact ticket count required
	Sections map[string]struct{}
}

// NewCriteria builds Criteria, expanding section ranges such as "305-314".
func NewCriteria(maxPrice decimal.Decimal, quantity int, sections []string) (Criteria, error) {
	expanded, err := ExpandSections(sections)
	if err != nil {
		return Criteria{}, err
	}

	set := make(map[string]struct{}, len(expanded))
	for _, s := range expanded {
		set[s] = struct{}{}
	}

	return Criteria{
		MaxPrice: maxPrice,
		Quantity: quantity,
		Sections: set,
	}, nil
}

// Matches reports whether a single listing satisfies every predicate.
func (c Criteria) Matches(l model.Listing) bool {
	if l.Quantity != c.Quantity {
		return false
	}
	if _, ok := c.Sections[l.Section]; !ok {
		return false
	}
	return l.TotalPrice.LessThanOrEqual(c.MaxPrice)
}

// Filter returns the matching listings sorted by total price descending.
// Equal prices keep their input order. The input slice is not modified.
func (c Criteria) Filter(in []model.Listing) []model.Listing {
	out := make([]model.Listing, 0, len(in))
	for _, l := range in {
		if c.Matches(l) {
			out = append(out, l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPrice.GreaterThan(out[j].TotalPrice)
	})

	return out
}

// SectionList returns the configured sections in ascending order, numeric
// sections first.
func (c Criteria) SectionList() []string {
	list := make([]string, 0, len(c.Sections))
	for s := range c.Sections {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		a, errA := strconv.Atoi(list[i])
		b, errB := strconv.Atoi(list[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return list[i] < list[j]
	})
	return list
}

// ExpandSections turns a list of section patterns into individual sections.
// A pattern is either a literal section ("312", "GA") or an inclusive numeric
// range ("305-314").
func ExpandSections(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		lo, hi, isRange, err := parseRange(pattern)
		if err != nil {
			return nil, err
		}
		if !isRange {
			add(pattern)
			continue
		}
		for n := lo; n <= hi; n++ {
			add(strconv.Itoa(n))
		}
	}

	if len(out) == 0 {
		return nil, errors.New("no target sections")
	}
	return out, nil
}

// maxRangeWidth guards against typos like "1-99999".
const maxRangeWidth = 1000

func parseRange(pattern string) (lo, hi int, isRange bool, err error) {
	left, right, found := strings.Cut(pattern, "-")
	if !found {
		return 0, 0, false, nil
	}

	lo, errLo := strconv.Atoi(strings.TrimSpace(left))
	hi, errHi := strconv.Atoi(strings.TrimSpace(right))
	if errLo != nil || errHi != nil {
		// Not numeric on both sides: a literal section name such as "FLOOR-A".
		return 0, 0, false, nil
	}
	if hi < lo {
		return 0, 0, false, fmt.Errorf("section range %q is reversed", pattern)
	}
	if hi-lo >= maxRangeWidth {
		return 0, 0, false, fmt.Errorf("section range %q spans more than %d sections", pattern, maxRangeWidth)
	}
	return lo, hi, true, nil
}
