package domain

import (
	"cmp"
	"slices"
)

// DefaultTopN is the size of the top-zones table.
const DefaultTopN = 10

// TopN returns the n highest-risk records ordered by severity then case
// count, both descending. Ties keep input order. A non-positive n means
// DefaultTopN. records is not modified.
func TopN(records []Record, n int) []Record {
	if n <= 0 {
		n = DefaultTopN
	}
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
			return c
		}
		return cmp.Compare(b.CaseCount, a.CaseCount)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		return []Record{}
	}
	return sorted
}
