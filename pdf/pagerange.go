package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageRange parses a 1-based page selection like "1-3,5,8-10" into a
// sorted list of unique 0-based page indices. An empty string or "all"
// selects every page. Pages outside the document are filtered out rather
// than rejected, so "1,5,15" against a 10-page document yields pages 1
// and 5.
func ParsePageRange(pages string, pageCount int) ([]int, error) {
	pages = strings.TrimSpace(pages)
	if pages == "" || strings.EqualFold(pages, "all") {
		all := make([]int, pageCount)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	seen := make(map[int]bool)

	for _, part := range strings.Split(pages, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if before, after, found := strings.Cut(part, "-"); found {
			start, err := strconv.Atoi(strings.TrimSpace(before))
			if err != nil {
				return nil, fmt.Errorf("invalid start page: %s", before)
			}
			end, err := strconv.Atoi(strings.TrimSpace(after))
			if err != nil {
				return nil, fmt.Errorf("invalid end page: %s", after)
			}
			if start < 1 || start > end {
				return nil, fmt.Errorf("invalid page range: %s", part)
			}
			for p := start; p <= end; p++ {
				if p <= pageCount {
					seen[p-1] = true
				}
			}
			continue
		}

		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", part)
		}
		if p < 1 {
			return nil, fmt.Errorf("invalid page number: %d", p)
		}
		if p <= pageCount {
			seen[p-1] = true
		}
	}

	result := make([]int, 0, len(seen))
	for p := range seen {
		result = append(result, p)
	}
	sort.Ints(result)

	return result, nil
}
