package access

import (
	"sort"

	"gorm.io/gorm"
)

// Filter is the tagged result of AccessibleResources. It is either
// unrestricted (no scoping needed) or a concrete, possibly empty, id set.
// An empty id set means deny-all and is never conflated with unrestricted.
type Filter struct {
	Unrestricted bool
	IDs          []string
}

// UnrestrictedFilter builds the no-scoping-needed result.
func UnrestrictedFilter() Filter {
	return Filter{Unrestricted: true}
}

// IDSetFilter builds a concrete id-set result, deduplicated and sorted.
func IDSetFilter(ids []string) Filter {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return Filter{IDs: out}
}

// Contains reports whether the filter admits the given resource id.
func (f Filter) Contains(id string) bool {
	if f.Unrestricted {
		return true
	}
	for _, candidate := range f.IDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// Scope narrows a query to the accessible ids. Listing endpoints apply the
// filter as a single indexed predicate instead of checking rows one by one.
func (f Filter) Scope(db *gorm.DB) *gorm.DB {
	if f.Unrestricted {
		return db
	}
	if len(f.IDs) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where("id IN ?", f.IDs)
}
