package uelog

import "github.com/uelog/uelog-go/pkg/uelog/record"

// compiledFilter holds pre-built lookup sets for record filtering.
// Exclude sets take precedence over include sets; an empty include set
// allows everything.
type compiledFilter struct {
	includeCategories  map[string]struct{}
	excludeCategories  map[string]struct{}
	includeVerbosities map[record.Verbosity]struct{}
	excludeVerbosities map[record.Verbosity]struct{}
}

func newCompiledFilter(includeCats, excludeCats []string, includeVerbs, excludeVerbs []record.Verbosity) *compiledFilter {
	f := &compiledFilter{}
	f.setIncludeCategories(includeCats)
	f.setExcludeCategories(excludeCats)
	f.setIncludeVerbosities(includeVerbs)
	f.setExcludeVerbosities(excludeVerbs)
	return f
}

func (f *compiledFilter) setIncludeCategories(cats []string) {
	f.includeCategories = makeSet(cats)
}

func (f *compiledFilter) setExcludeCategories(cats []string) {
	f.excludeCategories = makeSet(cats)
}

func (f *compiledFilter) setIncludeVerbosities(verbs []record.Verbosity) {
	f.includeVerbosities = makeSet(verbs)
}

func (f *compiledFilter) setExcludeVerbosities(verbs []record.Verbosity) {
	f.excludeVerbosities = makeSet(verbs)
}

func makeSet[T comparable](items []T) map[T]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// Allows reports whether the record passes the filter.
// A nil filter allows everything.
func (f *compiledFilter) Allows(rec *record.Record) bool {
	if f == nil {
		return true
	}
	if _, excluded := f.excludeCategories[rec.Category]; excluded {
		return false
	}
	if _, excluded := f.excludeVerbosities[rec.Verbosity]; excluded {
		return false
	}
	if len(f.includeCategories) > 0 {
		if _, ok := f.includeCategories[rec.Category]; !ok {
			return false
		}
	}
	if len(f.includeVerbosities) > 0 {
		if _, ok := f.includeVerbosities[rec.Verbosity]; !ok {
			return false
		}
	}
	return true
}
