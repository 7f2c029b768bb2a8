package entity

// Set is a set of lowercase strings.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}

	return s
}

func (s Set) Has(value string) bool {
	_, ok := s[value]

	return ok
}

// FilterConfig holds the include/exclude allow-lists. Within a pair a non-empty
// include set decides alone and the exclude set is ignored.
type FilterConfig struct {
	IncludeExtensions Set
	ExcludeExtensions Set
	IncludeTypes      Set
	ExcludeTypes      Set
}

// Session is the run scoped import configuration. It is built once and never modified.
type Session struct {
	SourceRoot      string
	RootFolder      *Folder
	Filter          FilterConfig
	UpdateAssets    bool
	DeleteOriginal  bool
	BatchSize       int // 0 means unlimited
	IncludeDotFiles bool
}
