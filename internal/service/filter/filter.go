// Package filter decides whether files and assets are allowed by the
// include/exclude options.
package filter

import (
	"strings"

	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/jgivc/assetimporter/internal/util"
)

// IsAllowed reports whether value passes the include/exclude pair. A non-empty
// include set overrules the exclude set.
func IsAllowed(value string, include, exclude entity.Set) bool {
	value = strings.ToLower(value)

	if len(include) > 0 {
		return include.Has(value)
	}

	if len(exclude) > 0 {
		return !exclude.Has(value)
	}

	return true
}

type Filter struct {
	cfg entity.FilterConfig
}

func New(cfg entity.FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

func (f *Filter) AllowExtension(ext string) bool {
	return IsAllowed(ext, f.cfg.IncludeExtensions, f.cfg.ExcludeExtensions)
}

func (f *Filter) AllowType(assetType string) bool {
	return IsAllowed(assetType, f.cfg.IncludeTypes, f.cfg.ExcludeTypes)
}

// NewFilterConfig builds a FilterConfig from comma separated, case insensitive lists.
func NewFilterConfig(includeTypes, excludeTypes, includeExtensions, excludeExtensions string) entity.FilterConfig {
	return entity.FilterConfig{
		IncludeTypes:      parseList(includeTypes, false),
		ExcludeTypes:      parseList(excludeTypes, false),
		IncludeExtensions: parseList(includeExtensions, true),
		ExcludeExtensions: parseList(excludeExtensions, true),
	}
}

func parseList(s string, extensions bool) entity.Set {
	set := entity.NewSet()
	for _, item := range util.TrimSplit(strings.ToLower(s), ",") {
		if extensions {
			item = strings.TrimPrefix(item, ".")
		}

		if item != "" {
			set[item] = struct{}{}
		}
	}

	return set
}
