package expert

import (
	"strings"

	"github.com/Strob0t/TwinForge/internal/domain/request"
)

// keywordGroup appends fixed items to list fields when any trigger occurs in
// the lowercased description.
type keywordGroup struct {
	triggers []string
	adds     map[string][]string
}

func (g keywordGroup) matches(desc string) bool {
	for _, t := range g.triggers {
		if strings.Contains(desc, t) {
			return true
		}
	}
	return false
}

// template is the declarative form of an expert's analysis generator.
type template struct {
	scalars  map[string]string
	lists    []string
	groups   []keywordGroup
	fallback map[string][]string
}

// generator returns a Generator that applies every matching group in order
// to the same growing lists. The fallback applies only when no group
// matched.
func (t template) generator() Generator {
	return func(req *request.Request) Result {
		r := make(Result, len(t.scalars)+len(t.lists))
		for k, v := range t.scalars {
			r[k] = v
		}
		lists := make(map[string][]string, len(t.lists))
		for _, f := range t.lists {
			lists[f] = []string{}
		}

		desc := strings.ToLower(req.Description)
		matched := false
		for _, g := range t.groups {
			if !g.matches(desc) {
				continue
			}
			matched = true
			for f, items := range g.adds {
				lists[f] = append(lists[f], items...)
			}
		}
		if !matched {
			for f, items := range t.fallback {
				lists[f] = append(lists[f], items...)
			}
		}

		for f, items := range lists {
			r[f] = items
		}
		return r
	}
}
