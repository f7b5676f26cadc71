package structure

import (
	"sort"
	"strings"

	"github.com/lexforge/manualqa/internal/docmodel"
)

// buildHierarchy assigns parent and children references across the map.
// Relationships are id strings, not pointers: a two-part id like "5.5"
// gets the synthetic root stub "5" as parent even though no Section
// record exists for it.
func buildHierarchy(sections docmodel.SectionMap) {
	for id, section := range sections {
		parts := strings.Split(id, ".")
		switch {
		case len(parts) > 2:
			section.Parent = strings.Join(parts[:len(parts)-1], ".")
		case len(parts) == 2:
			section.Parent = parts[0]
		}

		children := []string{}
		for otherID := range sections {
			otherParts := strings.Split(otherID, ".")
			if len(otherParts) == len(parts)+1 && strings.HasPrefix(otherID, id+".") {
				children = append(children, otherID)
			}
		}
		sort.Strings(children)
		section.Children = children
	}
}

// FilterPrefix retains only the section with the given id and its
// descendants. It is a final projection: parent and children references
// computed before filtering are left untouched, so a child reference may
// point outside the filtered map.
func FilterPrefix(sections docmodel.SectionMap, prefix string) docmodel.SectionMap {
	if prefix == "" {
		return sections
	}
	filtered := make(docmodel.SectionMap)
	for id, section := range sections {
		if id == prefix || strings.HasPrefix(id, prefix+".") {
			filtered[id] = section
		}
	}
	return filtered
}
