package docmodel

import "sort"

// Section is a node in a manual's heading hierarchy, identified by a
// dot-delimited numeric id such as "5.5.1". Parent and Children hold id
// references into the owning SectionMap, never pointers.
type Section struct {
	ID          string   `json:"-"`
	Title       string   `json:"title"`
	Text        string   `json:"text"`
	PageNumbers []int    `json:"page_numbers"`
	Parent      string   `json:"parent,omitempty"`
	Children    []string `json:"children"`
}

// Depth returns the number of dot separators in the section id.
// "5.5" is depth 1, "5.5.1" is depth 2.
func (s *Section) Depth() int {
	n := 0
	for _, r := range s.ID {
		if r == '.' {
			n++
		}
	}
	return n
}

// SectionMap is the owning map from section id to Section.
type SectionMap map[string]*Section

// SortedIDs returns all section ids in ascending lexicographic order.
func (m SectionMap) SortedIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
