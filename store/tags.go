package store

import (
	"strings"

	"github.com/soundforge/soundforge/model"
)

/*

Tag index. Tags are stored case-normalized on the item rows themselves, so
filtering is an exact-token set intersection and needs no separate index
table. Category pages are just a single-tag filter.

*/

// NormalizeTags lowercases, trims and deduplicates a tag set. Empty tokens
// are dropped. Order of first appearance is preserved.
func NormalizeTags(tags []string) []string {
	seen := map[string]bool{}
	normalized := []string{}
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	return normalized
}

// FilterByTags returns the items whose tag set intersects the given tags.
// Matching is case-normalized and exact-token: "music" matches the tag
// "music" but not "musician". An unknown tag simply matches nothing.
func FilterByTags(items []model.ContentItem, tags []string) []model.ContentItem {
	wanted := map[string]bool{}
	for _, t := range NormalizeTags(tags) {
		wanted[t] = true
	}
	matched := []model.ContentItem{}
	if len(wanted) == 0 {
		return matched
	}
	for _, item := range items {
		core := item.Core()
		if core == nil {
			continue
		}
		for _, t := range core.Tags {
			if wanted[strings.ToLower(t)] {
				matched = append(matched, item)
				break
			}
		}
	}
	return matched
}
