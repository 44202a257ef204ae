package view

import (
	"sort"
	"strings"

	"locallink/pkg/types"
)

type TypeFilter string

const (
	TypeAll    TypeFilter = "All"
	TypeNeeds  TypeFilter = "Needs"
	TypeOffers TypeFilter = "Offers"
)

const CategoryAll = "All"

// Options select and order the display list. Zero value means everything,
// newest first.
type Options struct {
	Type     TypeFilter
	Category string
	Search   string
}

// Apply filters and sorts a snapshot for presentation. Deterministic and
// stable: the same input always yields the same order.
func Apply(posts []*types.Post, opts Options) []*types.Post {
	return Sort(Filter(posts, opts))
}

// Filter keeps posts matching the type filter, the category filter and a
// case-insensitive substring search over item, location and description.
func Filter(posts []*types.Post, opts Options) []*types.Post {
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	out := make([]*types.Post, 0, len(posts))
	for _, p := range posts {
		if opts.Type == TypeNeeds && p.Type != types.PostTypeNeed {
			continue
		}
		if opts.Type == TypeOffers && p.Type != types.PostTypeOffer {
			continue
		}

		if opts.Category != "" && opts.Category != CategoryAll && p.Category != opts.Category {
			continue
		}

		if !matchesSearch(p, search) {
			continue
		}

		out = append(out, p)
	}

	return out
}

func matchesSearch(p *types.Post, search string) bool {
	if search == "" {
		return true
	}

	if strings.Contains(strings.ToLower(p.Item), search) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Location), search) {
		return true
	}
	if p.Description != nil && strings.Contains(strings.ToLower(*p.Description), search) {
		return true
	}

	return false
}

// Sort orders urgent open posts first (stable among themselves), then
// everything else by created_at descending.
func Sort(posts []*types.Post) []*types.Post {
	out := make([]*types.Post, len(posts))
	copy(out, posts)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		aHot := a.Urgency == types.UrgencyUrgent && a.Status == types.PostStatusOpen
		bHot := b.Urgency == types.UrgencyUrgent && b.Status == types.PostStatusOpen
		if aHot != bHot {
			return aHot
		}

		return a.CreatedAt.After(b.CreatedAt)
	})

	return out
}
