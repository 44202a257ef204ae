package matching

import (
	"locallink/pkg/types"

	"github.com/samber/lo"
)

// PreviewSize caps how many matches are spelled out; the rest are
// summarized as a count. Presentation cap only, never applied to Matches.
const PreviewSize = 2

// Matches returns the open posts complementary to target: opposite type,
// same category, in store order. A target that is not OPEN matches nothing.
// Pure function over the snapshot it is given.
func Matches(posts []*types.Post, target *types.Post) []*types.Post {
	if target == nil || target.Status != types.PostStatusOpen {
		return nil
	}

	wanted := types.PostTypeOffer
	if target.Type == types.PostTypeOffer {
		wanted = types.PostTypeNeed
	}

	return lo.Filter(posts, func(p *types.Post, _ int) bool {
		if p.ID == target.ID {
			return false
		}
		if p.Status != types.PostStatusOpen {
			return false
		}
		if p.Type != wanted {
			return false
		}
		return p.Category == target.Category
	})
}

// Suggestion is what the feed surfaces next to a post: the true match
// count plus a short preview.
type Suggestion struct {
	Total   int           `json:"total"`
	Preview []*types.Post `json:"preview"`
	More    int           `json:"more"`
}

func Suggest(posts []*types.Post, target *types.Post) Suggestion {
	matches := Matches(posts, target)

	preview := matches
	if len(preview) > PreviewSize {
		preview = preview[:PreviewSize]
	}

	return Suggestion{
		Total:   len(matches),
		Preview: preview,
		More:    len(matches) - len(preview),
	}
}
