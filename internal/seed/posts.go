package seed

import (
	"context"
	"fmt"
	"math/rand"

	"locallink/internal/identity"
	"locallink/internal/store"
	"locallink/pkg/types"
)

var seedLocations = []string{
	"Riverside Community Hall",
	"Main St / 4th Ave corner",
	"Eastside School Gym",
	"Harbor Parking Lot",
	"Old Market Square",
}

var seedContacts = []string{
	"+1 555 0101",
	"+1 555 0102",
	"+1 555 0103",
}

// Posts inserts one NEED and one OFFER per quick template so a fresh
// deployment has something to match against.
func Posts(ctx context.Context, postsRepo *store.PostRepository) ([]*types.Post, error) {

	deviceID := identity.NewDeviceID()

	created := make([]*types.Post, 0, len(types.QuickTemplates)*2)

	for _, template := range types.QuickTemplates {
		for _, postType := range []types.PostType{types.PostTypeNeed, types.PostTypeOffer} {

			post := &types.Post{
				Type:     postType,
				Urgency:  types.UrgencyNormal,
				Category: template.Category,
				Item:     template.Item,
				Location: seedLocations[rand.Intn(len(seedLocations))],
				Contact:  seedContacts[rand.Intn(len(seedContacts))],
				DeviceID: &deviceID,
			}

			if err := postsRepo.CreatePost(ctx, post); err != nil {
				return created, fmt.Errorf("failed to seed %s %s: %w", postType, template.Item, err)
			}

			created = append(created, post)
		}
	}

	return created, nil
}
