package types

import (
	"strings"
	"time"
)

type PostType string

const (
	PostTypeNeed  PostType = "NEED"
	PostTypeOffer PostType = "OFFER"
)

type Urgency string

const (
	UrgencyNormal Urgency = "NORMAL"
	UrgencyUrgent Urgency = "URGENT"
)

type PostStatus string

const (
	PostStatusOpen                PostStatus = "OPEN"
	PostStatusInProgress          PostStatus = "IN_PROGRESS"
	PostStatusPendingConfirmation PostStatus = "PENDING_CONFIRMATION"
	PostStatusFulfilled           PostStatus = "FULFILLED"
)

// Categories is the known set. The column is plain text, so unknown values
// survive a round trip; these are what the form offers.
var Categories = []string{"Food", "Water", "Medical", "Shelter", "Power", "Transport", "Other"}

type Post struct {
	ID       string   `db:"id" json:"id"`
	Type     PostType `db:"type" json:"type"`
	Urgency  Urgency  `db:"urgency" json:"urgency"`
	Category string   `db:"category" json:"category"`

	Item        string  `db:"item" json:"item"`
	Quantity    *string `db:"quantity" json:"quantity,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`
	Location    string  `db:"location" json:"location"`
	Contact     string  `db:"contact" json:"contact"`

	Status PostStatus `db:"status" json:"status"`

	// DeviceID identifies the creating device. Nil on posts that predate
	// device tagging; ownership checks fall back to allowing any device.
	DeviceID *string `db:"device_id" json:"device_id,omitempty"`

	// ClaimantDevice is set when a helper claims the post and cleared when
	// it reopens. Only this device may mark the post done.
	ClaimantDevice *string `db:"claimant_device" json:"claimant_device,omitempty"`

	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Post) IsOwnedBy(deviceID string) bool {
	// Legacy posts without a device id are confirmable by anyone.
	if p.DeviceID == nil {
		return true
	}
	return *p.DeviceID == deviceID
}

func (p *Post) IsClaimedBy(deviceID string) bool {
	return p.ClaimantDevice != nil && *p.ClaimantDevice == deviceID
}

type PostInput struct {
	Type        PostType `form:"type" json:"type"`
	Urgency     Urgency  `form:"urgency" json:"urgency"`
	Category    string   `form:"category" json:"category"`
	Item        string   `form:"item" json:"item"`
	Quantity    string   `form:"quantity" json:"quantity"`
	Description string   `form:"description" json:"description"`
	Location    string   `form:"location" json:"location"`
	Contact     string   `form:"contact" json:"contact"`
	Latitude    *float64 `form:"latitude" json:"latitude,omitempty"`
	Longitude   *float64 `form:"longitude" json:"longitude,omitempty"`
}

func (in *PostInput) Validate() map[string]string {
	errs := map[string]string{}

	if in.Type != PostTypeNeed && in.Type != PostTypeOffer {
		errs["type"] = "Type must be NEED or OFFER."
	}

	switch in.Urgency {
	case "":
		in.Urgency = UrgencyNormal
	case UrgencyNormal, UrgencyUrgent:
	default:
		errs["urgency"] = "Urgency must be NORMAL or URGENT."
	}

	if in.Category == "" {
		in.Category = "Other"
	}

	if strings.TrimSpace(in.Item) == "" {
		errs["item"] = "Item is required."
	}

	if strings.TrimSpace(in.Location) == "" {
		errs["location"] = "Location is required."
	}

	if strings.TrimSpace(in.Contact) == "" {
		errs["contact"] = "Contact is required."
	}

	return errs
}

// urgentKeywords promote a post to URGENT at creation time when they appear
// in the item or description.
var urgentKeywords = []string{"medical", "blood", "injured", "life", "emergency", "trapped", "dying", "critical"}

func (in *PostInput) DetectUrgency() Urgency {
	if in.Urgency == UrgencyUrgent {
		return UrgencyUrgent
	}

	text := strings.ToLower(in.Item + " " + in.Description)
	for _, kw := range urgentKeywords {
		if strings.Contains(text, kw) {
			return UrgencyUrgent
		}
	}

	return UrgencyNormal
}

type StatsData struct {
	OpenNeeds  int `json:"open_needs"`
	OpenOffers int `json:"open_offers"`
	Fulfilled  int `json:"fulfilled"`
}
