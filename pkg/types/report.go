package types

import "time"

// PostReport records that a device flagged a post as spam/fake. The core
// stores the flag and forwards it downstream; it draws no moderation
// conclusion itself.
type PostReport struct {
	ID        string    `db:"id" json:"id"`
	PostID    string    `db:"post_id" json:"post_id"`
	DeviceID  string    `db:"device_id" json:"device_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
