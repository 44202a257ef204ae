package types

type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// ChangeEvent is one entry of the post change feed, delivered in the
// store's commit order.
type ChangeEvent struct {
	Kind EventKind `json:"kind"`
	Post Post      `json:"post"`
}
