package request

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusConfirmed Status = "confirmed"
)

// Request is a peer challenge. Status only moves forward
// (pending -> completed -> confirmed); requests are purged by age regardless
// of status.
type Request struct {
	ID        string    `json:"id" firestore:"-"`
	Sender    string    `json:"sender" firestore:"sender"`
	Recipient string    `json:"recipient" firestore:"recipient"`
	Message   string    `json:"message" firestore:"message"`
	Status    Status    `json:"status" firestore:"status"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
