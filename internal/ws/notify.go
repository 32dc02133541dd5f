package ws

import (
	"time"

	"github.com/google/uuid"
)

// NotifyRecordsChanged tells the user's open pages that their records
// changed elsewhere, so list views can refetch. Charts follow on their own.
func (h *Hub) NotifyRecordsChanged(rawUserID string) {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return
	}
	h.SendToUser(userID, encode(EventMessage{
		Type:      TypeRecordsChanged,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
}
