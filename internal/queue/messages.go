package queue

import (
	"encoding/json"
	"time"
)

// ReceiptProcessMessage asks the extraction pipeline to read the images of a
// receipt and deliver its items back through the pipeline API.
type ReceiptProcessMessage struct {
	ReceiptID   string    `json:"receipt_id"`
	ImageURLs   []string  `json:"image_urls"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewReceiptProcessMessage(receiptID string, imageURLs []string) *ReceiptProcessMessage {
	return &ReceiptProcessMessage{
		ReceiptID:   receiptID,
		ImageURLs:   imageURLs,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *ReceiptProcessMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptProcessMessageFromJSON(data []byte) (*ReceiptProcessMessage, error) {
	var msg ReceiptProcessMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
