package models

// Message represents a single message board entry.
type Message struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
