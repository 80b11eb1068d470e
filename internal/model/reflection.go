package model

// Reflection is one post in the family feed. Timestamp is in milliseconds
// since the Unix epoch.
type Reflection struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}
