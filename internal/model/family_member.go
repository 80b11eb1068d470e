package model

// FamilyMember is one person on the tracker. ID and Name never change once
// created; Progress always holds all seven days.
type FamilyMember struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Progress StudyProgress `json:"progress"`
}
