package model

// VerseOfTheDay is what the verse provider returns. It is never stored.
type VerseOfTheDay struct {
	Verse      string `json:"verse"`
	Reference  string `json:"reference"`
	Reflection string `json:"reflection"`
}
