package model

// TextRun is the text of one paragraph, located by section index and
// paragraph index within the section.
type TextRun struct {
	Section   int    `json:"section"`
	Paragraph int    `json:"paragraph"`
	Text      string `json:"text"`
}
