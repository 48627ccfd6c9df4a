package brand

import "time"

type EventType string

const (
	EventOnboarded        EventType = "brand.onboarded"
	EventPromptsCommitted EventType = "brand.prompts_committed"
)

// Event notifies downstream consumers that a record was written.
type Event struct {
	Type       EventType `json:"type"`
	RecordID   string    `json:"recordId"`
	BrandName  string    `json:"brandName"`
	URL        string    `json:"url"`
	Categories int       `json:"categories"`
	Questions  int       `json:"questions"`
	At         time.Time `json:"at"`
}

func NewEvent(t EventType, rec *BrandRecord) Event {
	evt := Event{Type: t, At: time.Now().UTC()}
	if rec == nil {
		return evt
	}
	evt.RecordID = rec.ID
	evt.BrandName = rec.BrandName
	evt.URL = rec.URL
	if ps, ok := rec.CurrentPromptSet(); ok {
		evt.Categories = len(ps.Categories)
		evt.Questions = ps.QuestionCount()
	}
	return evt
}
