package model

import "encoding/json"

// Summary is the structured result of summarizing one video. It is stored as
// a JSON document, MarshalJSON/UnmarshalJSON on the payload type define that
// schema and nothing else touches it.
type Summary struct {
	Category        Category
	CoreMessage     string
	DetailedSummary string
	KeyTakeaways    []string
	Timestamps      []TimestampNote
	ActionItems     []string
}

type TimestampNote struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

func (s *Summary) Valid() bool {
	return s != nil && s.Category.Valid() && s.CoreMessage != ""
}

type summaryPayload struct {
	Category        string          `json:"category"`
	CoreMessage     string          `json:"core_message"`
	DetailedSummary string          `json:"detailed_summary"`
	KeyTakeaways    []string        `json:"key_takeaways"`
	Timestamps      []TimestampNote `json:"timestamps,omitempty"`
	ActionItems     []string        `json:"action_items,omitempty"`
}

func (s *Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryPayload{
		Category:        string(s.Category),
		CoreMessage:     s.CoreMessage,
		DetailedSummary: s.DetailedSummary,
		KeyTakeaways:    s.KeyTakeaways,
		Timestamps:      s.Timestamps,
		ActionItems:     s.ActionItems,
	})
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	var p summaryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	s.Category = Category(p.Category)
	s.CoreMessage = p.CoreMessage
	s.DetailedSummary = p.DetailedSummary
	s.KeyTakeaways = p.KeyTakeaways
	s.Timestamps = p.Timestamps
	s.ActionItems = p.ActionItems

	return nil
}
