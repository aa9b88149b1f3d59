package domain

// QuestionRecord is a parsed clarification question together with its suggested
// answers. Records are produced by the response parser and never mutated after
// creation.
type QuestionRecord struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}
