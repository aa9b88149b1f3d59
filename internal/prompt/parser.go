package prompt

import (
	"regexp"
	"strings"

	"github.com/pkowalski/pimpmyprompt/internal/domain"
)

// questionHeaderRegex matches a question header line: optional bold markers,
// the header token, whitespace, digits, optional bold markers, a colon, then
// the question text.
var questionHeaderRegex = regexp.MustCompile(
	`^(?:\*\*)?\s*` + QuestionHeaderToken + `\s+\d+\s*(?:\*\*)?\s*:(.*)$`,
)

// ParseQuestionsWithOptions extracts question/option records from free-form
// model output. Lines that match neither the header nor the option grammar
// are ignored; the model tends to wrap the structured block in conversational
// filler. A header with no options before the next header (or end of input)
// is dropped. The function never fails: fully unparseable input yields an
// empty slice, which callers treat as "clarification unavailable".
func ParseQuestionsWithOptions(text string) []domain.QuestionRecord {
	var (
		records    []domain.QuestionRecord
		current    string
		hasCurrent bool
		options    []string
	)

	flush := func() {
		if hasCurrent && len(options) > 0 {
			records = append(records, domain.QuestionRecord{
				Question: current,
				Options:  options,
			})
		}
		options = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if m := questionHeaderRegex.FindStringSubmatch(line); m != nil {
			flush()
			current = strings.TrimSpace(strings.Trim(m[1], "* "))
			hasCurrent = true
			continue
		}

		if isOptionLine(line) {
			if !hasCurrent {
				continue
			}
			option := strings.TrimSpace(line[2:])
			if option != "" {
				options = append(options, option)
			}
		}
	}
	flush()

	return records
}

// isOptionLine reports whether the trimmed line starts with one of the fixed
// option labels: a capital A, B or C immediately followed by ")".
func isOptionLine(line string) bool {
	if len(line) < 2 || line[1] != ')' {
		return false
	}
	return line[0] == 'A' || line[0] == 'B' || line[0] == 'C'
}
