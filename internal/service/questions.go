package service

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// responseKeyPrefix is the wire prefix of registration answers.
const responseKeyPrefix = "question_"

// questionKey returns the wire key for question i.
func questionKey(i int) string {
	return responseKeyPrefix + strconv.Itoa(i)
}

// parseResponseKey accepts "question_<i>" or a bare "<i>", where <i> is
// unsigned decimal.
func parseResponseKey(key string) (int, bool) {
	digits := strings.TrimPrefix(strings.TrimSpace(key), responseKeyPrefix)
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false
	}
	i, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return i, true
}

// parseResponses validates raw answers against the event's questions and
// returns them keyed by question index. Events without questions store no
// responses.
func parseResponses(questions []model.Question, raw map[string]string) (map[int]string, error) {
	if len(questions) == 0 {
		return nil, nil
	}

	answers := make(map[int]string, len(raw))
	seen := make(map[int]bool, len(raw))
	for key, value := range raw {
		i, ok := parseResponseKey(key)
		if !ok || i >= len(questions) {
			continue
		}
		if seen[i] {
			return nil, questionError(i, questions[i].Text+" was answered more than once")
		}
		seen[i] = true
		if v := strings.TrimSpace(value); v != "" {
			answers[i] = v
		}
	}

	for i, q := range questions {
		answer, ok := answers[i]
		if !ok {
			if q.Required {
				return nil, questionError(i, q.Text+" is required")
			}
			continue
		}
		if len(q.Options) == 0 {
			continue
		}
		switch q.Kind {
		case model.QuestionSelect:
			if !slices.Contains(q.Options, answer) {
				return nil, questionError(i, fmt.Sprintf("%s must be one of: %s", q.Text, strings.Join(q.Options, ", ")))
			}
		case model.QuestionCheckbox:
			items := splitChoices(answer)
			if len(items) == 0 {
				if q.Required {
					return nil, questionError(i, q.Text+" is required")
				}
				delete(answers, i)
				continue
			}
			for _, item := range items {
				if !slices.Contains(q.Options, item) {
					return nil, questionError(i, fmt.Sprintf("%q is not an option for %s", item, q.Text))
				}
			}
			answers[i] = strings.Join(items, ",")
		}
	}
	return answers, nil
}

func splitChoices(answer string) []string {
	var items []string
	for _, part := range strings.Split(answer, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func questionError(i int, msg string) error {
	return apperr.New(apperr.CodeValidation, msg).WithMeta("question", questionKey(i))
}

// formatResponses converts stored answers to their wire keys.
func formatResponses(answers map[int]string) map[string]string {
	if len(answers) == 0 {
		return nil
	}
	out := make(map[string]string, len(answers))
	for i, v := range answers {
		out[questionKey(i)] = v
	}
	return out
}

// validateQuestions checks question definitions supplied when an event is
// created.
func validateQuestions(questions []model.Question) error {
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return questionError(i, "question text is required")
		}
		if !q.Kind.Valid() {
			return questionError(i, fmt.Sprintf("unsupported question type %q", q.Kind))
		}
		if q.Kind != model.QuestionText && len(q.Options) == 0 {
			return questionError(i, q.Text+" needs at least one option")
		}
	}
	return nil
}
