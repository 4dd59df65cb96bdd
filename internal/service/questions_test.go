package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/campus-events/internal/apperr"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

func TestParseResponses(t *testing.T) {
	questions := []model.Question{
		{Text: "Program", Required: true, Kind: model.QuestionText},
		{Text: "Campus", Kind: model.QuestionSelect, Options: []string{"Progress", "Morningside"}},
		{Text: "Sessions", Kind: model.QuestionCheckbox, Options: []string{"am", "pm"}},
	}

	tests := []struct {
		name      string
		raw       map[string]string
		want      map[int]string
		wantMsg   string
		wantField string
	}{
		{
			name: "prefixed and bare keys",
			raw:  map[string]string{"question_0": "CS", "1": "Progress", "question_2": " am , pm "},
			want: map[int]string{0: "CS", 1: "Progress", 2: "am,pm"},
		},
		{
			name: "unknown keys dropped",
			raw:  map[string]string{"question_0": "CS", "question_7": "x", "email": "x", "-1": "x"},
			want: map[int]string{0: "CS"},
		},
		{
			name: "optional answers may be omitted",
			raw:  map[string]string{"question_0": "CS", "question_1": "  "},
			want: map[int]string{0: "CS"},
		},
		{
			name:      "missing required",
			raw:       map[string]string{"question_1": "Progress"},
			wantMsg:   "Program is required",
			wantField: "question_0",
		},
		{
			name:      "blank required",
			raw:       map[string]string{"question_0": "\t"},
			wantMsg:   "Program is required",
			wantField: "question_0",
		},
		{
			name:      "select outside options",
			raw:       map[string]string{"question_0": "CS", "question_1": "Downtown"},
			wantMsg:   "Campus must be one of: Progress, Morningside",
			wantField: "question_1",
		},
		{
			name:      "checkbox item outside options",
			raw:       map[string]string{"question_0": "CS", "question_2": "am,night"},
			wantMsg:   `"night" is not an option for Sessions`,
			wantField: "question_2",
		},
		{
			name:      "prefixed and bare key for the same question",
			raw:       map[string]string{"question_0": "CS", "0": "EE"},
			wantMsg:   "Program was answered more than once",
			wantField: "question_0",
		},
		{
			name:      "blank duplicate is still a duplicate",
			raw:       map[string]string{"question_0": "CS", "0": " "},
			wantMsg:   "Program was answered more than once",
			wantField: "question_0",
		},
		{
			name:      "signed indexes are not question keys",
			raw:       map[string]string{"+0": "CS", "question_+0": "CS", "question_-0": "CS"},
			wantMsg:   "Program is required",
			wantField: "question_0",
		},
		{
			name: "checkbox of only separators is omitted",
			raw:  map[string]string{"question_0": "CS", "question_2": " , "},
			want: map[int]string{0: "CS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponses(questions, tt.raw)
			if tt.wantMsg != "" {
				require.ErrorIs(t, err, apperr.ErrValidation)
				ae := apperr.From(err)
				assert.Equal(t, tt.wantMsg, ae.Message)
				assert.Equal(t, tt.wantField, ae.Metadata["question"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResponseKey(t *testing.T) {
	for key, want := range map[string]int{"question_0": 0, "3": 3, " question_12 ": 12, "007": 7} {
		i, ok := parseResponseKey(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, i, key)
	}
	for _, key := range []string{"", "question_", "+1", "question_+1", "-1", "1.0", "question_1a", "q1"} {
		_, ok := parseResponseKey(key)
		assert.False(t, ok, key)
	}
}

func TestParseResponsesWithoutQuestions(t *testing.T) {
	got, err := parseResponses(nil, map[string]string{"question_0": "x"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectWithoutOptionsAcceptsAnything(t *testing.T) {
	got, err := parseResponses([]model.Question{{Text: "Pick", Kind: model.QuestionSelect}}, map[string]string{"0": "whatever"})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "whatever"}, got)
}

func TestFormatResponses(t *testing.T) {
	assert.Nil(t, formatResponses(nil))
	assert.Equal(t, map[string]string{"question_3": "x"}, formatResponses(map[int]string{3: "x"}))
}

func TestValidateQuestions(t *testing.T) {
	assert.NoError(t, validateQuestions([]model.Question{
		{Text: "Name", Kind: model.QuestionText},
		{Text: "Size", Kind: model.QuestionSelect, Options: []string{"S"}},
	}))
	assert.ErrorIs(t, validateQuestions([]model.Question{{Text: "", Kind: model.QuestionText}}), apperr.ErrValidation)
	assert.ErrorIs(t, validateQuestions([]model.Question{{Text: "Q", Kind: "radio"}}), apperr.ErrValidation)
	assert.ErrorIs(t, validateQuestions([]model.Question{{Text: "Q", Kind: model.QuestionCheckbox}}), apperr.ErrValidation)
}
