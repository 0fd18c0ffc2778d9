package engine

import "github.com/ovoronin/hireloop/internal/screening"

// State is the in-memory conversation state. Answering and editing are
// transient sub-states of a started interaction; only the durable lifecycle
// states live in the store.
type State int

const (
	// StateConsent waits for the personal-data processing decision.
	StateConsent State = iota
	// StateAnswering walks the question list in order.
	StateAnswering
	// StateEditing re-asks a single question selected from the review screen.
	StateEditing
	// StateReview shows the paginated answer summary before submission.
	StateReview
)

func (s State) String() string {
	switch s {
	case StateConsent:
		return "consent"
	case StateAnswering:
		return "answering"
	case StateEditing:
		return "editing"
	case StateReview:
		return "review"
	default:
		return "unknown"
	}
}

// Session is the typed working copy of one candidate's conversation,
// constructed at start/resume and flushed to the durable interaction after
// every mutating action.
type Session struct {
	ChatID        int64
	CandidateID   string
	ApplicationID string
	VacancyID     string
	InteractionID string
	Questions     []screening.Question
	Answers       map[string]string
	Current       int
	ReviewPage    int
	State         State
}

func (s *Session) question() *screening.Question {
	if s.Current < 0 || s.Current >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.Current]
}

func (s *Session) indexOf(questionID string) int {
	for i := range s.Questions {
		if s.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

func cloneAnswers(answers map[string]string) map[string]string {
	cloned := make(map[string]string, len(answers))
	for k, v := range answers {
		cloned[k] = v
	}
	return cloned
}
