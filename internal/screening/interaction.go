package screening

import "time"

// InteractionState is the persisted lifecycle state of an interaction.
// Answering and editing are transient in-memory sub-states of started and
// are never written to the store.
type InteractionState string

const (
	InteractionStarted   InteractionState = "started"
	InteractionPaused    InteractionState = "paused"
	InteractionReview    InteractionState = "review"
	InteractionCompleted InteractionState = "completed"
	InteractionNoConsent InteractionState = "no_consent"
)

// Consent is the candidate's personal-data processing consent.
type Consent string

const (
	ConsentUnset    Consent = ""
	ConsentGranted  Consent = "granted"
	ConsentDeclined Consent = "declined"
)

// Interaction is the durable record of one candidate's progress through one
// application's questionnaire: the current question pointer, the accumulated
// answers keyed by question id, and lifecycle timestamps. At most one
// non-terminal interaction exists per application.
type Interaction struct {
	ID                string
	CandidateID       string
	ApplicationID     string
	VacancyID         string
	CurrentQuestionID string
	Step              int
	Answers           map[string]string
	State             InteractionState
	Consent           Consent
	Version           int64
	StartedAt         time.Time
	LastActive        time.Time
	CompletedAt       *time.Time
}

// Terminal reports whether the interaction reached a final state.
func (i *Interaction) Terminal() bool {
	return i.State == InteractionCompleted || i.State == InteractionNoConsent
}

// InteractionUpdate is a partial update applied to a stored interaction.
// Nil fields are left untouched.
type InteractionUpdate struct {
	CurrentQuestionID *string
	Step              *int
	Answers           map[string]string
	State             *InteractionState
	Consent           *Consent
	LastActive        *time.Time
	CompletedAt       *time.Time
}
