// Package screening holds the domain model shared by the conversation
// engine, the persistence layer and the scoring pipeline.
package screening

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrFrozen is returned when mutating a completed interaction.
	ErrFrozen = errors.New("interaction is completed and frozen")
	// ErrVersionConflict is returned when an optimistic update lost the race.
	ErrVersionConflict = errors.New("interaction was modified concurrently")
	// ErrAlreadySubmitted is returned when a questionnaire is submitted for
	// an application that is no longer active.
	ErrAlreadySubmitted = errors.New("application is already submitted for review")
)

type ApplicationStatus string

const (
	ApplicationActive   ApplicationStatus = "active"
	ApplicationReview   ApplicationStatus = "review"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// AnswerFormat is the shape of the answer a question expects.
type AnswerFormat string

const (
	FormatText   AnswerFormat = "text"
	FormatFile   AnswerFormat = "file"
	FormatChoice AnswerFormat = "choice"
)

// FileAnswerPrefix marks answer values that reference an uploaded file.
const FileAnswerPrefix = "FILE:"

// NoAnswer is substituted for skipped questions in reviews and scoring documents.
const NoAnswer = "No answer"

type Candidate struct {
	ID              string
	FullName        string
	ChatID          int64
	City            string
	Citizenship     string
	BirthDate       *time.Time
	RelocationReady *bool
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Vacancy struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
}

// Application links a candidate to a vacancy. The conversation engine reads
// its status to gate questionnaire starts and flips it to review exactly once
// on submission; everything else is owned by HR tooling.
type Application struct {
	ID          string
	CandidateID string
	VacancyID   string
	Status      ApplicationStatus
	AppliedAt   time.Time
	UpdatedAt   time.Time
}

// Question is a single step of a vacancy's questionnaire. Order is 1-based
// and contiguous within a vacancy. Choices is required iff Format is choice.
// Questions with ForScreening set carry an evaluation instruction that is
// forwarded to the scoring model together with the candidate's answer.
type Question struct {
	ID              string
	VacancyID       string
	Order           int
	Text            string
	Format          AnswerFormat
	Choices         []string
	ForScreening    bool
	ScreeningPrompt string
}

// AnalysisResult is the persisted outcome of one scoring run.
type AnalysisResult struct {
	ID            string
	CandidateID   string
	ApplicationID string
	Source        string
	Score         float64
	Decision      string
	Summary       string
	ProcessedAt   time.Time
}

// ResultSourceQuestionnaire marks results produced from questionnaire answers.
const ResultSourceQuestionnaire = "questionnaire"

// DecisionPending is the placeholder decision attached to fresh results
// until an HR specialist reviews them.
const DecisionPending = "pending"

// HRNotification is an outbound message for the HR channel.
type HRNotification struct {
	ID          string
	CandidateID string
	Channel     string
	Payload     string
	Status      string
	SentAt      time.Time
}

// Reminder is a durable pending re-engagement notification. At most one
// reminder exists per chat identity; scheduling a new one replaces it.
type Reminder struct {
	ChatID        int64
	ApplicationID string
	DueAt         time.Time
}

// RegistrationToken binds a chat identity to a pre-created candidate on
// first /start <token>. Tokens are opaque one-time values.
type RegistrationToken struct {
	Token       string
	CandidateID string
	CreatedAt   time.Time
	UsedAt      *time.Time
}
