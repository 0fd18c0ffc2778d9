package engine

import (
	"strconv"
	"strings"

	"github.com/ovoronin/hireloop/internal/chat"
)

// Event is one candidate action fed into the state machine.
type Event interface{ isEvent() }

// StartEvent begins or resumes a questionnaire. Token carries an optional
// registration token from "/start <token>".
type StartEvent struct{ Token string }

// AnswerEvent is free-text or file input for the current question.
type AnswerEvent struct {
	Value   string
	FileRef string
}

// ChoiceEvent is a button selection for a choice question.
type ChoiceEvent struct{ Label string }

// NextEvent advances past the current question without recording an answer.
type NextEvent struct{}

// EditEvent jumps from the review screen to a single question.
type EditEvent struct{ QuestionID string }

// ReviewPageEvent switches the review screen page.
type ReviewPageEvent struct{ Page int }

// ConsentEvent records the personal-data processing decision.
type ConsentEvent struct{ Granted bool }

// SubmitEvent finalizes the questionnaire from the review screen.
type SubmitEvent struct{}

// CancelEvent pauses the questionnaire from any non-terminal state.
type CancelEvent struct{}

func (StartEvent) isEvent()      {}
func (AnswerEvent) isEvent()     {}
func (ChoiceEvent) isEvent()     {}
func (NextEvent) isEvent()       {}
func (EditEvent) isEvent()       {}
func (ReviewPageEvent) isEvent() {}
func (ConsentEvent) isEvent()    {}
func (SubmitEvent) isEvent()     {}
func (CancelEvent) isEvent()     {}

// Callback data prefixes understood by MapEvent.
const (
	callbackCancel     = "cancel"
	callbackSubmit     = "submit"
	callbackNext       = "next"
	callbackConsentYes = "consent:yes"
	callbackConsentNo  = "consent:no"
	callbackNoop       = "noop"
	prefixChoice       = "choice:"
	prefixEdit         = "edit:"
	prefixPage         = "page:"
)

// MapEvent normalizes a transport event into a state machine event. The
// second return value is false for input the engine ignores.
func MapEvent(in chat.Incoming) (Event, bool) {
	switch in.Kind {
	case chat.KindCommand:
		switch in.Command {
		case "start":
			return StartEvent{Token: in.Args}, true
		case "cancel":
			return CancelEvent{}, true
		case "next", "skip":
			return NextEvent{}, true
		}
		return nil, false
	case chat.KindText:
		return AnswerEvent{Value: in.Text, FileRef: in.FileRef}, true
	case chat.KindCallback:
		data := in.Callback
		switch {
		case data == callbackCancel:
			return CancelEvent{}, true
		case data == callbackSubmit:
			return SubmitEvent{}, true
		case data == callbackNext:
			return NextEvent{}, true
		case data == callbackConsentYes:
			return ConsentEvent{Granted: true}, true
		case data == callbackConsentNo:
			return ConsentEvent{Granted: false}, true
		case strings.HasPrefix(data, prefixChoice):
			return ChoiceEvent{Label: strings.TrimPrefix(data, prefixChoice)}, true
		case strings.HasPrefix(data, prefixEdit):
			return EditEvent{QuestionID: strings.TrimPrefix(data, prefixEdit)}, true
		case strings.HasPrefix(data, prefixPage):
			page, err := strconv.Atoi(strings.TrimPrefix(data, prefixPage))
			if err != nil {
				return nil, false
			}
			return ReviewPageEvent{Page: page}, true
		}
		return nil, false
	}
	return nil, false
}
