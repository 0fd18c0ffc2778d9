// Package chat defines the transport contract between the conversation
// engine and a concrete messenger. The engine only needs to receive
// normalized candidate input and send prompts, optionally with choice
// buttons.
package chat

import "context"

// Kind discriminates normalized incoming events.
type Kind string

const (
	KindCommand  Kind = "command"
	KindText     Kind = "text"
	KindCallback Kind = "callback"
)

// Incoming is one candidate action delivered by the transport, tagged with a
// stable chat identity.
type Incoming struct {
	ChatID   int64
	Kind     Kind
	Command  string
	Args     string
	Text     string
	FileRef  string
	Callback string
}

// Button is a single inline choice.
type Button struct {
	Label string
	Data  string
}

// Outgoing is a prompt emitted by the engine: plain text, optionally with
// rows of choice buttons.
type Outgoing struct {
	Text    string
	Buttons [][]Button
}

// Sender delivers outgoing prompts to a chat identity.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Outgoing) error
}

// Handler consumes normalized incoming events.
type Handler interface {
	Handle(ctx context.Context, in Incoming)
}
