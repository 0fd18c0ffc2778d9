package engine

import (
	"fmt"
	"strings"

	"github.com/ovoronin/hireloop/internal/chat"
	"github.com/ovoronin/hireloop/internal/screening"
)

// promptQuestion renders the current question with its position, choice
// buttons for choice questions and a cancel button.
func (e *Engine) promptQuestion(sess *Session) chat.Outgoing {
	q := sess.question()
	if q == nil {
		return chat.Outgoing{Text: msgConversationLost}
	}

	var b strings.Builder
	if sess.State == StateEditing {
		fmt.Fprintf(&b, "Editing question %d:\n%s", q.Order, q.Text)
	} else {
		fmt.Fprintf(&b, "Question %d of %d:\n%s", sess.Current+1, len(sess.Questions), q.Text)
	}
	if q.Format == screening.FormatFile {
		b.WriteString("\n\nAttach a file as your answer.")
	}

	out := chat.Outgoing{Text: b.String()}
	if q.Format == screening.FormatChoice {
		for _, label := range q.Choices {
			out.Buttons = append(out.Buttons, []chat.Button{{Label: label, Data: prefixChoice + label}})
		}
	}
	out.Buttons = append(out.Buttons, []chat.Button{{Label: labelCancel, Data: callbackCancel}})
	return out
}

// renderReview builds one page of the answer summary. Pagination is
// deterministic fixed-size chunking over the persisted question order.
func (e *Engine) renderReview(sess *Session) chat.Outgoing {
	pageSize := e.cfg.ReviewPageSize
	total := len(sess.Questions)
	pages := (total + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1
	}

	page := sess.ReviewPage
	if page < 0 {
		page = 0
	}
	if page > pages-1 {
		page = pages - 1
	}
	sess.ReviewPage = page

	start := page * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Please review your answers (page %d of %d):\n\n", page+1, pages)

	var buttons [][]chat.Button
	for _, q := range sess.Questions[start:end] {
		answer, ok := sess.Answers[q.ID]
		if !ok || answer == "" {
			answer = screening.NoAnswer
		} else if strings.HasPrefix(answer, screening.FileAnswerPrefix) {
			answer = "(file attached)"
		}
		fmt.Fprintf(&b, "Q%d: %s\n\u2192 %s\n\n", q.Order, q.Text, answer)
		buttons = append(buttons, []chat.Button{{
			Label: fmt.Sprintf("Edit Q%d", q.Order),
			Data:  prefixEdit + q.ID,
		}})
	}

	if pages > 1 {
		var nav []chat.Button
		if page > 0 {
			nav = append(nav, chat.Button{Label: "\u25c0", Data: fmt.Sprintf("%s%d", prefixPage, page-1)})
		}
		nav = append(nav, chat.Button{Label: fmt.Sprintf("%d/%d", page+1, pages), Data: callbackNoop})
		if page < pages-1 {
			nav = append(nav, chat.Button{Label: "\u25b6", Data: fmt.Sprintf("%s%d", prefixPage, page+1)})
		}
		buttons = append(buttons, nav)
	}

	buttons = append(buttons,
		[]chat.Button{{Label: labelSubmit, Data: callbackSubmit}},
		[]chat.Button{{Label: labelCancel, Data: callbackCancel}},
	)

	return chat.Outgoing{Text: strings.TrimRight(b.String(), "\n"), Buttons: buttons}
}
