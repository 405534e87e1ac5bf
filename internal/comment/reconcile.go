package comment

import (
	"strings"

	"github.com/chainguard-dev/malcontent-action/internal/scan"
)

// Sentinel is the fixed first line of every comment this tool manages. It is
// the only state that survives between runs: discovery of "the" managed
// comment is a substring search for it.
const Sentinel = "<!-- malcontent-action-report -->"

// Comment is one existing discussion comment, as listed by the transport.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCreate
	ActionUpdate
)

// Action tells the transport what to do. Kind ActionUpdate carries the id of
// the comment to edit.
type Action struct {
	Kind      ActionKind
	CommentID int64
	Body      string
}

// FindMarked returns the first comment (in listing order) whose body carries
// the sentinel, or nil. Multiple sentinel-bearing comments is a degenerate
// case: first match wins, duplicates are left alone.
func FindMarked(comments []Comment) *Comment {
	for i := range comments {
		if strings.Contains(comments[i].Body, Sentinel) {
			return &comments[i]
		}
	}
	return nil
}

// Reconcile decides whether to create, update, or suppress a comment.
//
//   - no findings, no prior comment: nothing to say, post nothing.
//   - no findings, prior comment: update it to the resolved body so the
//     thread reflects the current state and the sentinel survives.
//   - findings: create or update with the rendered body.
func Reconcile(prior *Comment, d scan.DiffResult, body, resolvedBody string) Action {
	if d.Empty() {
		if prior == nil {
			return Action{Kind: ActionNone}
		}
		return Action{Kind: ActionUpdate, CommentID: prior.ID, Body: resolvedBody}
	}
	if prior == nil {
		return Action{Kind: ActionCreate, Body: body}
	}
	return Action{Kind: ActionUpdate, CommentID: prior.ID, Body: body}
}
