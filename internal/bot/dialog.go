package bot

import (
	"strconv"
	"strings"

	"github.com/nmelo/flickrbot/internal/state"
)

// User-facing strings for the count dialog.
const (
	countPrompt     = "How many pictures should I fetch (1 to 100)?"
	countGuidance   = "Please select a valid value, 1 to 100"
	cancelAck       = "Ok... canceled."
	nothingToCancel = "Nothing to cancel."
	introMessage    = "I am a bot that fetches flickr photos. Say anything to continue."
)

const (
	minPhotoCount = 1
	maxPhotoCount = 100
)

// turnOutcome is the effect plan for one message turn: the next dialog
// state, the text replies to send, and optionally a photo fetch to run.
type turnOutcome struct {
	next       state.DialogState
	replies    []string
	fetchCount int
	fetch      bool
}

// transition is the pure dialog state machine: (state, message text) to
// (state, effects). Side effects stay with the caller.
func transition(dialog state.DialogState, text string) turnOutcome {
	trimmed := strings.TrimSpace(text)

	// Cancellation short-circuits normal dialog continuation.
	if strings.EqualFold(trimmed, "cancel") {
		if dialog == state.DialogAwaitingCount {
			return turnOutcome{next: state.DialogIdle, replies: []string{cancelAck}}
		}
		return turnOutcome{next: state.DialogIdle, replies: []string{nothingToCancel}}
	}

	if dialog == state.DialogAwaitingCount {
		count, err := strconv.Atoi(trimmed)
		if err != nil || count < minPhotoCount || count > maxPhotoCount {
			// Re-issue the prompt; the count never reaches the fetch layer.
			return turnOutcome{
				next:    state.DialogAwaitingCount,
				replies: []string{countGuidance, countPrompt},
			}
		}
		return turnOutcome{next: state.DialogIdle, fetchCount: count, fetch: true}
	}

	// Any other message starts the dialog.
	return turnOutcome{next: state.DialogAwaitingCount, replies: []string{countPrompt}}
}
