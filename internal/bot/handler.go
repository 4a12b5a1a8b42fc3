package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nmelo/flickrbot/internal/activity"
	"github.com/nmelo/flickrbot/internal/flickr"
	"github.com/nmelo/flickrbot/internal/observability"
	"github.com/nmelo/flickrbot/internal/state"
)

// PhotoFetcher is the slice of the photo client the handler depends on.
type PhotoFetcher interface {
	FetchInteresting(ctx context.Context, count int) ([]flickr.PhotoRecord, error)
}

// Handler drives the count-prompt dialog for every conversation and keeps
// the per-turn state bookkeeping.
type Handler struct {
	store   state.Store
	photos  PhotoFetcher
	metrics *observability.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store state.Store, photos PhotoFetcher, metrics *observability.Metrics) *Handler {
	return &Handler{
		store:   store,
		photos:  photos,
		metrics: metrics,
		locks:   make(map[string]*sync.Mutex),
	}
}

// OnTurn processes one inbound activity and returns the replies for it.
// Turns are serialized per conversation. The epilogue commits user state
// and then conversation state; either failure fails the turn.
func (h *Handler) OnTurn(ctx context.Context, in activity.Activity) ([]activity.Activity, error) {
	unlock := h.lockConversation(in.Conversation.ID)
	defer unlock()

	sess, err := h.session(ctx, in.Conversation.ID)
	if err != nil {
		return nil, err
	}

	var replies []activity.Activity
	switch in.Type {
	case activity.TypeMessage:
		h.metrics.Turns.WithLabelValues(string(activity.TypeMessage)).Inc()
		replies, sess, err = h.onMessage(ctx, in, sess)
	case activity.TypeConversationUpdate:
		h.metrics.Turns.WithLabelValues(string(activity.TypeConversationUpdate)).Inc()
		replies = h.onConversationUpdate(in)
	default:
		return nil, activity.ErrUnsupportedType
	}
	if err != nil {
		return nil, err
	}

	if err := h.saveUserState(ctx, in.From.ID); err != nil {
		return nil, err
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := h.store.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist conversation state: %w", err)
	}

	return replies, nil
}

func (h *Handler) onMessage(ctx context.Context, in activity.Activity, sess state.Session) ([]activity.Activity, state.Session, error) {
	outcome := transition(sess.Dialog, in.Text)

	replies := make([]activity.Activity, 0, len(outcome.replies)+1)
	for _, text := range outcome.replies {
		replies = append(replies, activity.NewReply(in, text))
	}

	if outcome.fetch {
		start := time.Now()
		photos, err := h.photos.FetchInteresting(ctx, outcome.fetchCount)
		h.metrics.ObservePhotoFetch(time.Since(start))
		if err != nil {
			h.metrics.PhotoFetchErrors.WithLabelValues(fetchErrorReason(err)).Inc()
			log.Printf("photo fetch failed for conversation %s: %v", in.Conversation.ID, err)
			return nil, sess, err
		}
		cards := cardsFromPhotos(photos)
		h.metrics.CardsSent.Add(float64(len(cards)))
		replies = append(replies, activity.NewCardReply(in, cards))
	}

	h.trackDialogGauge(sess.Dialog, outcome.next)
	sess.Dialog = outcome.next
	return replies, sess, nil
}

// onConversationUpdate greets every added member except the bot itself.
func (h *Handler) onConversationUpdate(in activity.Activity) []activity.Activity {
	var replies []activity.Activity
	for _, member := range in.MembersAdded {
		if member.ID == in.Recipient.ID {
			continue
		}
		replies = append(replies, activity.NewReply(in, introMessage))
	}
	return replies
}

// ClearConversation discards the in-progress dialog for a conversation. The
// turn error boundary uses it after sending the apology.
func (h *Handler) ClearConversation(ctx context.Context, conversationID string) error {
	unlock := h.lockConversation(conversationID)
	defer unlock()

	sess, err := h.store.GetSession(ctx, conversationID)
	if err == nil && sess.Dialog == state.DialogAwaitingCount {
		h.metrics.ActiveDialogs.Dec()
	}
	if err := h.store.DeleteSession(ctx, conversationID); err != nil {
		return fmt.Errorf("clear conversation state: %w", err)
	}
	return nil
}

func (h *Handler) saveUserState(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	user, err := h.store.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return fmt.Errorf("load user state: %w", err)
	}
	user.UserID = userID
	user.TurnCount++
	user.LastActivityAt = time.Now().UTC()
	if err := h.store.PutUser(ctx, user); err != nil {
		return fmt.Errorf("persist user state: %w", err)
	}
	return nil
}

// session loads a conversation's dialog state, lazily creating an idle one.
func (h *Handler) session(ctx context.Context, conversationID string) (state.Session, error) {
	sess, err := h.store.GetSession(ctx, conversationID)
	if errors.Is(err, state.ErrNotFound) {
		return state.Session{ConversationID: conversationID, Dialog: state.DialogIdle}, nil
	}
	if err != nil {
		return state.Session{}, fmt.Errorf("load conversation state: %w", err)
	}
	return sess, nil
}

func (h *Handler) trackDialogGauge(prev, next state.DialogState) {
	switch {
	case prev != state.DialogAwaitingCount && next == state.DialogAwaitingCount:
		h.metrics.ActiveDialogs.Inc()
	case prev == state.DialogAwaitingCount && next != state.DialogAwaitingCount:
		h.metrics.ActiveDialogs.Dec()
	}
}

func (h *Handler) lockConversation(conversationID string) func() {
	h.mu.Lock()
	l, ok := h.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		h.locks[conversationID] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func fetchErrorReason(err error) string {
	switch {
	case errors.Is(err, flickr.ErrUpstream):
		return "upstream"
	case errors.Is(err, flickr.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, flickr.ErrInsufficientCandidates):
		return "insufficient"
	default:
		return "other"
	}
}
