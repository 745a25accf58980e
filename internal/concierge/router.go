// Package concierge routes guest messages to the order dialogue, the front
// desk or housekeeping, and owns the per-session dialogue state.
package concierge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/concierge/internal/classifier"
	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/matcher"
	"go.uber.org/zap"
)

// Fixed replies.
const (
	ReplyDefault = "Sorry, I didn't understand that clearly.\n" +
		"You can ask about:\n" +
		"• Food & menu 🍽️\n" +
		"• Room service 🧹\n" +
		"• Check-in / facilities 🏨"
	ReplyBackendError = "Backend error. Please try again."
)

// Defaults for RouterOpts.
const (
	DefaultKeywordThreshold  = 75
	DefaultClassifierTimeout = 5 * time.Second
)

// Target is the component a message is dispatched to.
type Target string

const (
	TargetDialogue     Target = "dialogue"
	TargetFrontDesk    Target = "front-desk"
	TargetHousekeeping Target = "housekeeping"
	TargetDefault      Target = "default"
)

// Handler answers a single stateless message.
type Handler interface {
	Handle(ctx context.Context, message string) (string, error)
}

// Dialogue advances an ordering conversation by one message.
type Dialogue interface {
	Step(ctx context.Context, st *dialogue.State, message string) (dialogue.Result, error)
}

// Router classifies inbound guest messages and dispatches them. Messages
// for the same session are handled one at a time.
type Router struct {
	sessions          dialogue.Store
	dialogue          Dialogue
	frontDesk         Handler
	housekeeping      Handler
	classifier        classifier.Classifier
	keywordThreshold  int
	classifierTimeout time.Duration
	logger            *zap.Logger

	locks *sessionLocks
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Sessions     dialogue.Store
	Dialogue     Dialogue
	FrontDesk    Handler
	Housekeeping Handler
	// Classifier is optional; nil skips straight to the default reply.
	Classifier        classifier.Classifier
	KeywordThreshold  int           // defaults to DefaultKeywordThreshold
	ClassifierTimeout time.Duration // defaults to DefaultClassifierTimeout
	Logger            *zap.Logger   // defaults to a no-op logger
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("concierge: router: session store is required")
	}
	if opts.Dialogue == nil {
		return nil, fmt.Errorf("concierge: router: dialogue is required")
	}
	if opts.FrontDesk == nil {
		return nil, fmt.Errorf("concierge: router: front desk is required")
	}
	if opts.Housekeeping == nil {
		return nil, fmt.Errorf("concierge: router: housekeeping is required")
	}
	threshold := opts.KeywordThreshold
	if threshold <= 0 {
		threshold = DefaultKeywordThreshold
	}
	timeout := opts.ClassifierTimeout
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		sessions:          opts.Sessions,
		dialogue:          opts.Dialogue,
		frontDesk:         opts.FrontDesk,
		housekeeping:      opts.Housekeeping,
		classifier:        opts.Classifier,
		keywordThreshold:  threshold,
		classifierTimeout: timeout,
		logger:            logger,
		locks:             newSessionLocks(),
	}, nil
}

// Route answers one guest message. It never fails: handler errors and
// panics are logged and turned into ReplyBackendError, leaving the
// session's dialogue state as it was.
func (r *Router) Route(ctx context.Context, sessionID, message string) (reply string) {
	release := r.locks.lock(sessionID)
	defer release()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("router panic",
				zap.String("session", sessionID), zap.Any("panic", p), zap.Stack("stack"))
			reply = ReplyBackendError
		}
	}()

	msg := strings.ToLower(strings.TrimSpace(message))

	st, err := r.sessions.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, dialogue.ErrSessionNotFound) {
		r.logger.Error("load dialogue state", zap.String("session", sessionID), zap.Error(err))
		return ReplyBackendError
	}

	target := r.decide(ctx, st, msg)
	r.logger.Debug("routing message",
		zap.String("session", sessionID), zap.String("target", string(target)), zap.String("message", msg))

	switch target {
	case TargetDialogue:
		reply, err = r.continueDialogue(ctx, sessionID, st, msg)
	case TargetFrontDesk:
		reply, err = r.frontDesk.Handle(ctx, msg)
	case TargetHousekeeping:
		reply, err = r.housekeeping.Handle(ctx, msg)
	default:
		return ReplyDefault
	}
	if err != nil {
		r.logger.Error("handler failed",
			zap.String("session", sessionID), zap.String("target", string(target)), zap.Error(err))
		return ReplyBackendError
	}
	return reply
}

// decide picks the target for msg, first match wins:
//  1. Dialogue awaiting a quantity or room → dialogue
//  2. Housekeeping keyword → housekeeping
//  3. Front desk keyword → front desk
//  4. Food keyword → dialogue
//  5. Fuzzy keyword match, in the same set order
//  6. Classifier, degrading to the local word check
//  7. Default reply
func (r *Router) decide(ctx context.Context, st *dialogue.State, msg string) Target {
	if st.Preempts() {
		return TargetDialogue
	}
	if msg == "" {
		return TargetDefault
	}

	switch {
	case containsAny(msg, HousekeepingKeywords):
		return TargetHousekeeping
	case containsAny(msg, FrontDeskKeywords):
		return TargetFrontDesk
	case containsAny(msg, FoodKeywords):
		return TargetDialogue
	}

	switch {
	case matcher.AnyAbove(msg, HousekeepingKeywords, r.keywordThreshold):
		return TargetHousekeeping
	case matcher.AnyAbove(msg, FrontDeskKeywords, r.keywordThreshold):
		return TargetFrontDesk
	case matcher.AnyAbove(msg, FoodKeywords, r.keywordThreshold):
		return TargetDialogue
	}

	if r.classifier != nil {
		return intentTarget(r.classify(ctx, msg))
	}
	return TargetDefault
}

// classify asks the classifier with a bounded wait and falls back to the
// local word check on any failure.
func (r *Router) classify(ctx context.Context, msg string) classifier.Intent {
	cctx, cancel := context.WithTimeout(ctx, r.classifierTimeout)
	defer cancel()

	results := make(chan classifier.Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				results <- classifier.Result{Status: classifier.StatusUnavailable, Err: fmt.Errorf("classifier panic: %v", p)}
			}
		}()
		results <- r.classifier.Classify(cctx, msg)
	}()

	var res classifier.Result
	select {
	case res = <-results:
	case <-cctx.Done():
		res = classifier.Result{Status: classifier.StatusUnavailable, Err: cctx.Err()}
	}

	if res.Status == classifier.StatusOK {
		return res.Intent
	}
	intent := classifier.Fallback(msg)
	r.logger.Info("classifier fallback",
		zap.Stringer("status", res.Status), zap.String("raw", res.Raw),
		zap.Error(res.Err), zap.String("intent", string(intent)))
	return intent
}

func intentTarget(intent classifier.Intent) Target {
	switch intent {
	case classifier.IntentFood:
		return TargetDialogue
	case classifier.IntentHousekeeping:
		return TargetHousekeeping
	default:
		return TargetFrontDesk
	}
}

// continueDialogue runs one dialogue step and persists the outcome. A
// finished conversation is cleared only after the order commit succeeded.
func (r *Router) continueDialogue(ctx context.Context, sessionID string, st *dialogue.State, msg string) (string, error) {
	res, err := r.dialogue.Step(ctx, st, msg)
	if err != nil {
		return "", err
	}

	if res.State == nil {
		if res.Committed != nil {
			r.logger.Info("order committed",
				zap.String("session", sessionID), zap.Uint("order_id", res.Committed.ID),
				zap.Int("room", res.Committed.RoomNumber), zap.Float64("total", res.Committed.TotalAmount))
		}
		r.clearSession(ctx, sessionID)
		return res.Reply, nil
	}

	if err := r.sessions.Put(ctx, sessionID, res.State); err != nil {
		return "", fmt.Errorf("concierge: save dialogue state: %w", err)
	}
	return res.Reply, nil
}

// clearSession removes the session's state, retrying once. The order is
// already committed, so a failure here is only logged.
func (r *Router) clearSession(ctx context.Context, sessionID string) {
	err := r.sessions.Delete(ctx, sessionID)
	if err == nil {
		return
	}
	r.logger.Warn("clear dialogue state failed, retrying", zap.String("session", sessionID), zap.Error(err))
	if err := r.sessions.Delete(ctx, sessionID); err != nil {
		r.logger.Error("clear dialogue state", zap.String("session", sessionID), zap.Error(err))
	}
}
