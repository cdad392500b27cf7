// Package entry moves entry groups through their lifecycle: finalizing staged
// drafts, resuming drafts for editing and recording approval decisions.
package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidall28/trocasequebras/internal/draft"
	"github.com/vidall28/trocasequebras/internal/events"
	"github.com/vidall28/trocasequebras/internal/model"
)

// Store is the durable side the engine writes to. Insert, Update and Take
// must serialize writers per group id; Insert never overwrites.
type Store interface {
	Insert(ctx context.Context, g *model.EntryGroup) error
	Update(ctx context.Context, id string, fn func(g *model.EntryGroup) error) (*model.EntryGroup, error)
	Take(ctx context.Context, id string, fn func(g *model.EntryGroup) error) (*model.EntryGroup, error)
}

// Engine applies lifecycle events on behalf of an actor.
type Engine struct {
	store     Store
	slots     draft.SlotStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for submission dates and events.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// WithPublisher sets where committed changes are announced.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// NewEngine creates a lifecycle engine. Without a publisher, events are logged.
func NewEngine(store Store, slots draft.SlotStore, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		slots:     slots,
		publisher: events.LogPublisher{Logger: logger},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// FinalizeAsDraft persists the actor's staged group with status draft.
func (e *Engine) FinalizeAsDraft(ctx context.Context, actor model.Actor) (*model.EntryGroup, error) {
	return e.finalize(ctx, actor, EventFinalizeAsDraft)
}

// FinalizeAndSubmit persists the actor's staged group with status pending.
func (e *Engine) FinalizeAndSubmit(ctx context.Context, actor model.Actor) (*model.EntryGroup, error) {
	return e.finalize(ctx, actor, EventFinalizeAndSubmit)
}

func (e *Engine) finalize(ctx context.Context, actor model.Actor, ev Event) (*model.EntryGroup, error) {
	if actor.ID == "" {
		return nil, model.Invalid("actor", "id required")
	}

	staged, err := e.slots.LoadSlot(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	if staged == nil {
		return nil, model.Invalid("", "no staged entry to finalize")
	}
	if err := checkFinalizable(staged); err != nil {
		return nil, err
	}

	status, err := Transition(Staged, ev)
	if err != nil {
		return nil, err
	}

	g := staged.Clone()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Date.IsZero() {
		g.Date = e.now().UTC()
	}
	g.Name = strings.TrimSpace(g.Name)
	g.OwnerID = actor.ID
	g.OwnerName = actor.Name
	g.Status = status

	if err := e.store.Insert(ctx, g); err != nil {
		var te *model.InvalidTransitionError
		if errors.As(err, &te) {
			te.Event = string(ev)
			e.logger.Warn("finalize refused, entry already stored", "group", g.ID, "status", te.From, "owner", actor.ID)
			return nil, te
		}
		return nil, fmt.Errorf("persisting entry group: %w", err)
	}
	if err := e.slots.ClearSlot(ctx, actor.ID); err != nil {
		// The group is durable; finalizing the stale slot again is refused by Insert.
		e.logger.Warn("clearing draft after finalize", "group", g.ID, "owner", actor.ID, "error", err)
	}

	e.logger.Info("entry finalized", "group", g.ID, "owner", g.OwnerID, "status", g.Status, "items", len(g.Items))
	typ := events.TypeFinalized
	if status == model.StatusPending {
		typ = events.TypeSubmitted
	}
	e.publish(ctx, typ, g, actor)
	return g, nil
}

func checkFinalizable(g *model.EntryGroup) error {
	if strings.TrimSpace(g.Name) == "" {
		return model.Invalid("name", "required")
	}
	if !g.Type.Valid() {
		return model.Invalid("type", fmt.Sprintf("unknown type %q", g.Type))
	}
	if len(g.Items) == 0 {
		return model.Invalid("items", "at least one item required")
	}
	for i, it := range g.Items {
		if it.Quantity < 1 {
			return model.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if !it.HasEvidence() {
			return model.Invalid(fmt.Sprintf("items[%d].evidence", i), "a photo is required")
		}
	}
	return nil
}

// ResumeEditing moves a draft group owned by actor from the durable store back
// into the actor's draft slot, replacing whatever was staged there.
func (e *Engine) ResumeEditing(ctx context.Context, actor model.Actor, id string) (*model.EntryGroup, error) {
	prev, err := e.slots.LoadSlot(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}

	var staged *model.EntryGroup
	_, err = e.store.Take(ctx, id, func(g *model.EntryGroup) error {
		if g.OwnerID != actor.ID {
			return model.ErrForbidden
		}
		if err := transitionGroup(g, EventResumeEditing); err != nil {
			return err
		}
		g.Status = model.StatusDraft
		if err := e.slots.SaveSlot(ctx, g); err != nil {
			return fmt.Errorf("staging entry group: %w", err)
		}
		staged = g
		return nil
	})
	if err != nil {
		if staged != nil {
			e.restoreSlot(ctx, actor.ID, prev)
		}
		return nil, err
	}

	e.logger.Info("entry resumed", "group", id, "owner", actor.ID)
	e.publish(ctx, events.TypeResumed, staged, actor)
	return staged, nil
}

func (e *Engine) restoreSlot(ctx context.Context, ownerID string, prev *model.EntryGroup) {
	var err error
	if prev == nil {
		err = e.slots.ClearSlot(ctx, ownerID)
	} else {
		err = e.slots.SaveSlot(ctx, prev)
	}
	if err != nil {
		e.logger.Error("restoring draft slot", "owner", ownerID, "error", err)
	}
}

// Approve moves a pending group to approved.
func (e *Engine) Approve(ctx context.Context, actor model.Actor, id string) (*model.EntryGroup, error) {
	return e.decide(ctx, actor, id, EventApprove)
}

// Reject moves a pending group to rejected.
func (e *Engine) Reject(ctx context.Context, actor model.Actor, id string) (*model.EntryGroup, error) {
	return e.decide(ctx, actor, id, EventReject)
}

func (e *Engine) decide(ctx context.Context, actor model.Actor, id string, ev Event) (*model.EntryGroup, error) {
	if !actor.CanApprove() {
		return nil, model.ErrForbidden
	}

	g, err := e.store.Update(ctx, id, func(g *model.EntryGroup) error {
		return transitionGroup(g, ev)
	})
	if err != nil {
		var te *model.InvalidTransitionError
		if errors.As(err, &te) {
			e.logger.Warn("entry decision refused", "group", id, "event", ev, "status", te.From, "actor", actor.ID)
		}
		return nil, err
	}

	e.logger.Info("entry decided", "group", g.ID, "status", g.Status, "actor", actor.ID)
	typ := events.TypeApproved
	if g.Status == model.StatusRejected {
		typ = events.TypeRejected
	}
	e.publish(ctx, typ, g, actor)
	return g, nil
}

func (e *Engine) publish(ctx context.Context, typ string, g *model.EntryGroup, actor model.Actor) {
	err := e.publisher.Publish(ctx, events.Event{
		Type:    typ,
		GroupID: g.ID,
		OwnerID: g.OwnerID,
		ActorID: actor.ID,
		Status:  g.Status,
		At:      e.now().UTC(),
	})
	if err != nil {
		e.logger.Error("publishing entry event", "type", typ, "group", g.ID, "error", err)
	}
}
