package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/google/uuid"
)

const defaultEffectTimeout = 30 * time.Second

// Dispatcher executes the effects of committed transitions. A failed effect
// is logged and never rolls the transition back.
type Dispatcher struct {
	profiles repository.ProfileRepository
	chats    ChatGateway
	notifier NotificationGateway
	enricher Enricher
	logger   *slog.Logger
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewDispatcher wires the gateways. enricher may be nil.
func NewDispatcher(
	profiles repository.ProfileRepository,
	chats ChatGateway,
	notifier NotificationGateway,
	enricher Enricher,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		profiles: profiles,
		chats:    chats,
		notifier: notifier,
		enricher: enricher,
		logger:   logger,
		timeout:  defaultEffectTimeout,
	}
}

// Dispatch runs effects in the background, detached from the caller's
// cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, effects []domain.Effect) {
	if len(effects) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		_ = d.Run(ctx, effects)
	}()
}

// Wait blocks until every dispatched batch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Run executes effects in order and returns every failure joined.
func (d *Dispatcher) Run(ctx context.Context, effects []domain.Effect) error {
	var errs []error
	for _, e := range effects {
		var err error
		switch e.Kind {
		case domain.EffectCreateChatRoom:
			err = d.createChatRoom(ctx, e)
		case domain.EffectNotify:
			err = d.notify(ctx, e)
		default:
			err = fmt.Errorf("unknown effect kind %q", e.Kind)
		}
		if err != nil {
			d.logger.Error("effect failed",
				"kind", e.Kind,
				"request_id", e.RequestID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) createChatRoom(ctx context.Context, e domain.Effect) error {
	if e.ChatRoom == nil {
		return errors.New("chat room effect without payload")
	}
	room := &ChatRoom{
		ID:             e.ChatRoom.RoomID,
		RequestID:      e.RequestID,
		ParticipantIDs: e.ChatRoom.ParticipantIDs,
	}
	d.enrich(ctx, room)

	id, err := d.chats.CreateRoom(ctx, room)
	if err != nil {
		return fmt.Errorf("create chat room: %w", err)
	}
	if id != e.ChatRoom.RoomID {
		d.logger.Warn("chat room already existed under another id",
			"request_id", e.RequestID,
			"reserved_id", e.ChatRoom.RoomID,
			"stored_id", id,
		)
	}
	d.logger.Info("chat room created", "request_id", e.RequestID, "room_id", id)
	return nil
}

// enrich is best effort: a missing or failing enricher leaves the room plain.
func (d *Dispatcher) enrich(ctx context.Context, room *ChatRoom) {
	if d.enricher == nil || len(room.ParticipantIDs) != 2 {
		return
	}
	a, err := d.profiles.GetByID(ctx, room.ParticipantIDs[0])
	if err != nil {
		return
	}
	b, err := d.profiles.GetByID(ctx, room.ParticipantIDs[1])
	if err != nil {
		return
	}
	if text, err := d.enricher.ExplainIntroduction(ctx, a, b); err != nil {
		d.logger.Warn("introduction explanation failed", "request_id", room.RequestID, "error", err)
	} else {
		room.Explanation = text
	}
	if lines, err := d.enricher.GenerateIcebreakers(ctx, a, b); err != nil {
		d.logger.Warn("icebreaker generation failed", "request_id", room.RequestID, "error", err)
	} else {
		room.Icebreakers = lines
	}
}

func (d *Dispatcher) notify(ctx context.Context, e domain.Effect) error {
	ne := e.Notification
	if ne == nil {
		return errors.New("notify effect without payload")
	}
	recipient, err := d.profiles.GetByID(ctx, ne.RecipientProfileID)
	if err != nil {
		return fmt.Errorf("resolve recipient %s: %w", ne.RecipientProfileID, err)
	}

	n := &Notification{
		ID:          uuid.New(),
		RecipientID: recipient.UserID,
		Kind:        ne.Kind,
		Payload:     ne.Payload,
		CreatedAt:   time.Now().UTC(),
	}
	if ne.Guardian != nil {
		return d.notifier.NotifyGuardian(ctx, *ne.Guardian, n)
	}
	return d.notifier.Notify(ctx, n)
}
