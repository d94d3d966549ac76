package domain

import "github.com/google/uuid"

type NotificationKind string

const (
	NotifyRequestReceived        NotificationKind = "request_received"
	NotifyRequestAccepted        NotificationKind = "request_accepted"
	NotifyRequestRejected        NotificationKind = "request_rejected"
	NotifyMeetingProposed        NotificationKind = "meeting_proposed"
	NotifyMeetingConfirmed       NotificationKind = "meeting_confirmed"
	NotifyGuardianApprovalNeeded NotificationKind = "guardian_approval_needed"
)

type EffectKind string

const (
	EffectNotify         EffectKind = "notify"
	EffectCreateChatRoom EffectKind = "create_chat_room"
)

// Effect is a command produced by a request transition. Effects run after
// the transition commits; a failed effect never undoes the transition.
type Effect struct {
	Kind         EffectKind
	RequestID    uuid.UUID
	Notification *NotificationEffect
	ChatRoom     *ChatRoomEffect
}

type NotificationEffect struct {
	RecipientProfileID uuid.UUID
	Kind               NotificationKind
	Payload            map[string]any
	// Guardian routes the notification to the recipient's guardian instead
	// of the recipient.
	Guardian *GuardianContact
}

type ChatRoomEffect struct {
	RoomID         uuid.UUID
	ParticipantIDs []uuid.UUID
}

func notify(r *IntroductionRequest, recipient uuid.UUID, kind NotificationKind, payload map[string]any) Effect {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["request_id"] = r.ID.String()
	return Effect{
		Kind:      EffectNotify,
		RequestID: r.ID,
		Notification: &NotificationEffect{
			RecipientProfileID: recipient,
			Kind:               kind,
			Payload:            payload,
		},
	}
}
