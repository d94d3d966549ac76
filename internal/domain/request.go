package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRequestTTL is how long a request stays pending before the sweeper
// expires it.
const DefaultRequestTTL = 30 * 24 * time.Hour

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
	StatusExpired   RequestStatus = "expired"
)

// ActiveStatuses are the statuses that occupy the one slot an ordered pair
// has for an active request.
var ActiveStatuses = []RequestStatus{StatusPending, StatusAccepted}

var RequestStatuses = []RequestStatus{StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusExpired}

func (s RequestStatus) Active() bool {
	return slices.Contains(ActiveStatuses, s)
}

func (s RequestStatus) Valid() bool {
	return slices.Contains(RequestStatuses, s)
}

type RequestAction string

const (
	ActionAccept           RequestAction = "accept"
	ActionReject           RequestAction = "reject"
	ActionCancel           RequestAction = "cancel"
	ActionMarkRead         RequestAction = "mark_read"
	ActionArrangeMeeting   RequestAction = "arrange_meeting"
	ActionRespondMeeting   RequestAction = "respond_to_meeting"
	ActionGuardianDecision RequestAction = "record_guardian_approval"
	ActionExpire           RequestAction = "expire"
	ActionHide             RequestAction = "hide"
)

// transitions maps each status to the actions it accepts and the status
// each action leads to. Anything missing is an invalid transition.
var transitions = map[RequestStatus]map[RequestAction]RequestStatus{
	StatusPending: {
		ActionAccept:           StatusAccepted,
		ActionReject:           StatusRejected,
		ActionCancel:           StatusCancelled,
		ActionMarkRead:         StatusPending,
		ActionGuardianDecision: StatusPending,
		ActionExpire:           StatusExpired,
	},
	StatusAccepted: {
		ActionArrangeMeeting:   StatusAccepted,
		ActionRespondMeeting:   StatusAccepted,
		ActionGuardianDecision: StatusAccepted,
		ActionHide:             StatusAccepted,
	},
	StatusRejected:  {ActionHide: StatusRejected},
	StatusCancelled: {ActionHide: StatusCancelled},
	StatusExpired:   {ActionHide: StatusExpired},
}

// Next returns the status action leads to from s.
func (s RequestStatus) Next(action RequestAction) (RequestStatus, error) {
	next, ok := transitions[s][action]
	if !ok {
		return s, &TransitionError{Action: action, From: s}
	}
	return next, nil
}

type ResponseReason string

const (
	ReasonInterested     ResponseReason = "interested"
	ReasonNotCompatible  ResponseReason = "not_compatible"
	ReasonNotReady       ResponseReason = "not_ready"
	ReasonAlreadyEngaged ResponseReason = "already_engaged"
	ReasonOther          ResponseReason = "other"
)

var ResponseReasons = []ResponseReason{ReasonInterested, ReasonNotCompatible, ReasonNotReady, ReasonAlreadyEngaged, ReasonOther}

func (r ResponseReason) Valid() bool {
	return slices.Contains(ResponseReasons, r)
}

type ContactInfo struct {
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	PreferredTime string `json:"preferred_time,omitempty"`
}

// Merge overwrites fields that are set in other.
func (c ContactInfo) Merge(other ContactInfo) ContactInfo {
	if v := strings.TrimSpace(other.Phone); v != "" {
		c.Phone = v
	}
	if v := strings.TrimSpace(other.Email); v != "" {
		c.Email = v
	}
	if v := strings.TrimSpace(other.PreferredTime); v != "" {
		c.PreferredTime = v
	}
	return c
}

type RequestResponse struct {
	Message     string         `json:"message,omitempty"`
	Reason      ResponseReason `json:"reason,omitempty"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	Contact     ContactInfo    `json:"contact"`
}

type MeetingStatus string

const (
	MeetingNone      MeetingStatus = ""
	MeetingProposed  MeetingStatus = "proposed"
	MeetingConfirmed MeetingStatus = "confirmed"
	MeetingCancelled MeetingStatus = "cancelled"
)

type MeetingProposal struct {
	ProposedBy uuid.UUID `json:"proposed_by"`
	Date       time.Time `json:"date"`
	Location   string    `json:"location"`
	ProposedAt time.Time `json:"proposed_at"`
}

type Meeting struct {
	IsArranged  bool              `json:"is_arranged"`
	Date        *time.Time        `json:"date,omitempty"`
	Location    string            `json:"location,omitempty"`
	Status      MeetingStatus     `json:"status,omitempty"`
	RespondedBy *uuid.UUID        `json:"responded_by,omitempty"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`
	Proposals   []MeetingProposal `json:"proposals,omitempty"`
}

type GuardianApproval struct {
	IsRequired bool       `json:"is_required"`
	IsApproved bool       `json:"is_approved"`
	Notes      string     `json:"notes,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

// Pending reports whether approval is required but not yet given.
func (g GuardianApproval) Pending() bool {
	return g.IsRequired && !g.IsApproved
}

type IntroductionRequest struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	SenderID         uuid.UUID        `json:"sender_id" db:"sender_id"`
	ReceiverID       uuid.UUID        `json:"receiver_id" db:"receiver_id"`
	Message          string           `json:"message" db:"message"`
	Status           RequestStatus    `json:"status" db:"status"`
	Response         RequestResponse  `json:"response" db:"-"`
	Meeting          Meeting          `json:"meeting" db:"-"`
	GuardianApproval GuardianApproval `json:"guardian_approval" db:"-"`
	ChatRoomID       *uuid.UUID       `json:"chat_room_id,omitempty" db:"chat_room_id"`
	ExpiresAt        time.Time        `json:"expires_at" db:"expires_at"`
	IsRead           bool             `json:"is_read" db:"is_read"`
	ReadAt           *time.Time       `json:"read_at,omitempty" db:"read_at"`
	// Hiding is per party: it only takes the request out of that party's
	// own history.
	HiddenBySender   bool             `json:"-" db:"hidden_by_sender"`
	HiddenByReceiver bool             `json:"-" db:"hidden_by_receiver"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
	// Version guards writes: a store only applies an update whose Version
	// matches the stored row, then increments it.
	Version int64 `json:"-" db:"version"`
}

// NewIntroductionRequest runs the send guards and builds a pending request.
// The one-active-request-per-pair rule is enforced by the caller and the store.
func NewIntroductionRequest(sender, receiver *Profile, message string, now time.Time, ttl time.Duration) (*IntroductionRequest, []Effect, error) {
	if e := CanMessage(sender, receiver); e != nil {
		return nil, nil, e
	}
	if sender.CompletionPercentage < CompletionThreshold {
		return nil, nil, ErrProfileIncomplete
	}
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}

	r := &IntroductionRequest{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Message:    strings.TrimSpace(message),
		Status:     StatusPending,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	effects := []Effect{
		notify(r, receiver.ID, NotifyRequestReceived, map[string]any{"sender_id": sender.ID.String()}),
	}

	// Approval gates responding, never proposing.
	if RequiresGuardianApproval(receiver) {
		r.GuardianApproval = GuardianApproval{IsRequired: true}
		guardianNotice := notify(r, receiver.ID, NotifyGuardianApprovalNeeded, map[string]any{"sender_id": sender.ID.String()})
		if receiver.Guardian.Reachable() {
			g := *receiver.Guardian
			guardianNotice.Notification.Guardian = &g
		}
		effects = append(effects, guardianNotice)
	}
	return r, effects, nil
}

func (r *IntroductionRequest) IsParty(profileID uuid.UUID) bool {
	return r.SenderID == profileID || r.ReceiverID == profileID
}

// Counterpart returns the other party's profile id.
func (r *IntroductionRequest) Counterpart(profileID uuid.UUID) uuid.UUID {
	if profileID == r.SenderID {
		return r.ReceiverID
	}
	return r.SenderID
}

func (r *IntroductionRequest) apply(action RequestAction, now time.Time) error {
	next, err := r.Status.Next(action)
	if err != nil {
		return err
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// Accept is called by the receiver. It reserves the chat room id on the
// request and asks for the room to be created.
func (r *IntroductionRequest) Accept(actor uuid.UUID, message string, contact ContactInfo, now time.Time) ([]Effect, error) {
	if actor != r.ReceiverID {
		return nil, ErrForbidden
	}
	if err := r.apply(ActionAccept, now); err != nil {
		return nil, err
	}

	roomID := uuid.New()
	r.ChatRoomID = &roomID
	r.Response.Message = strings.TrimSpace(message)
	r.Response.Reason = ReasonInterested
	r.Response.RespondedAt = &now
	r.Response.Contact = r.Response.Contact.Merge(contact)

	return []Effect{
		{
			Kind:      EffectCreateChatRoom,
			RequestID: r.ID,
			ChatRoom: &ChatRoomEffect{
				RoomID:         roomID,
				ParticipantIDs: []uuid.UUID{r.SenderID, r.ReceiverID},
			},
		},
		notify(r, r.SenderID, NotifyRequestAccepted, map[string]any{"chat_room_id": roomID.String()}),
	}, nil
}

func (r *IntroductionRequest) Reject(actor uuid.UUID, reason ResponseReason, message string, now time.Time) ([]Effect, error) {
	if actor != r.ReceiverID {
		return nil, ErrForbidden
	}
	if reason != "" && !reason.Valid() {
		return nil, NewValidationError("reason", "must be one of interested, not_compatible, not_ready, already_engaged, other")
	}
	if err := r.apply(ActionReject, now); err != nil {
		return nil, err
	}

	r.Response.Message = strings.TrimSpace(message)
	r.Response.Reason = reason
	r.Response.RespondedAt = &now

	payload := map[string]any{}
	if reason != "" {
		payload["reason"] = string(reason)
	}
	return []Effect{notify(r, r.SenderID, NotifyRequestRejected, payload)}, nil
}

func (r *IntroductionRequest) Cancel(actor uuid.UUID, now time.Time) error {
	if actor != r.SenderID {
		return ErrForbidden
	}
	return r.apply(ActionCancel, now)
}

// MarkRead records the receiver's first view. It reports whether anything
// changed so callers can skip the write.
func (r *IntroductionRequest) MarkRead(actor uuid.UUID, now time.Time) (bool, error) {
	if actor != r.ReceiverID {
		return false, ErrForbidden
	}
	if _, err := r.Status.Next(ActionMarkRead); err != nil {
		return false, err
	}
	if r.IsRead {
		return false, nil
	}
	r.IsRead = true
	r.ReadAt = &now
	r.UpdatedAt = now
	return true, nil
}

// ArrangeMeeting records a proposal from either party. Proposals accumulate;
// the latest one is the meeting under discussion.
func (r *IntroductionRequest) ArrangeMeeting(actor uuid.UUID, date time.Time, location string, now time.Time) ([]Effect, error) {
	if !r.IsParty(actor) {
		return nil, ErrForbidden
	}
	if _, err := r.Status.Next(ActionArrangeMeeting); err != nil {
		return nil, err
	}
	if !date.After(now) {
		return nil, NewValidationError("date", "must be in the future")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, NewValidationError("location", "is required")
	}

	r.Meeting.Proposals = append(r.Meeting.Proposals, MeetingProposal{
		ProposedBy: actor,
		Date:       date,
		Location:   location,
		ProposedAt: now,
	})
	r.Meeting.IsArranged = true
	r.Meeting.Date = &date
	r.Meeting.Location = location
	r.Meeting.Status = MeetingProposed
	r.Meeting.RespondedBy = nil
	r.Meeting.RespondedAt = nil
	r.UpdatedAt = now

	return []Effect{notify(r, r.Counterpart(actor), NotifyMeetingProposed, map[string]any{
		"date":     date.UTC().Format(time.RFC3339),
		"location": location,
	})}, nil
}

// RespondToMeeting confirms or cancels the proposed meeting. Only the meeting
// sub-status changes.
func (r *IntroductionRequest) RespondToMeeting(actor uuid.UUID, confirm bool, now time.Time) ([]Effect, error) {
	if !r.IsParty(actor) {
		return nil, ErrForbidden
	}
	if _, err := r.Status.Next(ActionRespondMeeting); err != nil {
		return nil, err
	}
	if !r.Meeting.IsArranged {
		return nil, &TransitionError{Action: ActionRespondMeeting, From: r.Status}
	}

	switch {
	case confirm && r.Meeting.Status != MeetingProposed:
		return nil, &TransitionError{Action: ActionRespondMeeting, From: r.Status}
	case !confirm && r.Meeting.Status == MeetingCancelled:
		return nil, &TransitionError{Action: ActionRespondMeeting, From: r.Status}
	}

	r.Meeting.RespondedBy = &actor
	r.Meeting.RespondedAt = &now
	r.UpdatedAt = now
	if !confirm {
		r.Meeting.Status = MeetingCancelled
		return nil, nil
	}
	r.Meeting.Status = MeetingConfirmed
	return []Effect{notify(r, r.Counterpart(actor), NotifyMeetingConfirmed, map[string]any{
		"date":     r.Meeting.Date.UTC().Format(time.RFC3339),
		"location": r.Meeting.Location,
	})}, nil
}

// RecordGuardianApproval stores the guardian's decision, relayed by the
// receiver. The decision is advisory unless the caller enforces it.
func (r *IntroductionRequest) RecordGuardianApproval(actor uuid.UUID, approved bool, notes string, now time.Time) error {
	if actor != r.ReceiverID {
		return ErrForbidden
	}
	if _, err := r.Status.Next(ActionGuardianDecision); err != nil {
		return err
	}
	if !r.GuardianApproval.IsRequired {
		return &TransitionError{Action: ActionGuardianDecision, From: r.Status}
	}
	r.GuardianApproval.IsApproved = approved
	r.GuardianApproval.Notes = strings.TrimSpace(notes)
	r.GuardianApproval.DecidedAt = &now
	r.UpdatedAt = now
	return nil
}

// Expire is the system-only transition fired once ExpiresAt has passed.
func (r *IntroductionRequest) Expire(now time.Time) error {
	if !now.After(r.ExpiresAt) {
		return &TransitionError{Action: ActionExpire, From: r.Status}
	}
	if err := r.apply(ActionExpire, now); err != nil {
		return err
	}
	r.IsRead = true
	if r.ReadAt == nil {
		r.ReadAt = &now
	}
	return nil
}

// Hide removes the request from the caller's own history. The other party
// still sees it.
func (r *IntroductionRequest) Hide(actor uuid.UUID, now time.Time) error {
	if !r.IsParty(actor) {
		return ErrForbidden
	}
	if err := r.apply(ActionHide, now); err != nil {
		return err
	}
	if actor == r.SenderID {
		r.HiddenBySender = true
	} else {
		r.HiddenByReceiver = true
	}
	return nil
}

// HiddenFor reports whether the given party has hidden the request.
func (r *IntroductionRequest) HiddenFor(profileID uuid.UUID) bool {
	switch profileID {
	case r.SenderID:
		return r.HiddenBySender
	case r.ReceiverID:
		return r.HiddenByReceiver
	}
	return false
}

// Clone returns a deep copy.
func (r *IntroductionRequest) Clone() *IntroductionRequest {
	c := *r
	if r.ChatRoomID != nil {
		id := *r.ChatRoomID
		c.ChatRoomID = &id
	}
	c.Meeting.Proposals = slices.Clone(r.Meeting.Proposals)
	return &c
}
