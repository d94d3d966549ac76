package domain

import (
	"errors"
	"testing"
	"time"
)

func newRequest(t *testing.T) (*IntroductionRequest, *Profile, *Profile) {
	t.Helper()
	sender, receiver := complete(GenderMale), complete(GenderFemale)
	r, effects, err := NewIntroductionRequest(sender, receiver, "  salaam  ", now, 0)
	if err != nil {
		t.Fatalf("NewIntroductionRequest: %v", err)
	}
	if len(effects) != 1 || effects[0].Notification.Kind != NotifyRequestReceived {
		t.Fatalf("effects = %+v", effects)
	}
	return r, sender, receiver
}

func TestNewIntroductionRequest(t *testing.T) {
	r, sender, receiver := newRequest(t)
	if r.Status != StatusPending || r.Message != "salaam" {
		t.Errorf("request = %+v", r)
	}
	if r.SenderID != sender.ID || r.ReceiverID != receiver.ID {
		t.Error("parties not set")
	}
	if !r.ExpiresAt.Equal(now.Add(DefaultRequestTTL)) {
		t.Errorf("expires at %v", r.ExpiresAt)
	}
	if r.GuardianApproval.IsRequired {
		t.Error("guardian approval should not be required")
	}
}

func TestNewIntroductionRequestGuards(t *testing.T) {
	sender, receiver := complete(GenderMale), complete(GenderFemale)
	sender.About = ""
	sender.City = ""
	sender.Occupation = ""
	sender.Country = ""
	sender.Touch(now)
	if sender.CompletionPercentage >= CompletionThreshold {
		t.Fatalf("completion = %d", sender.CompletionPercentage)
	}
	if _, _, err := NewIntroductionRequest(sender, receiver, "", now, time.Hour); !errors.Is(err, ErrProfileIncomplete) {
		t.Errorf("incomplete sender = %v", err)
	}

	receiver.Gender = GenderMale
	if _, _, err := NewIntroductionRequest(sender, receiver, "", now, time.Hour); !errors.Is(err, ErrIneligiblePair) {
		t.Errorf("ineligibility should be checked first, got %v", err)
	}
}

func TestNewIntroductionRequestWithGuardian(t *testing.T) {
	sender, receiver := complete(GenderMale), complete(GenderFemale)
	receiver.Guardian = &GuardianContact{Name: "Father", Email: "father@example.com"}

	r, effects, err := NewIntroductionRequest(sender, receiver, "", now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !r.GuardianApproval.Pending() {
		t.Error("approval should be pending")
	}
	if len(effects) != 2 {
		t.Fatalf("effects = %d", len(effects))
	}
	g := effects[1].Notification
	if g.Kind != NotifyGuardianApprovalNeeded || g.Guardian == nil || g.Guardian.Email != "father@example.com" {
		t.Errorf("guardian notice = %+v", g)
	}
	receiver.Guardian.Email = "changed@example.com"
	if g.Guardian.Email != "father@example.com" {
		t.Error("effect should hold a copy of the guardian")
	}
}

func TestStatusTransitions(t *testing.T) {
	allowed := map[RequestStatus][]RequestAction{
		StatusPending:   {ActionAccept, ActionReject, ActionCancel, ActionMarkRead, ActionGuardianDecision, ActionExpire},
		StatusAccepted:  {ActionArrangeMeeting, ActionRespondMeeting, ActionGuardianDecision, ActionHide},
		StatusRejected:  {ActionHide},
		StatusCancelled: {ActionHide},
		StatusExpired:   {ActionHide},
	}
	actions := []RequestAction{
		ActionAccept, ActionReject, ActionCancel, ActionMarkRead, ActionArrangeMeeting,
		ActionRespondMeeting, ActionGuardianDecision, ActionExpire, ActionHide,
	}

	for _, from := range RequestStatuses {
		for _, action := range actions {
			ok := false
			for _, a := range allowed[from] {
				if a == action {
					ok = true
				}
			}
			_, err := from.Next(action)
			if ok && err != nil {
				t.Errorf("%s from %s: %v", action, from, err)
			}
			if !ok && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s from %s: want invalid transition, got %v", action, from, err)
			}
		}
	}
}

func TestAcceptAndReject(t *testing.T) {
	r, sender, receiver := newRequest(t)

	if _, err := r.Accept(sender.ID, "", ContactInfo{}, now); !errors.Is(err, ErrForbidden) {
		t.Errorf("sender accept = %v", err)
	}

	effects, err := r.Accept(receiver.ID, " hi ", ContactInfo{Phone: " 0700 "}, now)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusAccepted || r.ChatRoomID == nil || r.Response.Message != "hi" || r.Response.Contact.Phone != "0700" {
		t.Errorf("accepted = %+v", r)
	}
	if len(effects) != 2 || effects[0].Kind != EffectCreateChatRoom || effects[0].ChatRoom.RoomID != *r.ChatRoomID {
		t.Fatalf("effects = %+v", effects)
	}
	if effects[1].Notification.RecipientProfileID != sender.ID {
		t.Error("acceptance should notify the sender")
	}

	if _, err := r.Accept(receiver.ID, "", ContactInfo{}, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second accept = %v", err)
	}
	if _, err := r.Reject(receiver.ID, ReasonOther, "", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject after accept = %v", err)
	}

	r2, _, receiver2 := newRequest(t)
	if _, err := r2.Reject(receiver2.ID, "bogus", "", now); !errors.Is(err, ErrValidation) {
		t.Errorf("bad reason = %v", err)
	}
	if r2.Status != StatusPending {
		t.Error("failed reject should not change status")
	}
	effects, err = r2.Reject(receiver2.ID, ReasonNotReady, "sorry", now)
	if err != nil || r2.Status != StatusRejected || effects[0].Notification.Payload["reason"] != "not_ready" {
		t.Errorf("reject = %v, %+v", err, r2)
	}
}

func TestCancelAndMarkRead(t *testing.T) {
	r, sender, receiver := newRequest(t)

	if _, err := r.MarkRead(sender.ID, now); !errors.Is(err, ErrForbidden) {
		t.Errorf("sender mark read = %v", err)
	}
	changed, err := r.MarkRead(receiver.ID, now)
	if err != nil || !changed || !r.IsRead || r.ReadAt == nil {
		t.Fatalf("mark read = %v, %v", changed, err)
	}
	if changed, _ := r.MarkRead(receiver.ID, now.Add(time.Minute)); changed {
		t.Error("second mark read should be a no-op")
	}

	if err := r.Cancel(receiver.ID, now); !errors.Is(err, ErrForbidden) {
		t.Errorf("receiver cancel = %v", err)
	}
	if err := r.Cancel(sender.ID, now); err != nil || r.Status != StatusCancelled {
		t.Fatalf("cancel = %v", err)
	}
	if _, err := r.MarkRead(receiver.ID, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("mark read after cancel = %v", err)
	}
}

func TestMeeting(t *testing.T) {
	r, sender, receiver := newRequest(t)
	date := now.Add(72 * time.Hour)

	if _, err := r.ArrangeMeeting(sender.ID, date, "cafe", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("meeting on pending = %v", err)
	}
	if _, err := r.Accept(receiver.ID, "", ContactInfo{}, now); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RespondToMeeting(sender.ID, true, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("respond without proposal = %v", err)
	}
	if _, err := r.ArrangeMeeting(sender.ID, now.Add(-time.Hour), "cafe", now); !errors.Is(err, ErrValidation) {
		t.Errorf("past date = %v", err)
	}
	if _, err := r.ArrangeMeeting(sender.ID, date, "  ", now); !errors.Is(err, ErrValidation) {
		t.Errorf("blank location = %v", err)
	}

	effects, err := r.ArrangeMeeting(sender.ID, date, "cafe", now)
	if err != nil {
		t.Fatal(err)
	}
	if effects[0].Notification.RecipientProfileID != receiver.ID {
		t.Error("proposal should notify the counterpart")
	}
	if _, err := r.ArrangeMeeting(receiver.ID, date.Add(time.Hour), "park", now); err != nil {
		t.Fatal(err)
	}
	if len(r.Meeting.Proposals) != 2 || r.Meeting.Location != "park" || r.Meeting.Status != MeetingProposed {
		t.Errorf("meeting = %+v", r.Meeting)
	}

	effects, err = r.RespondToMeeting(sender.ID, true, now)
	if err != nil || r.Meeting.Status != MeetingConfirmed || len(effects) != 1 {
		t.Fatalf("confirm = %v, %+v", err, r.Meeting)
	}
	if _, err := r.RespondToMeeting(sender.ID, true, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("confirm twice = %v", err)
	}
	if effects, err := r.RespondToMeeting(receiver.ID, false, now); err != nil || effects != nil || r.Meeting.Status != MeetingCancelled {
		t.Errorf("cancel = %v, %+v", err, r.Meeting)
	}
	if _, err := r.RespondToMeeting(receiver.ID, false, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel twice = %v", err)
	}
	if r.Status != StatusAccepted {
		t.Errorf("meeting changes must not move the request status, got %s", r.Status)
	}
}

func TestRecordGuardianApproval(t *testing.T) {
	r, _, receiver := newRequest(t)
	if err := r.RecordGuardianApproval(receiver.ID, true, "", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approval when not required = %v", err)
	}

	r.GuardianApproval.IsRequired = true
	if err := r.RecordGuardianApproval(r.SenderID, true, "", now); !errors.Is(err, ErrForbidden) {
		t.Errorf("sender approval = %v", err)
	}
	if err := r.RecordGuardianApproval(receiver.ID, true, " ok ", now); err != nil {
		t.Fatal(err)
	}
	if r.GuardianApproval.Pending() || r.GuardianApproval.Notes != "ok" || r.Status != StatusPending {
		t.Errorf("approval = %+v", r.GuardianApproval)
	}
}

func TestExpireAndHide(t *testing.T) {
	r, sender, _ := newRequest(t)

	if err := r.Hide(sender.ID, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("hide pending = %v", err)
	}
	if err := r.Expire(r.ExpiresAt); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expire at the deadline = %v", err)
	}
	later := r.ExpiresAt.Add(time.Second)
	if err := r.Expire(later); err != nil || r.Status != StatusExpired || !r.IsRead {
		t.Fatalf("expire = %v, %+v", err, r)
	}
	if err := r.Expire(later); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expire twice = %v", err)
	}

	stranger := complete(GenderMale)
	if err := r.Hide(stranger.ID, later); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger hide = %v", err)
	}
	if err := r.Hide(sender.ID, later); err != nil || !r.HiddenFor(sender.ID) || r.Status != StatusExpired {
		t.Errorf("hide = %v, %+v", err, r)
	}
	if r.HiddenFor(r.ReceiverID) || r.HiddenFor(stranger.ID) {
		t.Error("hiding for the sender hid it for others too")
	}
	if err := r.Hide(r.ReceiverID, later); err != nil || !r.HiddenByReceiver || !r.HiddenBySender {
		t.Errorf("receiver hide = %v, %+v", err, r)
	}
}

func TestRequestClone(t *testing.T) {
	r, _, receiver := newRequest(t)
	if _, err := r.Accept(receiver.ID, "", ContactInfo{}, now); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ArrangeMeeting(receiver.ID, now.Add(time.Hour), "cafe", now); err != nil {
		t.Fatal(err)
	}

	c := r.Clone()
	c.Meeting.Proposals[0].Location = "elsewhere"
	*c.ChatRoomID = c.ID
	if r.Meeting.Proposals[0].Location != "cafe" || *r.ChatRoomID == r.ID {
		t.Error("Clone shares state with the original")
	}
}
