package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/gateway"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/secure"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// openTestDB connects to TEST_DATABASE_DSN and applies the schema. Tests that
// need it are skipped when the variable is unset.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newSealer(t *testing.T) *secure.Sealer {
	t.Helper()
	s, err := secure.NewSealer([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testProfile(gender domain.Gender, city string) *domain.Profile {
	yes := true
	p := &domain.Profile{
		UserID:         uuid.New(),
		DisplayName:    "Test",
		Gender:         gender,
		Age:            30,
		City:           city,
		Education:      domain.EducationMaster,
		ReligiousLevel: domain.ReligiousModerate,
		PraysRegularly: &yes,
		Privacy: domain.PrivacySettings{
			Visibility:        domain.VisibilityEveryone,
			MessagePermission: domain.MessageEveryone,
		},
		IsActive: true,
	}
	p.Touch(time.Now().UTC().Truncate(time.Microsecond))
	return p
}

func TestProfileRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewProfileRepository(db, newSealer(t))

	p := testProfile(domain.GenderFemale, "Leeds-"+uuid.NewString())
	p.Guardian = &domain.GuardianContact{Name: "Father", Phone: "0700"}
	blocked := uuid.New()
	p.Privacy.BlockedUsers = []uuid.UUID{blocked}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, &domain.Profile{UserID: p.UserID, Gender: domain.GenderMale}); !errors.Is(err, domain.ErrProfileAlreadyExists) {
		t.Errorf("duplicate user = %v", err)
	}

	got, err := repo.GetByUserID(ctx, p.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Guardian == nil || got.Guardian.Phone != "0700" {
		t.Errorf("guardian = %+v", got.Guardian)
	}
	if !got.Privacy.Blocks(blocked) || got.PraysRegularly == nil || !*got.PraysRegularly {
		t.Errorf("profile = %+v", got)
	}

	filter := repository.And(
		repository.Eq(repository.FieldCity, p.City),
		repository.In(repository.FieldEducation, domain.EducationMaster.Neighbors()...),
		repository.Lacks(repository.FieldBlockedUsers, uuid.New()),
	)
	if n, err := repo.Count(ctx, filter); err != nil || n != 1 {
		t.Errorf("count = %d, %v", n, err)
	}
	if n, _ := repo.Count(ctx, repository.And(filter, repository.Lacks(repository.FieldBlockedUsers, blocked))); n != 0 {
		t.Errorf("count with blocked = %d", n)
	}

	got.City = "York"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatal(err)
	}
	if found, _ := repo.FindMany(ctx, repository.Eq(repository.FieldCity, p.City), nil, 0, 10); len(found) != 0 {
		t.Errorf("old city still matches %d", len(found))
	}
}

func TestRequestRepositoryConstraints(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profiles := NewProfileRepository(db, newSealer(t))
	requests := NewRequestRepository(db)

	sender, receiver := testProfile(domain.GenderMale, "Leeds"), testProfile(domain.GenderFemale, "Leeds")
	for _, p := range []*domain.Profile{sender, receiver} {
		if err := profiles.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	at := time.Now().UTC().Truncate(time.Microsecond)
	newReq := func() *domain.IntroductionRequest {
		return &domain.IntroductionRequest{
			SenderID: sender.ID, ReceiverID: receiver.ID, Status: domain.StatusPending,
			ExpiresAt: at.Add(-time.Minute), CreatedAt: at, UpdatedAt: at,
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = requests.Create(ctx, newReq())
		}(i)
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, domain.ErrDuplicateActiveRequest):
			t.Errorf("create = %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("created %d active requests", ok)
	}

	active, err := requests.FindActivePair(ctx, sender.ID, receiver.ID)
	if err != nil {
		t.Fatal(err)
	}
	stale := active.Clone()
	if _, err := active.Accept(receiver.ID, "", domain.ContactInfo{}, at); err != nil {
		t.Fatal(err)
	}
	if err := requests.Update(ctx, active); err != nil {
		t.Fatal(err)
	}
	if err := stale.Cancel(sender.ID, at); err != nil {
		t.Fatal(err)
	}
	if err := requests.Update(ctx, stale); !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Errorf("stale update = %v", err)
	}

	chats := NewChatRoomRepository(db)
	room := &gateway.ChatRoom{RequestID: active.ID, ParticipantIDs: []uuid.UUID{sender.ID, receiver.ID}}
	first, err := chats.CreateRoom(ctx, room)
	if err != nil {
		t.Fatal(err)
	}
	again, err := chats.CreateRoom(ctx, &gateway.ChatRoom{RequestID: active.ID})
	if err != nil || again != first {
		t.Errorf("second CreateRoom = %s, %v", again, err)
	}

	list, total, err := requests.List(ctx, repository.RequestListQuery{ProfileID: receiver.ID, Direction: repository.DirectionReceived})
	if err != nil || total != 1 || list[0].Status != domain.StatusAccepted {
		t.Errorf("list = %d, %v", total, err)
	}

	if err := active.Hide(sender.ID, at); err != nil {
		t.Fatal(err)
	}
	if err := requests.Update(ctx, active); err != nil {
		t.Fatal(err)
	}
	if _, total, _ := requests.List(ctx, repository.RequestListQuery{ProfileID: sender.ID, Direction: repository.DirectionSent}); total != 0 {
		t.Errorf("sender list after hide = %d", total)
	}
	if _, total, _ := requests.List(ctx, repository.RequestListQuery{ProfileID: receiver.ID, Direction: repository.DirectionReceived}); total != 1 {
		t.Errorf("receiver list after sender hid = %d", total)
	}
	stored, err := requests.GetByID(ctx, active.ID)
	if err != nil || !stored.HiddenBySender || stored.HiddenByReceiver {
		t.Errorf("stored hide flags = %+v, %v", stored, err)
	}
}

func TestUpdateManyExpiredOnlyTouchesPending(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profiles := NewProfileRepository(db, newSealer(t))
	requests := NewRequestRepository(db)

	receiver := testProfile(domain.GenderFemale, "Leeds")
	if err := profiles.Create(ctx, receiver); err != nil {
		t.Fatal(err)
	}
	at := time.Now().UTC().Truncate(time.Microsecond)
	var ids []uuid.UUID
	for i := 0; i < 2; i++ {
		sender := testProfile(domain.GenderMale, "Leeds")
		if err := profiles.Create(ctx, sender); err != nil {
			t.Fatal(err)
		}
		r := &domain.IntroductionRequest{
			SenderID: sender.ID, ReceiverID: receiver.ID, Status: domain.StatusPending,
			ExpiresAt: at.Add(-time.Hour), CreatedAt: at, UpdatedAt: at,
		}
		if i == 1 {
			r.Status = domain.StatusRejected
		}
		if err := requests.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, r.ID)
	}

	if _, err := requests.UpdateManyExpired(ctx, at, 0); err != nil {
		t.Fatal(err)
	}
	expired, _ := requests.GetByID(ctx, ids[0])
	rejected, _ := requests.GetByID(ctx, ids[1])
	if expired.Status != domain.StatusExpired || !expired.IsRead || expired.Version != 2 {
		t.Errorf("expired = %+v", expired)
	}
	if rejected.Status != domain.StatusRejected {
		t.Errorf("rejected request changed to %s", rejected.Status)
	}
}
