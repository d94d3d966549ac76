package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const activePairConstraint = "introduction_requests_active_pair_idx"

type requestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) repository.RequestRepository {
	return &requestRepository{db: db}
}

// jsonb stores a nested value in a JSONB column.
type jsonb[T any] struct {
	V T
}

func (j jsonb[T]) Value() (driver.Value, error) {
	return json.Marshal(j.V)
}

func (j *jsonb[T]) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("jsonb: cannot scan %T", src)
	}
	return json.Unmarshal(raw, &j.V)
}

type requestRow struct {
	domain.IntroductionRequest
	ResponseJSON         jsonb[domain.RequestResponse]  `db:"response"`
	MeetingJSON          jsonb[domain.Meeting]          `db:"meeting"`
	GuardianApprovalJSON jsonb[domain.GuardianApproval] `db:"guardian_approval"`
}

func toRequestRow(r *domain.IntroductionRequest) *requestRow {
	return &requestRow{
		IntroductionRequest:  *r,
		ResponseJSON:         jsonb[domain.RequestResponse]{V: r.Response},
		MeetingJSON:          jsonb[domain.Meeting]{V: r.Meeting},
		GuardianApprovalJSON: jsonb[domain.GuardianApproval]{V: r.GuardianApproval},
	}
}

func (row *requestRow) request() *domain.IntroductionRequest {
	r := row.IntroductionRequest
	r.Response = row.ResponseJSON.V
	r.Meeting = row.MeetingJSON.V
	r.GuardianApproval = row.GuardianApprovalJSON.V
	return &r
}

const requestSelect = `
	SELECT id, sender_id, receiver_id, message, status, response, meeting,
	       guardian_approval, chat_room_id, expires_at, is_read, read_at,
	       hidden_by_sender, hidden_by_receiver, created_at, updated_at, version
	FROM introduction_requests`

func (r *requestRepository) Create(ctx context.Context, request *domain.IntroductionRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	request.Version = 1

	query := `
		INSERT INTO introduction_requests (
			id, sender_id, receiver_id, message, status, response, meeting,
			guardian_approval, chat_room_id, expires_at, is_read, read_at,
			hidden_by_sender, hidden_by_receiver, created_at, updated_at, version
		)
		VALUES (
			:id, :sender_id, :receiver_id, :message, :status, :response, :meeting,
			:guardian_approval, :chat_room_id, :expires_at, :is_read, :read_at,
			:hidden_by_sender, :hidden_by_receiver, :created_at, :updated_at, :version
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, toRequestRow(request)); err != nil {
		if isUniqueViolation(err, activePairConstraint) {
			return domain.ErrDuplicateActiveRequest
		}
		return err
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.IntroductionRequest, error) {
	var row requestRow
	err := r.db.GetContext(ctx, &row, requestSelect+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return row.request(), nil
}

func (r *requestRepository) FindActivePair(ctx context.Context, senderID, receiverID uuid.UUID) (*domain.IntroductionRequest, error) {
	var row requestRow
	query := requestSelect + ` WHERE sender_id = $1 AND receiver_id = $2 AND status = ANY($3)`
	err := r.db.GetContext(ctx, &row, query, senderID, receiverID, pq.Array(statusStrings(domain.ActiveStatuses)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return row.request(), nil
}

func (r *requestRepository) Update(ctx context.Context, request *domain.IntroductionRequest) error {
	query := `
		UPDATE introduction_requests
		SET status = :status, response = :response, meeting = :meeting,
		    guardian_approval = :guardian_approval, chat_room_id = :chat_room_id,
		    is_read = :is_read, read_at = :read_at, hidden_by_sender = :hidden_by_sender,
		    hidden_by_receiver = :hidden_by_receiver, updated_at = :updated_at, version = version + 1
		WHERE id = :id AND version = :version
	`
	result, err := r.db.NamedExecContext(ctx, query, toRequestRow(request))
	if err != nil {
		if isUniqueViolation(err, activePairConstraint) {
			return domain.ErrDuplicateActiveRequest
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM introduction_requests WHERE id = $1)`, request.ID); err != nil {
			return err
		}
		if !exists {
			return domain.ErrRequestNotFound
		}
		return domain.ErrConcurrentUpdate
	}
	request.Version++
	return nil
}

func (r *requestRepository) List(ctx context.Context, q repository.RequestListQuery) ([]*domain.IntroductionRequest, int, error) {
	owner, hidden := "sender_id", "hidden_by_sender"
	if q.Direction == repository.DirectionReceived {
		owner, hidden = "receiver_id", "hidden_by_receiver"
	}

	conds := []string{owner + " = $1"}
	args := []interface{}{q.ProfileID}
	if q.Status != "" {
		args = append(args, string(q.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if !q.IncludeHidden {
		conds = append(conds, "NOT "+hidden)
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM introduction_requests`+where, args...); err != nil {
		return nil, 0, err
	}

	query := requestSelect + where + ` ORDER BY created_at DESC, id`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}
	out := make([]*domain.IntroductionRequest, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].request())
	}
	return out, total, nil
}

// UpdateManyExpired skips rows locked by another sweeper and re-checks the
// status in the UPDATE itself.
func (r *requestRepository) UpdateManyExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	query := `
		WITH due AS (
			SELECT id FROM introduction_requests
			WHERE status = 'pending' AND expires_at < $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE introduction_requests r
		SET status = 'expired', is_read = TRUE, read_at = COALESCE(r.read_at, $1),
		    updated_at = $1, version = r.version + 1
		FROM due
		WHERE r.id = due.id AND r.status = 'pending'
	`
	var batch interface{}
	if limit > 0 {
		batch = limit
	}
	result, err := r.db.ExecContext(ctx, query, now, batch)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

func statusStrings(statuses []domain.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
