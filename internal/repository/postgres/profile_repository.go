package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Sealer encrypts sensitive columns before they reach the database.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

type profileRepository struct {
	db     *sqlx.DB
	sealer Sealer
}

func NewProfileRepository(db *sqlx.DB, sealer Sealer) repository.ProfileRepository {
	return &profileRepository{db: db, sealer: sealer}
}

// profileRow flattens privacy settings and the sealed guardian contact into
// columns next to the profile fields.
type profileRow struct {
	domain.Profile
	Visibility              string         `db:"visibility"`
	MessagePermission       string         `db:"message_permission"`
	RequireGuardianApproval bool           `db:"require_guardian_approval"`
	BlockedUsers            pq.StringArray `db:"blocked_users"`
	GuardianSealed          []byte         `db:"guardian_sealed"`
}

const profileSelect = `
	SELECT id, user_id, display_name, about, gender, age, height_cm,
	       country, region, city, marital_status, religious_level, education,
	       occupation, marriage_goal, has_children, wants_children,
	       has_beard, wears_hijab, wears_niqab, prays_regularly, is_verified,
	       guardian_sealed, visibility, message_permission, require_guardian_approval,
	       blocked_users, completion_percentage, is_active, is_deleted, deleted_at,
	       created_at, updated_at
	FROM profiles`

func (r *profileRepository) toRow(p *domain.Profile) (*profileRow, error) {
	row := &profileRow{
		Profile:                 *p,
		Visibility:              string(p.Privacy.Visibility),
		MessagePermission:       string(p.Privacy.MessagePermission),
		RequireGuardianApproval: p.Privacy.RequireGuardianApproval,
		BlockedUsers:            make(pq.StringArray, 0, len(p.Privacy.BlockedUsers)),
	}
	for _, id := range p.Privacy.BlockedUsers {
		row.BlockedUsers = append(row.BlockedUsers, id.String())
	}
	if p.Guardian != nil {
		raw, err := json.Marshal(p.Guardian)
		if err != nil {
			return nil, err
		}
		if row.GuardianSealed, err = r.sealer.Seal(raw); err != nil {
			return nil, fmt.Errorf("seal guardian contact: %w", err)
		}
	}
	return row, nil
}

func (r *profileRepository) fromRow(row *profileRow) (*domain.Profile, error) {
	p := row.Profile
	p.Privacy = domain.PrivacySettings{
		Visibility:              domain.Visibility(row.Visibility),
		MessagePermission:       domain.MessagePermission(row.MessagePermission),
		RequireGuardianApproval: row.RequireGuardianApproval,
	}
	for _, s := range row.BlockedUsers {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		p.Privacy.BlockedUsers = append(p.Privacy.BlockedUsers, id)
	}
	if len(row.GuardianSealed) > 0 {
		raw, err := r.sealer.Open(row.GuardianSealed)
		if err != nil {
			return nil, fmt.Errorf("open guardian contact: %w", err)
		}
		var g domain.GuardianContact
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, err
		}
		p.Guardian = &g
	}
	return &p, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	row, err := r.toRow(profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (
			id, user_id, display_name, about, gender, age, height_cm,
			country, region, city, marital_status, religious_level, education,
			occupation, marriage_goal, has_children, wants_children,
			has_beard, wears_hijab, wears_niqab, prays_regularly, is_verified,
			guardian_sealed, visibility, message_permission, require_guardian_approval,
			blocked_users, completion_percentage, is_active, is_deleted, deleted_at,
			created_at, updated_at
		)
		VALUES (
			:id, :user_id, :display_name, :about, :gender, :age, :height_cm,
			:country, :region, :city, :marital_status, :religious_level, :education,
			:occupation, :marriage_goal, :has_children, :wants_children,
			:has_beard, :wears_hijab, :wears_niqab, :prays_regularly, :is_verified,
			:guardian_sealed, :visibility, :message_permission, :require_guardian_approval,
			:blocked_users, :completion_percentage, :is_active, :is_deleted, :deleted_at,
			:created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err, "profiles_user_id_key") {
			return domain.ErrProfileAlreadyExists
		}
		return err
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return r.getOne(ctx, profileSelect+` WHERE id = $1`, id)
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return r.getOne(ctx, profileSelect+` WHERE user_id = $1`, userID)
}

func (r *profileRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Profile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return r.fromRow(&row)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	row, err := r.toRow(profile)
	if err != nil {
		return err
	}

	query := `
		UPDATE profiles
		SET display_name = :display_name, about = :about, gender = :gender, age = :age,
		    height_cm = :height_cm, country = :country, region = :region, city = :city,
		    marital_status = :marital_status, religious_level = :religious_level,
		    education = :education, occupation = :occupation, marriage_goal = :marriage_goal,
		    has_children = :has_children, wants_children = :wants_children,
		    has_beard = :has_beard, wears_hijab = :wears_hijab, wears_niqab = :wears_niqab,
		    prays_regularly = :prays_regularly, is_verified = :is_verified,
		    guardian_sealed = :guardian_sealed, visibility = :visibility,
		    message_permission = :message_permission,
		    require_guardian_approval = :require_guardian_approval,
		    blocked_users = :blocked_users, completion_percentage = :completion_percentage,
		    is_active = :is_active, is_deleted = :is_deleted, deleted_at = :deleted_at,
		    updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) FindMany(ctx context.Context, filter repository.Filter, order []repository.Order, skip, limit int) ([]*domain.Profile, error) {
	args := []interface{}{}
	where, err := whereClause(filter, &args)
	if err != nil {
		return nil, err
	}
	orderBy, err := orderClause(order)
	if err != nil {
		return nil, err
	}

	query := profileSelect + ` WHERE ` + where + ` ORDER BY ` + orderBy
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if skip > 0 {
		args = append(args, skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	profiles := make([]*domain.Profile, 0, len(rows))
	for i := range rows {
		p, err := r.fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (r *profileRepository) Count(ctx context.Context, filter repository.Filter) (int, error) {
	args := []interface{}{}
	where, err := whereClause(filter, &args)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles WHERE `+where, args...)
	return n, err
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
