package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
	"github.com/jdon/coffeechat/internal/pkg/dberrors"
)

// MemberRepository handles database operations for members
type MemberRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a member
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) (int64, error) {
	sqlStr, args, err := r.sb.Insert("members").
		Columns("email", "nickname").
		Values(member.Email, member.Nickname).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create member query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&member.ID, &member.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "members_email_key") {
			return 0, apperrors.NewConflictError("member email already registered")
		}
		return 0, fmt.Errorf("error creating member: %w", err)
	}
	return member.ID, nil
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	var member models.Member
	err := r.db.QueryRow(ctx, `
		SELECT id, email, nickname, created_at
		FROM members
		WHERE id = $1`, id).Scan(&member.ID, &member.Email, &member.Nickname, &member.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, fmt.Errorf("error retrieving member: %w", err)
	}
	return &member, nil
}

// Exists checks whether a member with the id exists
func (r *MemberRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking member existence: %w", err)
	}
	return exists, nil
}
