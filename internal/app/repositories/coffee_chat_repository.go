package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
	"github.com/jdon/coffeechat/internal/pkg/dberrors"
	"github.com/jdon/coffeechat/internal/pkg/logger"
)

const (
	coffeeChatTable = "coffee_chats"

	fkCoffeeChatHost        = "fk_coffee_chats_host"
	fkCoffeeChatJobCategory = "fk_coffee_chats_job_category"
)

var coffeeChatColumns = []string{
	"id", "host_id", "guest_id", "job_category_id", "status", "title", "content",
	"meet_date", "open_chat_url", "view_count", "version", "created_at", "updated_at",
}

// coffeeChatOrderBy maps a sort condition to its ORDER BY clause; every entry ties on id.
var coffeeChatOrderBy = map[coffeechat.SortCondition]string{
	coffeechat.SortNewest:    "created_at DESC, id DESC",
	coffeechat.SortOldest:    "created_at ASC, id DESC",
	coffeechat.SortMeetDate:  "meet_date ASC, id DESC",
	coffeechat.SortViewCount: "view_count DESC, id DESC",
}

// CoffeeChatRepository is the PostgreSQL CoffeeChatStore
type CoffeeChatRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCoffeeChatRepository creates a new CoffeeChatRepository
func NewCoffeeChatRepository(db *pgxpool.Pool) *CoffeeChatRepository {
	return &CoffeeChatRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new chat with version 1
func (r *CoffeeChatRepository) Create(ctx context.Context, chat *coffeechat.CoffeeChat) (int64, error) {
	now := time.Now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = chat.CreatedAt
	chat.Version = 1

	sqlStr, args, err := r.sb.Insert(coffeeChatTable).
		Columns("host_id", "guest_id", "job_category_id", "status", "title", "content",
			"meet_date", "open_chat_url", "view_count", "version", "created_at", "updated_at").
		Values(chat.HostID, chat.GuestID, chat.JobCategoryID, string(chat.Status), chat.Title, chat.Content,
			chat.MeetDate, chat.OpenChatURL, chat.ViewCount, chat.Version, chat.CreatedAt, chat.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create coffee chat SQL")
		return 0, fmt.Errorf("failed to build create coffee chat query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&chat.ID); err != nil {
		switch {
		case dberrors.IsForeignKeyViolation(err, fkCoffeeChatHost):
			return 0, apperrors.ErrMemberNotFound
		case dberrors.IsForeignKeyViolation(err, fkCoffeeChatJobCategory):
			return 0, apperrors.ErrJobCategoryNotFound
		}
		logger.Error().Err(err).Int64("hostID", chat.HostID).Msg("Error creating coffee chat")
		return 0, fmt.Errorf("failed to create coffee chat: %w", err)
	}

	return chat.ID, nil
}

// Get retrieves a chat by id
func (r *CoffeeChatRepository) Get(ctx context.Context, id int64) (*coffeechat.CoffeeChat, error) {
	sqlStr, args, err := r.sb.Select(coffeeChatColumns...).
		From(coffeeChatTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get coffee chat query: %w", err)
	}

	chat, err := scanCoffeeChat(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCoffeeChatNotFound
		}
		logger.Error().Err(err).Int64("chatID", id).Msg("Error retrieving coffee chat")
		return nil, fmt.Errorf("failed to get coffee chat: %w", err)
	}
	return chat, nil
}

// Update reads the chat, applies mutate and writes it back guarded by the version read.
func (r *CoffeeChatRepository) Update(ctx context.Context, id int64, mutate MutateFunc) (*coffeechat.CoffeeChat, error) {
	working, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := working.Version

	if err := checkedMutate(working, mutate); err != nil {
		return nil, err
	}

	sqlStr, args, err := r.sb.Update(coffeeChatTable).
		Set("guest_id", working.GuestID).
		Set("job_category_id", working.JobCategoryID).
		Set("status", string(working.Status)).
		Set("title", working.Title).
		Set("content", working.Content).
		Set("meet_date", working.MeetDate).
		Set("open_chat_url", working.OpenChatURL).
		Set("updated_at", working.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": id, "version": readVersion}).
		Suffix("RETURNING version, view_count").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update coffee chat query: %w", err)
	}

	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(&working.Version, &working.ViewCount)
	if err == nil {
		return working, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if dberrors.IsForeignKeyViolation(err, fkCoffeeChatJobCategory) {
			return nil, apperrors.ErrJobCategoryNotFound
		}
		logger.Error().Err(err).Int64("chatID", id).Msg("Error updating coffee chat")
		return nil, fmt.Errorf("failed to update coffee chat: %w", err)
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrCoffeeChatNotFound
	}
	logger.Debug().Int64("chatID", id).Int64("version", readVersion).Msg("Coffee chat version moved during update")
	return nil, apperrors.ErrStaleRecord
}

// Delete removes the chat if its status allows it. The status check and the delete are one statement.
func (r *CoffeeChatRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := r.sb.Delete(coffeeChatTable).
		Where(squirrel.Eq{
			"id":     id,
			"status": []string{string(coffeechat.StatusOpen), string(coffeechat.StatusCancelled)},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete coffee chat query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("chatID", id).Msg("Error deleting coffee chat")
		return fmt.Errorf("failed to delete coffee chat: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrCoffeeChatNotFound
	}
	return apperrors.ErrCoffeeChatNotDeletable
}

// List returns one page of chats matching the filter
func (r *CoffeeChatRepository) List(ctx context.Context, filter coffeechat.Filter, page coffeechat.PageRequest) (*coffeechat.Page, error) {
	where := squirrel.And{}
	if filter.JobCategoryID > 0 {
		where = append(where, squirrel.Eq{"job_category_id": filter.JobCategoryID})
	}
	if filter.HostID > 0 {
		where = append(where, squirrel.Eq{"host_id": filter.HostID})
	}
	if filter.GuestID > 0 {
		where = append(where, squirrel.Eq{"guest_id": filter.GuestID})
	}
	if kw := filter.NormalizedKeyword(); kw != "" {
		pattern := containsPattern(kw)
		where = append(where, squirrel.Or{
			squirrel.Expr(`title ILIKE ? ESCAPE '\'`, pattern),
			squirrel.Expr(`content ILIKE ? ESCAPE '\'`, pattern),
		})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From(coffeeChatTable).Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count coffee chats SQL")
		return nil, fmt.Errorf("failed to build count coffee chats query: %w", err)
	}

	var totalItems int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalItems); err != nil {
		logger.Error().Err(err).Msg("Error executing count coffee chats query")
		return nil, fmt.Errorf("failed to count coffee chats: %w", err)
	}
	if totalItems == 0 {
		return coffeechat.NewPage(nil, page, 0), nil
	}

	querySQL, queryArgs, err := r.sb.Select(coffeeChatColumns...).
		From(coffeeChatTable).
		Where(where).
		OrderBy(coffeeChatOrderBy[coffeechat.ParseSortCondition(string(filter.Sort))]).
		Limit(uint64(page.Size)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list coffee chats SQL")
		return nil, fmt.Errorf("failed to build list coffee chats query: %w", err)
	}

	rows, err := r.db.Query(ctx, querySQL, queryArgs...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list coffee chats query")
		return nil, fmt.Errorf("failed to list coffee chats: %w", err)
	}
	defer rows.Close()

	items := make([]*coffeechat.CoffeeChat, 0, page.Size)
	for rows.Next() {
		chat, err := scanCoffeeChat(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning coffee chat row")
			return nil, fmt.Errorf("failed to scan coffee chat row: %w", err)
		}
		items = append(items, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coffee chat rows: %w", err)
	}

	return coffeechat.NewPage(items, page, totalItems), nil
}

// IncrementViewCount bumps the view counter; the version is left alone.
func (r *CoffeeChatRepository) IncrementViewCount(ctx context.Context, id int64) error {
	sqlStr, args, err := r.sb.Update(coffeeChatTable).
		Set("view_count", squirrel.Expr("view_count + 1")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build increment view count query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCoffeeChatNotFound
	}
	return nil
}

func (r *CoffeeChatRepository) exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM coffee_chats WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking coffee chat existence: %w", err)
	}
	return exists, nil
}

func scanCoffeeChat(row pgx.Row) (*coffeechat.CoffeeChat, error) {
	var chat coffeechat.CoffeeChat
	var status string
	err := row.Scan(
		&chat.ID,
		&chat.HostID,
		&chat.GuestID,
		&chat.JobCategoryID,
		&status,
		&chat.Title,
		&chat.Content,
		&chat.MeetDate,
		&chat.OpenChatURL,
		&chat.ViewCount,
		&chat.Version,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	chat.Status = coffeechat.Status(status)
	return &chat, nil
}
