package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/app/repositories"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
	"github.com/jdon/coffeechat/internal/pkg/helpers"
	"github.com/jdon/coffeechat/internal/pkg/validation"
)

// CoffeeChatService defines the coffee chat operations
type CoffeeChatService interface {
	CreateChat(ctx context.Context, hostID int64, fields coffeechat.Fields) (int64, error)
	ApplyToChat(ctx context.Context, chatID, guestID int64) (*dto.CoffeeChatDetailResponse, error)
	ConfirmChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error)
	RejectChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error)
	CancelChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error)
	CompleteChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error)
	ReopenChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error)
	EditChat(ctx context.Context, chatID, actorID int64, fields coffeechat.Fields) (*dto.CoffeeChatDetailResponse, error)
	DeleteChat(ctx context.Context, chatID, actorID int64) error
	RemoveChat(ctx context.Context, chatID int64) error
	GetChat(ctx context.Context, chatID int64, viewerID *int64) (*dto.CoffeeChatDetailResponse, error)
	ListChats(ctx context.Context, filter coffeechat.Filter, page coffeechat.PageRequest) (*dto.CoffeeChatListResponse, error)
	ListByGuest(ctx context.Context, guestID int64, page coffeechat.PageRequest) (*dto.CoffeeChatListResponse, error)
	ListByHost(ctx context.Context, hostID int64, page coffeechat.PageRequest) (*dto.CoffeeChatListResponse, error)
}

// coffeeChatServiceImpl implements CoffeeChatService
type coffeeChatServiceImpl struct {
	chats      repositories.CoffeeChatStore
	members    repositories.MemberStore
	categories repositories.JobCategoryStore
	notifier   Notifier
	limits     helpers.PageLimits
	now        func() time.Time
	logger     zerolog.Logger
}

// NewCoffeeChatService creates a new CoffeeChatService
func NewCoffeeChatService(
	repos *repositories.Repositories,
	notifier Notifier,
	limits helpers.PageLimits,
	logger zerolog.Logger,
) CoffeeChatService {
	if notifier == nil {
		notifier = NewNopNotifier()
	}
	return &coffeeChatServiceImpl{
		chats:      repos.CoffeeChats,
		members:    repos.Members,
		categories: repos.JobCategories,
		notifier:   notifier,
		limits:     limits,
		now:        time.Now,
		logger:     logger,
	}
}

// CreateChat opens a new slot for hostID
func (s *coffeeChatServiceImpl) CreateChat(ctx context.Context, hostID int64, fields coffeechat.Fields) (int64, error) {
	if err := validation.ValidateChatFields(fields); err != nil {
		return 0, err
	}
	if err := s.requireMember(ctx, hostID); err != nil {
		return 0, err
	}
	if err := s.requireJobCategory(ctx, fields.JobCategoryID); err != nil {
		return 0, err
	}

	chat := coffeechat.NewCoffeeChat(hostID, fields)
	chat.CreatedAt = s.now().UTC()

	id, err := s.chats.Create(ctx, chat)
	if err != nil {
		s.logger.Error().Err(err).Int64("hostID", hostID).Msg("Failed to create coffee chat")
		return 0, fmt.Errorf("failed to create coffee chat: %w", err)
	}

	s.logger.Info().Int64("chatID", id).Int64("hostID", hostID).Msg("Coffee chat created")
	return id, nil
}

// ApplyToChat binds guestID to an open chat. Of several concurrent applicants exactly one wins;
// the others get ErrAlreadyApplied.
func (s *coffeeChatServiceImpl) ApplyToChat(ctx context.Context, chatID, guestID int64) (*dto.CoffeeChatDetailResponse, error) {
	if err := s.requireMember(ctx, guestID); err != nil {
		return nil, err
	}

	current, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	// Fail fast on a dry run; the mutator repeats the checks against the record it writes.
	if err := current.Clone().Apply(guestID, s.now().UTC()); err != nil {
		return nil, err
	}

	var before *coffeechat.CoffeeChat
	updated, err := s.chats.Update(ctx, chatID, func(chat *coffeechat.CoffeeChat) error {
		before = chat.Clone()
		return chat.Apply(guestID, s.now().UTC())
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleRecord) {
			s.logger.Debug().Int64("chatID", chatID).Int64("guestID", guestID).Msg("Lost apply race")
			return nil, apperrors.ErrAlreadyApplied
		}
		return nil, s.writeError(err, chatID, coffeechat.EventApply)
	}

	s.publish(coffeechat.EventApply, before, updated, guestID)
	return detailFor(updated, &guestID), nil
}

// ConfirmChat accepts the pending applicant
func (s *coffeeChatServiceImpl) ConfirmChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error) {
	return s.transition(ctx, chatID, actorID, coffeechat.EventConfirm)
}

// RejectChat turns the pending applicant away
func (s *coffeeChatServiceImpl) RejectChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error) {
	return s.transition(ctx, chatID, actorID, coffeechat.EventReject)
}

// CancelChat withdraws an application or cancels the slot
func (s *coffeeChatServiceImpl) CancelChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error) {
	return s.transition(ctx, chatID, actorID, coffeechat.EventCancel)
}

// CompleteChat marks a confirmed chat as held
func (s *coffeeChatServiceImpl) CompleteChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error) {
	return s.transition(ctx, chatID, actorID, coffeechat.EventComplete)
}

// ReopenChat puts a cancelled slot back on offer
func (s *coffeeChatServiceImpl) ReopenChat(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error) {
	return s.transition(ctx, chatID, actorID, coffeechat.EventReopen)
}

func (s *coffeeChatServiceImpl) transition(ctx context.Context, chatID, actorID int64, ev coffeechat.Event) (*dto.CoffeeChatDetailResponse, error) {
	var before *coffeechat.CoffeeChat
	updated, err := s.chats.Update(ctx, chatID, func(chat *coffeechat.CoffeeChat) error {
		before = chat.Clone()
		return chat.Fire(ev, actorID, s.now().UTC())
	})
	if err != nil {
		return nil, s.writeError(err, chatID, ev)
	}

	s.publish(ev, before, updated, actorID)
	return detailFor(updated, &actorID), nil
}

// EditChat replaces the host-editable fields
func (s *coffeeChatServiceImpl) EditChat(ctx context.Context, chatID, actorID int64, fields coffeechat.Fields) (*dto.CoffeeChatDetailResponse, error) {
	if err := validation.ValidateChatFields(fields); err != nil {
		return nil, err
	}
	if err := s.requireJobCategory(ctx, fields.JobCategoryID); err != nil {
		return nil, err
	}

	var before *coffeechat.CoffeeChat
	updated, err := s.chats.Update(ctx, chatID, func(chat *coffeechat.CoffeeChat) error {
		before = chat.Clone()
		return chat.Edit(actorID, fields, s.now().UTC())
	})
	if err != nil {
		return nil, s.writeError(err, chatID, coffeechat.EventEdit)
	}

	s.publish(coffeechat.EventEdit, before, updated, actorID)
	return detailFor(updated, &actorID), nil
}

// DeleteChat removes an OPEN or CANCELLED chat on behalf of its host
func (s *coffeeChatServiceImpl) DeleteChat(ctx context.Context, chatID, actorID int64) error {
	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsHost(actorID) {
		return apperrors.NewForbiddenError("only the host can delete a coffee chat")
	}
	return s.RemoveChat(ctx, chatID)
}

// RemoveChat deletes a chat without an actor check. The status rule still applies.
func (s *coffeeChatServiceImpl) RemoveChat(ctx context.Context, chatID int64) error {
	if err := s.chats.Delete(ctx, chatID); err != nil {
		if !errors.Is(err, apperrors.ErrResourceNotFound) && !errors.Is(err, apperrors.ErrConflict) {
			s.logger.Error().Err(err).Int64("chatID", chatID).Msg("Failed to delete coffee chat")
		}
		return err
	}
	s.logger.Info().Int64("chatID", chatID).Msg("Coffee chat deleted")
	return nil
}

// GetChat counts a view and returns the chat with the viewer's relation to it
func (s *coffeeChatServiceImpl) GetChat(ctx context.Context, chatID int64, viewerID *int64) (*dto.CoffeeChatDetailResponse, error) {
	if err := s.chats.IncrementViewCount(ctx, chatID); err != nil {
		return nil, err
	}

	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return detailFor(chat, viewerID), nil
}

// ListChats returns one page of chats matching the filter
func (s *coffeeChatServiceImpl) ListChats(ctx context.Context, filter coffeechat.Filter, page coffeechat.PageRequest) (*dto.CoffeeChatListResponse, error) {
	filter.Sort = coffeechat.ParseSortCondition(string(filter.Sort))
	return s.list(ctx, filter, page)
}

// ListByGuest lists the chats memberID has applied to, newest first
func (s *coffeeChatServiceImpl) ListByGuest(ctx context.Context, guestID int64, page coffeechat.PageRequest) (*dto.CoffeeChatListResponse, error) {
	return s.list(ctx, coffeechat.Filter{GuestID: guestID, Sort: coffeechat.SortNewest}, page)
}

// ListByHost lists the chats memberID hosts, newest first
func (s *coffeeChatServiceImpl) ListByHost(ctx context.Context, hostID int64, page coffeechat.PageRequest) (*dto.CoffeeChatListResponse, error) {
	return s.list(ctx, coffeechat.Filter{HostID: hostID, Sort: coffeechat.SortNewest}, page)
}

func (s *coffeeChatServiceImpl) list(ctx context.Context, filter coffeechat.Filter, page coffeechat.PageRequest) (*dto.CoffeeChatListResponse, error) {
	page = helpers.NormalizePageRequest(page.Page, page.Size, s.limits)

	s.logger.Debug().
		Interface("filter", filter).
		Int("page", page.Page).
		Int("size", page.Size).
		Msg("Listing coffee chats")

	result, err := s.chats.List(ctx, filter, page)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list coffee chats")
		return nil, fmt.Errorf("failed to list coffee chats: %w", err)
	}

	resp := dto.NewCoffeeChatListResponse(result)
	return &resp, nil
}

// writeError translates a failed Update. A lost compare-and-swap becomes a conflict.
func (s *coffeeChatServiceImpl) writeError(err error, chatID int64, ev coffeechat.Event) error {
	switch {
	case errors.Is(err, apperrors.ErrStaleRecord):
		s.logger.Warn().Int64("chatID", chatID).Str("event", string(ev)).Msg("Concurrent coffee chat modification")
		return apperrors.NewConflictError("coffee chat was modified concurrently")
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrAlreadyApplied),
		errors.Is(err, apperrors.ErrPermissionDenied),
		errors.Is(err, apperrors.ErrResourceNotFound):
		return err
	default:
		s.logger.Error().Err(err).Int64("chatID", chatID).Str("event", string(ev)).Msg("Failed to update coffee chat")
		return fmt.Errorf("failed to %s coffee chat: %w", ev, err)
	}
}

func (s *coffeeChatServiceImpl) publish(ev coffeechat.Event, before, after *coffeechat.CoffeeChat, actorID int64) {
	s.logger.Info().
		Int64("chatID", after.ID).
		Str("event", string(ev)).
		Str("from", string(before.Status)).
		Str("to", string(after.Status)).
		Int64("actorID", actorID).
		Msg("Coffee chat transition")

	s.notifier.Publish(coffeechat.NewChatEvent(ev, before, after, actorID))
}

func (s *coffeeChatServiceImpl) requireMember(ctx context.Context, memberID int64) error {
	exists, err := s.members.Exists(ctx, memberID)
	if err != nil {
		return fmt.Errorf("failed to check member: %w", err)
	}
	if !exists {
		return apperrors.ErrMemberNotFound
	}
	return nil
}

func (s *coffeeChatServiceImpl) requireJobCategory(ctx context.Context, categoryID int64) error {
	exists, err := s.categories.Exists(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to check job category: %w", err)
	}
	if !exists {
		return apperrors.ErrJobCategoryNotFound
	}
	return nil
}

func detailFor(chat *coffeechat.CoffeeChat, viewerID *int64) *dto.CoffeeChatDetailResponse {
	var isHost, isGuest bool
	if viewerID != nil {
		isHost = chat.IsHost(*viewerID)
		isGuest = chat.IsGuest(*viewerID)
	}
	resp := dto.NewCoffeeChatDetailResponse(chat, isHost, isGuest)
	return &resp
}
