package dto

import (
	"time"

	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
)

// CreateCoffeeChatRequest represents the body for opening a coffee chat slot
type CreateCoffeeChatRequest struct {
	Title         string    `json:"title" binding:"required,max=100" example:"Backend career talk"`
	Content       string    `json:"content" binding:"required,max=2000" example:"Happy to talk about Go and on-call life"`
	JobCategoryID int64     `json:"jobCategoryId" binding:"required,min=1" example:"5"`
	MeetDate      time.Time `json:"meetDate" binding:"required" example:"2025-05-01T19:00:00Z"`
	OpenChatURL   string    `json:"openChatUrl" binding:"required,url" example:"https://open.kakao.com/o/abc123"`
}

// Fields converts the request into domain fields
func (r CreateCoffeeChatRequest) Fields() coffeechat.Fields {
	return coffeechat.Fields{
		Title:         r.Title,
		Content:       r.Content,
		JobCategoryID: r.JobCategoryID,
		MeetDate:      r.MeetDate,
		OpenChatURL:   r.OpenChatURL,
	}
}

// UpdateCoffeeChatRequest represents the body for editing a coffee chat
type UpdateCoffeeChatRequest struct {
	CreateCoffeeChatRequest
}

// CreatedResponse carries the id of a newly created resource
type CreatedResponse struct {
	ID int64 `json:"id" example:"42"`
}

// CoffeeChatResponse is the list representation of a coffee chat
type CoffeeChatResponse struct {
	ID            int64     `json:"id" example:"42"`
	HostID        int64     `json:"hostId" example:"7"`
	GuestID       *int64    `json:"guestId,omitempty" example:"9"`
	JobCategoryID int64     `json:"jobCategoryId" example:"5"`
	Status        string    `json:"status" example:"OPEN" enums:"OPEN,APPLIED,CONFIRMED,CANCELLED,COMPLETED"`
	Title         string    `json:"title" example:"Backend career talk"`
	MeetDate      time.Time `json:"meetDate" example:"2025-05-01T19:00:00Z"`
	ViewCount     int64     `json:"viewCount" example:"12"`
	CreatedAt     time.Time `json:"createdAt" example:"2025-04-20T10:00:00Z"`
}

// CoffeeChatDetailResponse is the detail representation including viewer flags
type CoffeeChatDetailResponse struct {
	CoffeeChatResponse
	Content     string    `json:"content" example:"Happy to talk about Go and on-call life"`
	OpenChatURL string    `json:"openChatUrl" example:"https://open.kakao.com/o/abc123"`
	UpdatedAt   time.Time `json:"updatedAt" example:"2025-04-21T10:00:00Z"`
	IsHost      bool      `json:"isHost" example:"false"`
	IsGuest     bool      `json:"isGuest" example:"false"`
}

// CoffeeChatListResponse wraps a page of coffee chats
type CoffeeChatListResponse struct {
	CoffeeChats []CoffeeChatResponse `json:"coffeeChats"`
	Pagination  PaginationInfo       `json:"pagination"`
}

// JobCategoryResponse represents a job category
type JobCategoryResponse struct {
	ID       int64  `json:"id" example:"5"`
	Name     string `json:"name" example:"Backend"`
	ParentID *int64 `json:"parentId,omitempty" example:"1"`
}

// FromCoffeeChat converts a chat to its list representation
func FromCoffeeChat(chat *coffeechat.CoffeeChat) CoffeeChatResponse {
	return CoffeeChatResponse{
		ID:            chat.ID,
		HostID:        chat.HostID,
		GuestID:       chat.GuestID,
		JobCategoryID: chat.JobCategoryID,
		Status:        string(chat.Status),
		Title:         chat.Title,
		MeetDate:      chat.MeetDate,
		ViewCount:     chat.ViewCount,
		CreatedAt:     chat.CreatedAt,
	}
}

// NewCoffeeChatDetailResponse converts a chat plus the viewer's relation to it
func NewCoffeeChatDetailResponse(chat *coffeechat.CoffeeChat, isHost, isGuest bool) CoffeeChatDetailResponse {
	return CoffeeChatDetailResponse{
		CoffeeChatResponse: FromCoffeeChat(chat),
		Content:            chat.Content,
		OpenChatURL:        chat.OpenChatURL,
		UpdatedAt:          chat.UpdatedAt,
		IsHost:             isHost,
		IsGuest:            isGuest,
	}
}

// NewCoffeeChatListResponse converts a page of chats
func NewCoffeeChatListResponse(page *coffeechat.Page) CoffeeChatListResponse {
	items := make([]CoffeeChatResponse, 0, len(page.Items))
	for _, chat := range page.Items {
		items = append(items, FromCoffeeChat(chat))
	}
	return CoffeeChatListResponse{
		CoffeeChats: items,
		Pagination: PaginationInfo{
			Page:       page.Page,
			Size:       page.Size,
			TotalItems: page.TotalItems,
			TotalPages: page.TotalPages,
			First:      page.First(),
			Last:       page.Last(),
		},
	}
}

// FromJobCategories converts job categories to responses
func FromJobCategories(categories []*models.JobCategory) []JobCategoryResponse {
	out := make([]JobCategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, JobCategoryResponse{ID: c.ID, Name: c.Name, ParentID: c.ParentID})
	}
	return out
}
