package coffeechat

import (
	"math"
	"sort"
	"strings"
)

// SortCondition selects the listing order
type SortCondition string

const (
	SortNewest    SortCondition = "NEWEST"
	SortOldest    SortCondition = "OLDEST"
	SortMeetDate  SortCondition = "MEET_DATE"
	SortViewCount SortCondition = "VIEW_COUNT"
)

// ParseSortCondition maps a request value to a SortCondition; empty or unknown values
// fall back to newest first.
func ParseSortCondition(value string) SortCondition {
	switch SortCondition(strings.ToUpper(strings.TrimSpace(value))) {
	case SortOldest:
		return SortOldest
	case SortMeetDate:
		return SortMeetDate
	case SortViewCount:
		return SortViewCount
	default:
		return SortNewest
	}
}

// Filter narrows a chat listing. Zero values mean "no filter".
type Filter struct {
	Keyword       string
	JobCategoryID int64
	HostID        int64
	GuestID       int64
	Sort          SortCondition
}

// NormalizedKeyword is the trimmed, lower-cased keyword
func (f Filter) NormalizedKeyword() string {
	return strings.ToLower(strings.TrimSpace(f.Keyword))
}

// Matches evaluates the filter against a chat in memory.
func (f Filter) Matches(c *CoffeeChat) bool {
	if f.JobCategoryID > 0 && c.JobCategoryID != f.JobCategoryID {
		return false
	}
	if f.HostID > 0 && c.HostID != f.HostID {
		return false
	}
	if f.GuestID > 0 && !c.IsGuest(f.GuestID) {
		return false
	}
	if kw := f.NormalizedKeyword(); kw != "" {
		if !strings.Contains(strings.ToLower(c.Title), kw) && !strings.Contains(strings.ToLower(c.Content), kw) {
			return false
		}
	}
	return true
}

// Less orders a before b under the filter's sort condition; ties break on id descending.
func (f Filter) Less(a, b *CoffeeChat) bool {
	switch ParseSortCondition(string(f.Sort)) {
	case SortOldest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	case SortMeetDate:
		if !a.MeetDate.Equal(b.MeetDate) {
			return a.MeetDate.Before(b.MeetDate)
		}
	case SortViewCount:
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID > b.ID
}

// SortChats orders chats in place
func (f Filter) SortChats(chats []*CoffeeChat) {
	sort.SliceStable(chats, func(i, j int) bool { return f.Less(chats[i], chats[j]) })
}

// PageRequest is a zero-based page index and a page size
type PageRequest struct {
	Page int
	Size int
}

// Offset is the number of items skipped before this page. It saturates at math.MaxInt
// instead of overflowing.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// Page is one page of a chat listing together with the total count
type Page struct {
	Items      []*CoffeeChat
	Page       int
	Size       int
	TotalItems int64
	TotalPages int
}

// NewPage builds a page and computes TotalPages
func NewPage(items []*CoffeeChat, req PageRequest, total int64) *Page {
	if items == nil {
		items = []*CoffeeChat{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page{
		Items:      items,
		Page:       req.Page,
		Size:       req.Size,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// First reports whether this is the first page
func (p *Page) First() bool {
	return p.Page == 0
}

// Last reports whether no page follows this one
func (p *Page) Last() bool {
	return p.Page+1 >= p.TotalPages
}

// Paginate filters, sorts and slices an in-memory collection.
func Paginate(all []*CoffeeChat, f Filter, req PageRequest) *Page {
	matched := make([]*CoffeeChat, 0, len(all))
	for _, c := range all {
		if f.Matches(c) {
			matched = append(matched, c)
		}
	}
	f.SortChats(matched)

	total := int64(len(matched))
	start := req.Offset()
	if start < 0 || start > len(matched) {
		start = len(matched)
	}
	end := start + req.Size
	if end > len(matched) {
		end = len(matched)
	}
	return NewPage(matched[start:end], req, total)
}
