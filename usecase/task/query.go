package task

import (
	"strconv"
	"strings"

	"github.com/fastygo/taskflow/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 6
	MaxLimit     = 100
	maxPage      = 1_000_000
	maxSearchLen = 200
)

// Query is the validated form of the list parameters accepted by ListTasks.
type Query struct {
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	Search   string
	Page     int
	Limit    int
}

// ParseQuery builds a Query from raw request parameters. Empty values mean
// "not provided"; unknown status or priority values are rejected.
func ParseQuery(status, priority, search, page, limit string) (Query, error) {
	var q Query
	if status = strings.TrimSpace(status); status != "" {
		parsed, err := domain.ParseTaskStatus(status)
		if err != nil {
			return Query{}, err
		}
		q.Status = parsed
	}
	if priority = strings.TrimSpace(priority); priority != "" {
		parsed, err := domain.ParseTaskPriority(priority)
		if err != nil {
			return Query{}, err
		}
		q.Priority = parsed
	}
	q.Search = strings.TrimSpace(search)
	if len(q.Search) > maxSearchLen {
		return Query{}, domain.Invalid("search term is too long")
	}
	q.Page = parseInt(page, DefaultPage)
	q.Limit = parseInt(limit, DefaultLimit)
	return q.normalized(), nil
}

// normalized applies paging defaults and caps the page size.
func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Page > maxPage {
		q.Page = maxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q Query) offset() int {
	return (q.Page - 1) * q.Limit
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return v
	}
	return fallback
}
