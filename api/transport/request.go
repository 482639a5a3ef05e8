package transport

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/fastygo/taskflow/domain"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest accepts both camelCase and snake_case field names.
type ChangePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	NewPassword          string `json:"new_password"`
	CurrentPasswordCamel string `json:"currentPassword"`
	NewPasswordCamel     string `json:"newPassword"`
}

func (r ChangePasswordRequest) Current() string {
	return firstNonEmpty(r.CurrentPassword, r.CurrentPasswordCamel)
}

func (r ChangePasswordRequest) New() string {
	return firstNonEmpty(r.NewPassword, r.NewPasswordCamel)
}

type TaskCreateRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
	Priority     string          `json:"priority"`
	DueDate      json.RawMessage `json:"due_date"`
	DueDateCamel json.RawMessage `json:"dueDate"`
}

// Due parses the optional due date; null and empty values mean none.
func (r TaskCreateRequest) Due() (*time.Time, error) {
	due, _, err := parseDueDate(pickRaw(r.DueDate, r.DueDateCamel))
	return due, err
}

// TaskPatchRequest distinguishes absent fields (nil) from explicit values.
// An explicit null due date clears it.
type TaskPatchRequest struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	Status       *string         `json:"status"`
	Priority     *string         `json:"priority"`
	DueDate      json.RawMessage `json:"due_date"`
	DueDateCamel json.RawMessage `json:"dueDate"`
}

func (r TaskPatchRequest) Patch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Status != nil {
		status, err := domain.ParseTaskStatus(*r.Status)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Status = &status
	}
	if r.Priority != nil {
		priority, err := domain.ParseTaskPriority(*r.Priority)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Priority = &priority
	}

	raw := pickRaw(r.DueDate, r.DueDateCamel)
	due, present, err := parseDueDate(raw)
	if err != nil {
		return domain.TaskPatch{}, err
	}
	if present {
		if due == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}
	return patch, nil
}

var dueDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// parseDueDate reports present=false when the field was omitted entirely.
func parseDueDate(raw json.RawMessage) (*time.Time, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, true, domain.Invalid("due date must be a string")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true, nil
	}
	for _, layout := range dueDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			parsed = parsed.UTC()
			return &parsed, true, nil
		}
	}
	return nil, true, domain.Invalid("due date must be an ISO 8601 date")
}

func pickRaw(primary, alt json.RawMessage) json.RawMessage {
	if len(primary) > 0 {
		return primary
	}
	return alt
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
