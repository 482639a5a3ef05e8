package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
)

func decodePatch(t *testing.T, body string) (domain.TaskPatch, error) {
	t.Helper()
	var req TaskPatchRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req.Patch()
}

func TestTaskPatchRequest_DueDate(t *testing.T) {
	patch, err := decodePatch(t, `{"title":"x"}`)
	require.NoError(t, err)
	assert.Nil(t, patch.DueDate)
	assert.False(t, patch.ClearDueDate)

	patch, err = decodePatch(t, `{"due_date":null}`)
	require.NoError(t, err)
	assert.True(t, patch.ClearDueDate)

	patch, err = decodePatch(t, `{"dueDate":"2026-04-01"}`)
	require.NoError(t, err)
	require.NotNil(t, patch.DueDate)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *patch.DueDate)

	patch, err = decodePatch(t, `{"due_date":"2026-04-01T10:00:00+02:00"}`)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC), *patch.DueDate)

	_, err = decodePatch(t, `{"due_date":"next week"}`)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	_, err = decodePatch(t, `{"due_date":42}`)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestTaskPatchRequest_Enums(t *testing.T) {
	patch, err := decodePatch(t, `{"status":"pending","priority":"HIGH"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, *patch.Status)
	assert.Equal(t, domain.PriorityHigh, *patch.Priority)

	_, err = decodePatch(t, `{"status":"archived"}`)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestTaskCreateRequest_Due(t *testing.T) {
	var req TaskCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t","due_date":""}`), &req))
	due, err := req.Due()
	require.NoError(t, err)
	assert.Nil(t, due)
}

func TestChangePasswordRequest_Aliases(t *testing.T) {
	var req ChangePasswordRequest
	require.NoError(t, json.Unmarshal([]byte(`{"currentPassword":"a","new_password":"b"}`), &req))
	assert.Equal(t, "a", req.Current())
	assert.Equal(t, "b", req.New())
}

func TestEnvelopeBytes(t *testing.T) {
	body := Failure("NOT_FOUND", "task not found").WithMeta(map[string]int{"retry_after": 0}).Bytes()
	assert.JSONEq(t, `{"status":"error","code":"NOT_FOUND","error":"task not found","meta":{"retry_after":0}}`, string(body))

	assert.JSONEq(t, `{"status":"success","data":{"message":"ok"}}`, string(Success(MessageResponse{Message: "ok"}).Bytes()))

	assert.Equal(t, fallbackBody, Success(make(chan int)).Bytes())
}
