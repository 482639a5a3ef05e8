package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const EntityTask = "task"

// Item is a task write that could not reach the primary store and waits for replay.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Entity == "" {
		i.Entity = EntityTask
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
