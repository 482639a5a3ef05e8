package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/buffer"
	"github.com/fastygo/taskflow/usecase"
)

// BufferBridge turns task writes that failed against postgres into buffer
// items the processor can replay.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

// BufferTask queues a task write for replay. Only create, update and delete
// are accepted; the task is stored as a full snapshot.
func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if b == nil || b.processor == nil || task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	switch operation {
	case usecase.OperationCreate, usecase.OperationUpdate, usecase.OperationDelete:
	default:
		return domain.Invalid(fmt.Sprintf("operation %q cannot be buffered", operation))
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode buffered task: %w", err)
	}
	item := buffer.Item{
		UserID:    task.UserID,
		Entity:    buffer.EntityTask,
		Operation: operation,
		Data:      payload,
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
