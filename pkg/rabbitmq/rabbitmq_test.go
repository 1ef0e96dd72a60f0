package rabbitmq_test

import (
	"encoding/json"
	"testing"
	"time"

	"filehub/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileEventJSONFieldNames(t *testing.T) {
	event := rabbitmq.FileEvent{
		Event:      rabbitmq.EventFileUploaded,
		FileID:     "f-1",
		UserID:     "u-1",
		Filename:   "report.pdf",
		FileType:   "PDF",
		FileSize:   10,
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	body, err := json.Marshal(event)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "file.uploaded", raw["event"])
	assert.Equal(t, "f-1", raw["file_id"])
	assert.Equal(t, "2024-01-02T03:04:05Z", raw["occurred_at"])
}

func TestClientWithoutChannel(t *testing.T) {
	c := &rabbitmq.Client{}
	assert.Error(t, c.PublishFileEvent(rabbitmq.FileEvent{}))
	assert.Error(t, c.ConsumeFileEvents(rabbitmq.LogFileEvent))
	assert.NoError(t, c.Close())
}

func TestLogFileEventAcks(t *testing.T) {
	assert.NoError(t, rabbitmq.LogFileEvent(rabbitmq.FileEvent{Event: rabbitmq.EventFileDeleted}))
}
