package worker_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"webvec/internal/config"
	"webvec/internal/worker"
)

func taskMessage(t *testing.T, payload worker.IngestTaskPayload) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	return &nsq.Message{Body: body}
}

func TestHandleMessage_Completed(t *testing.T) {
	exec := new(MockJobExecutor)
	pub := new(MockTaskPublisher)
	consumer := worker.NewIngestConsumer(exec, pub)

	exec.On("Execute", mock.Anything, "job-1", "https://example.com", 0).
		Return(worker.Result{JobID: "job-1", Disposition: worker.Completed, ChunksAdded: 4})

	err := consumer.HandleMessage(taskMessage(t, worker.IngestTaskPayload{JobID: "job-1", URL: "https://example.com"}))

	assert.NoError(t, err)
	assert.Empty(t, pub.Calls)
	exec.AssertExpectations(t)
}

func TestHandleMessage_RetryScheduled(t *testing.T) {
	exec := new(MockJobExecutor)
	pub := new(MockTaskPublisher)
	consumer := worker.NewIngestConsumer(exec, pub)

	exec.On("Execute", mock.Anything, "job-1", "https://example.com", 1).
		Return(worker.Result{
			JobID:       "job-1",
			Disposition: worker.RetryScheduled,
			RetryAfter:  120 * time.Second,
			Err:         errors.New("fetch content: connection refused"),
		})

	var republished worker.IngestTaskPayload
	pub.On("DeferredPublish", config.TopicIngestTask, 120*time.Second, mock.Anything).
		Run(func(args mock.Arguments) {
			assert.NoError(t, json.Unmarshal(args.Get(2).([]byte), &republished))
		}).
		Return(nil)

	err := consumer.HandleMessage(taskMessage(t, worker.IngestTaskPayload{
		JobID:         "job-1",
		URL:           "https://example.com",
		Attempt:       1,
		CorrelationID: "corr-9",
	}))

	assert.NoError(t, err)
	pub.AssertExpectations(t)
	assert.Equal(t, 2, republished.Attempt, "retry must carry the incremented attempt")
	assert.Equal(t, "job-1", republished.JobID)
	assert.Equal(t, "https://example.com", republished.URL)
	assert.Equal(t, "corr-9", republished.CorrelationID)
}

func TestHandleMessage_RetryPublishFailureRequeues(t *testing.T) {
	exec := new(MockJobExecutor)
	pub := new(MockTaskPublisher)
	consumer := worker.NewIngestConsumer(exec, pub)

	exec.On("Execute", mock.Anything, "job-1", "https://example.com", 0).
		Return(worker.Result{
			JobID:       "job-1",
			Disposition: worker.RetryScheduled,
			RetryAfter:  60 * time.Second,
			Err:         errors.New("boom"),
		})
	pub.On("DeferredPublish", config.TopicIngestTask, 60*time.Second, mock.Anything).
		Return(errors.New("nsqd unreachable"))

	err := consumer.HandleMessage(taskMessage(t, worker.IngestTaskPayload{JobID: "job-1", URL: "https://example.com"}))

	assert.Error(t, err, "handler error lets NSQ redeliver so the retry is not lost")
}

func TestHandleMessage_TerminalFailureAcks(t *testing.T) {
	exec := new(MockJobExecutor)
	pub := new(MockTaskPublisher)
	consumer := worker.NewIngestConsumer(exec, pub)

	exec.On("Execute", mock.Anything, "job-1", "https://example.com", 3).
		Return(worker.Result{
			JobID:       "job-1",
			Disposition: worker.FailedTerminal,
			Err:         errors.New("boom"),
		})

	err := consumer.HandleMessage(taskMessage(t, worker.IngestTaskPayload{JobID: "job-1", URL: "https://example.com", Attempt: 3}))

	assert.NoError(t, err)
	assert.Empty(t, pub.Calls)
}

func TestHandleMessage_PoisonPill(t *testing.T) {
	exec := new(MockJobExecutor)
	pub := new(MockTaskPublisher)
	consumer := worker.NewIngestConsumer(exec, pub)

	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: []byte("{not json")}))
	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: nil}))
	assert.Empty(t, exec.Calls)
}
