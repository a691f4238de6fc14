package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
)

type fakeSQSSender struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQSSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func chunkMessage() domain.ChunkMessage {
	return domain.ChunkMessage{
		JobID:       "job-1",
		ChunkIndex:  2,
		TotalChunks: 5,
		From:        "news@example.com",
		Subject:     "Hello",
		HTMLContent: "<p>Hello</p>",
		Recipients:  []domain.Recipient{{Email: "ann@example.com"}},
	}
}

func TestSubmitShapesMessage(t *testing.T) {
	api := &fakeSQSSender{}
	pub := NewPublisher(api, "https://sqs.us-east-1.amazonaws.com/123/jobs")

	err := pub.Submit(context.Background(), chunkMessage(), 90*time.Second)
	require.NoError(t, err)
	require.Len(t, api.inputs, 1)

	input := api.inputs[0]
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/jobs", *input.QueueUrl)
	assert.Equal(t, int32(90), input.DelaySeconds)

	var decoded domain.ChunkMessage
	require.NoError(t, json.Unmarshal([]byte(*input.MessageBody), &decoded))
	assert.Equal(t, "job-1", decoded.JobID)
	assert.Equal(t, 2, decoded.ChunkIndex)
	assert.Len(t, decoded.Recipients, 1)

	assert.Equal(t, "job-1", *input.MessageAttributes["job_id"].StringValue)
	assert.Equal(t, "2", *input.MessageAttributes["chunk_index"].StringValue)
	assert.Equal(t, "5", *input.MessageAttributes["total_chunks"].StringValue)
}

func TestSubmitClampsDelay(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		want  int32
	}{
		{"negative clamps to zero", -time.Minute, 0},
		{"zero passes through", 0, 0},
		{"above sqs max clamps to 900", 2 * time.Hour, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeSQSSender{}
			pub := NewPublisher(api, "q")
			require.NoError(t, pub.Submit(context.Background(), chunkMessage(), tt.delay))
			assert.Equal(t, tt.want, api.inputs[0].DelaySeconds)
		})
	}
}

func TestSubmitPropagatesError(t *testing.T) {
	pub := NewPublisher(&fakeSQSSender{err: errors.New("access denied")}, "q")

	err := pub.Submit(context.Background(), chunkMessage(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Contains(t, err.Error(), "job-1")
}
