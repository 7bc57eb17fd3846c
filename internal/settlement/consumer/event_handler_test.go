package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) ReportCollection(ctx context.Context, event *shared.CollectionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) Run(ctx context.Context, request *shared.RunRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

type MockDLQProducer struct {
	mock.Mock
}

func (m *MockDLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	args := m.Called(ctx, key, originalMessageValue, reason)
	return args.Error(0)
}

func (m *MockDLQProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestCollectionEventHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()

	event := shared.CollectionEvent{
		Reference:  uuid.New().String(),
		BusinessID: uuid.New(),
		Timestamp:  time.Now(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	t.Run("ValidEventHandled", func(t *testing.T) {
		svc := new(MockReportingService)
		dlq := new(MockDLQProducer)
		h := NewCollectionEventHandler(newTestLogger(), svc, dlq)

		svc.On("ReportCollection", ctx, mock.MatchedBy(func(e *shared.CollectionEvent) bool {
			return e.Reference == event.Reference
		})).Return(nil).Once()

		err := h.HandleMessage(ctx, []byte(event.Reference), payload)

		require.NoError(t, err)
		svc.AssertExpectations(t)
		dlq.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ServiceErrorRequeues", func(t *testing.T) {
		svc := new(MockReportingService)
		h := NewCollectionEventHandler(newTestLogger(), svc, new(MockDLQProducer))

		svcErr := errors.New("batch save failed")
		svc.On("ReportCollection", ctx, mock.Anything).Return(svcErr).Once()

		err := h.HandleMessage(ctx, []byte(event.Reference), payload)

		assert.ErrorIs(t, err, svcErr)
	})

	t.Run("MalformedJSONGoesToDLQ", func(t *testing.T) {
		svc := new(MockReportingService)
		dlq := new(MockDLQProducer)
		h := NewCollectionEventHandler(newTestLogger(), svc, dlq)

		bad := []byte(`{"reference":`)
		dlq.On("PublishToDLQ", ctx, "k1", bad, mock.AnythingOfType("string")).Return(nil).Once()

		err := h.HandleMessage(ctx, []byte("k1"), bad)

		require.NoError(t, err, "A dead-lettered message commits its offset")
		svc.AssertNotCalled(t, "ReportCollection", mock.Anything, mock.Anything)
		dlq.AssertExpectations(t)
	})

	t.Run("DLQOutageRequeuesOriginal", func(t *testing.T) {
		dlq := new(MockDLQProducer)
		h := NewCollectionEventHandler(newTestLogger(), new(MockReportingService), dlq)

		bad := []byte(`not-json`)
		dlq.On("PublishToDLQ", ctx, "k1", bad, mock.AnythingOfType("string")).
			Return(errors.New("dlq unavailable")).Once()

		err := h.HandleMessage(ctx, []byte("k1"), bad)

		assert.Error(t, err, "With the DLQ down the message must be redelivered")
	})
}

func TestRunRequestHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()

	request := shared.RunRequest{
		BatchCode: "STL-20260901",
		Mode:      shared.RunModeBulk,
		Timestamp: time.Now(),
	}
	payload, err := json.Marshal(request)
	require.NoError(t, err)

	t.Run("ValidRequestHandled", func(t *testing.T) {
		svc := new(MockRunService)
		h := NewRunRequestHandler(newTestLogger(), svc, new(MockDLQProducer))

		svc.On("Run", ctx, mock.MatchedBy(func(r *shared.RunRequest) bool {
			return r.BatchCode == request.BatchCode && r.Mode == shared.RunModeBulk
		})).Return(nil).Once()

		err := h.HandleMessage(ctx, []byte(request.BatchCode), payload)

		require.NoError(t, err)
		svc.AssertExpectations(t)
	})

	t.Run("RunErrorRequeues", func(t *testing.T) {
		svc := new(MockRunService)
		h := NewRunRequestHandler(newTestLogger(), svc, new(MockDLQProducer))

		runErr := errors.New("mongo down")
		svc.On("Run", ctx, mock.Anything).Return(runErr).Once()

		err := h.HandleMessage(ctx, []byte(request.BatchCode), payload)

		assert.ErrorIs(t, err, runErr)
	})

	t.Run("MalformedJSONGoesToDLQ", func(t *testing.T) {
		svc := new(MockRunService)
		dlq := new(MockDLQProducer)
		h := NewRunRequestHandler(newTestLogger(), svc, dlq)

		bad := []byte(`{{`)
		dlq.On("PublishToDLQ", ctx, "k2", bad, mock.AnythingOfType("string")).Return(nil).Once()

		err := h.HandleMessage(ctx, []byte("k2"), bad)

		require.NoError(t, err)
		svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})
}
