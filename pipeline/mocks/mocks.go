package mocks

import (
	"context"
	"time"

	"photobatch/imageprocessor"
	"photobatch/types"

	"github.com/stretchr/testify/mock"
)

// MockValidator is a mock implementation of pipeline.Validator
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(path, claimedName string, claimedSize int64) imageprocessor.ValidationResult {
	args := m.Called(path, claimedName, claimedSize)
	return args.Get(0).(imageprocessor.ValidationResult)
}

// MockExtractor is a mock implementation of pipeline.Extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(path string) (types.FileMetadata, error) {
	args := m.Called(path)
	return args.Get(0).(types.FileMetadata), args.Error(1)
}

// MockTransformer is a mock implementation of pipeline.Transformer
type MockTransformer struct {
	mock.Mock
}

func (m *MockTransformer) Transform(src, dst string, meta types.FileMetadata, cfg types.ProcessingConfig) (imageprocessor.TransformResult, error) {
	args := m.Called(src, dst, meta, cfg)
	return args.Get(0).(imageprocessor.TransformResult), args.Error(1)
}

// MockSessionWriter is a mock implementation of pipeline.SessionWriter
type MockSessionWriter struct {
	mock.Mock
}

func (m *MockSessionWriter) Write(ctx context.Context, sess *types.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *MockSessionWriter) ScheduleCleanup(ctx context.Context, id string, after time.Duration) error {
	args := m.Called(ctx, id, after)
	return args.Error(0)
}

// MockBatchRecorder is a mock implementation of pipeline.BatchRecorder
type MockBatchRecorder struct {
	mock.Mock
}

func (m *MockBatchRecorder) Record(ctx context.Context, sessionType types.SessionType, result *types.BatchResult) error {
	args := m.Called(ctx, sessionType, result)
	return args.Error(0)
}
