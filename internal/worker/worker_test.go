package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/ImGucci/smart-wardrobe-ai/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWardrobe implements only the analysis part of the wardrobe service.
type fakeWardrobe struct {
	service.WardrobeService

	analyzeErr error
	failErr    error
	stale      []entity.AnalysisTask

	analyzed []entity.AnalysisTask
	failed   []entity.AnalysisTask
}

func (f *fakeWardrobe) AnalyzeItem(_ context.Context, task entity.AnalysisTask) error {
	f.analyzed = append(f.analyzed, task)
	return f.analyzeErr
}

func (f *fakeWardrobe) FailAnalysis(_ context.Context, task entity.AnalysisTask) error {
	f.failed = append(f.failed, task)
	return f.failErr
}

func (f *fakeWardrobe) StalePending(context.Context, time.Duration) ([]entity.AnalysisTask, error) {
	return f.stale, nil
}

type fakePublisher struct {
	tasks []entity.AnalysisTask
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, task entity.AnalysisTask) error {
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, task)
	return nil
}

func TestAnalysisWorkerHandle(t *testing.T) {
	tests := []struct {
		name        string
		attempt     int
		analyzeErr  error
		publishErr  error
		noPublisher bool
		wantRetry   bool
		wantFailed  bool
	}{
		{name: "success", analyzeErr: nil},
		{name: "transient error is retried", analyzeErr: entity.ErrAIUnavailable, wantRetry: true},
		{name: "second attempt still retried", attempt: 1, analyzeErr: entity.ErrAIUnavailable, wantRetry: true},
		{name: "last attempt falls back", attempt: 2, analyzeErr: entity.ErrAIUnavailable, wantFailed: true},
		{name: "permanent error falls back", analyzeErr: entity.ErrInvalidInput, wantFailed: true},
		{name: "deleted item is dropped", analyzeErr: entity.ErrItemNotFound},
		{name: "publish failure falls back", analyzeErr: entity.ErrAIUnavailable, publishErr: errors.New("down"), wantFailed: true},
		{name: "no publisher falls back", analyzeErr: entity.ErrAIUnavailable, noPublisher: true, wantFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wardrobe := &fakeWardrobe{analyzeErr: tt.analyzeErr}
			pub := &fakePublisher{err: tt.publishErr}
			var publisher service.TaskPublisher = pub
			if tt.noPublisher {
				publisher = nil
			}
			w := NewAnalysisWorker(wardrobe, publisher, 3)

			task := entity.AnalysisTask{ItemID: "i1", ImageKey: "item/i1", Attempt: tt.attempt}
			require.NoError(t, w.Handle(context.Background(), task))

			require.Len(t, wardrobe.analyzed, 1)
			if tt.wantRetry {
				require.Len(t, pub.tasks, 1)
				assert.Equal(t, tt.attempt+1, pub.tasks[0].Attempt)
				assert.Equal(t, "i1", pub.tasks[0].ItemID)
			} else {
				assert.Empty(t, pub.tasks)
			}
			if tt.wantFailed {
				require.Len(t, wardrobe.failed, 1)
				assert.Equal(t, "i1", wardrobe.failed[0].ItemID)
			} else {
				assert.Empty(t, wardrobe.failed)
			}
		})
	}
}

func TestAnalysisWorkerCanceled(t *testing.T) {
	wardrobe := &fakeWardrobe{analyzeErr: context.Canceled}
	w := NewAnalysisWorker(wardrobe, &fakePublisher{}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Handle(ctx, entity.AnalysisTask{ItemID: "i1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, wardrobe.failed)
}

func TestAnalysisWorkerHandleMessage(t *testing.T) {
	wardrobe := &fakeWardrobe{}
	w := NewAnalysisWorker(wardrobe, nil, 0)

	require.NoError(t, w.HandleMessage(context.Background(), []byte(`{"item_id":"i9","image_key":"item/i9","mime_type":"image/png","category":"BOTTOM","attempt":0}`)))
	require.Len(t, wardrobe.analyzed, 1)
	assert.Equal(t, entity.AnalysisTask{ItemID: "i9", ImageKey: "item/i9", MimeType: "image/png", Category: entity.CategoryBottom}, wardrobe.analyzed[0])

	for _, body := range []string{`not json`, `{}`, `{"item_id":""}`} {
		assert.NoError(t, w.HandleMessage(context.Background(), []byte(body)), body)
	}
	assert.Len(t, wardrobe.analyzed, 1)
}

func TestPendingSweepWorker(t *testing.T) {
	wardrobe := &fakeWardrobe{
		stale:   []entity.AnalysisTask{{ItemID: "a"}, {ItemID: "b"}},
		failErr: nil,
	}
	w := NewPendingSweepWorker(wardrobe, time.Minute, time.Hour)

	assert.Equal(t, 2, w.Sweep(context.Background()))
	assert.Len(t, wardrobe.failed, 2)

	wardrobe.failErr = errors.New("disk full")
	assert.Equal(t, 0, w.Sweep(context.Background()))

	wardrobe.stale = nil
	assert.Equal(t, 0, w.Sweep(context.Background()))
}

func TestPendingSweepWorkerStops(t *testing.T) {
	w := NewPendingSweepWorker(&fakeWardrobe{}, time.Minute, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
