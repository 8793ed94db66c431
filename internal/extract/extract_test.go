package extract

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeExtractor counts concurrent invocations and returns a canned result.
type fakeExtractor struct {
	mu       sync.Mutex
	inflight int32
	peak     int32
	calls    int
	result   string
	err      error
	delay    time.Duration

	lastSelector string
	lastTemplate string
}

func (f *fakeExtractor) Extract(ctx context.Context, url, formatSelector, container, outputTemplate string) (string, error) {
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)

	f.mu.Lock()
	if cur > f.peak {
		f.peak = cur
	}
	f.calls++
	f.lastSelector = formatSelector
	f.lastTemplate = outputTemplate
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.result, f.err
}

func TestKindFormat(t *testing.T) {
	selector, container := KindVideo.Format()
	assert.Equal(t, "best[ext=mp4]", selector)
	assert.Equal(t, "mp4", container)

	selector, container = KindAudio.Format()
	assert.Equal(t, "bestaudio[ext=m4a]", selector)
	assert.Equal(t, "m4a", container)
}

func TestExtractSuccess(t *testing.T) {
	fake := &fakeExtractor{result: "/tmp/downloads/clip.mp4"}
	r := NewRunner(fake, 2, "/tmp/downloads", zap.NewNop())

	path, err := r.Extract(context.Background(), "https://youtube.com/watch?v=x", KindVideo)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/downloads/clip.mp4", path)
	assert.Equal(t, "best[ext=mp4]", fake.lastSelector)
	assert.Equal(t, "/tmp/downloads/"+OutputTemplate, fake.lastTemplate)
}

func TestExtractFailureWrapsCause(t *testing.T) {
	fake := &fakeExtractor{err: errors.New("no suitable format")}
	r := NewRunner(fake, 2, "/tmp/downloads", zap.NewNop())

	_, err := r.Extract(context.Background(), "https://youtube.com/watch?v=x", KindAudio)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Contains(t, err.Error(), "no suitable format")
	assert.Contains(t, err.Error(), "audio")
}

func TestExtractConcurrencyBound(t *testing.T) {
	fake := &fakeExtractor{result: "/tmp/x.mp4", delay: 30 * time.Millisecond}
	r := NewRunner(fake, 3, "/tmp", zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Extract(context.Background(), "https://youtu.be/x", KindVideo)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, fake.calls, "every caller eventually gets a slot")
	assert.LessOrEqual(t, fake.peak, int32(3), "no more than 3 extractions may run at once")
}

func TestExtractCanceledWhileWaiting(t *testing.T) {
	fake := &fakeExtractor{result: "/tmp/x.mp4", delay: time.Second}
	r := NewRunner(fake, 1, "/tmp", zap.NewNop())

	// Occupy the only slot
	go func() {
		_, _ = r.Extract(context.Background(), "https://youtu.be/busy", KindVideo)
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Extract(ctx, "https://youtu.be/waiting", KindVideo)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
}
