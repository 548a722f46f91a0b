package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightloop/backend/internal/domain/events"
)

// collectBus 同步收集事件的总线假实现
type collectBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *collectBus) Subscribe(events.EventType, events.Handler) func() { return func() {} }
func (b *collectBus) Close()                                            {}

func (b *collectBus) Publish(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *collectBus) snapshot() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

func TestDocumentWatcher_InitialScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.md"), []byte("# hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("no"), 0644))

	bus := &collectBus{}
	watcher, err := NewDocumentWatcher(WatchConfig{
		DocsDir:       dir,
		OrgID:         "org-1",
		DebounceDelay: 20 * time.Millisecond,
	}, bus)
	require.NoError(t, err)

	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	published := bus.snapshot()
	require.Len(t, published, 1)
	docEvent := published[0].(*events.DocumentFileEvent)
	assert.Equal(t, events.DocumentFileCreated, docEvent.EventType)
	assert.Equal(t, "org-1", docEvent.OrgID)
	assert.Equal(t, filepath.Join(dir, "existing.md"), docEvent.FilePath)
}

func TestDocumentWatcher_DebouncedWrite(t *testing.T) {
	dir := t.TempDir()
	bus := &collectBus{}
	watcher, err := NewDocumentWatcher(WatchConfig{
		DocsDir:       dir,
		OrgID:         "org-1",
		DebounceDelay: 30 * time.Millisecond,
	}, bus)
	require.NoError(t, err)

	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	path := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("# v1"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("# v2"), 0644))

	// 连续写入经防抖后只产生一个事件
	assert.Eventually(t, func() bool {
		return len(bus.snapshot()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, bus.snapshot(), 1)
}
