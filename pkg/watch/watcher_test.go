package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/deadhunt/pkg/scanner"
)

func newTestWatcher(t testing.TB, root string, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := NewWatcher(root, scanner.NewScanner(nil), debounce)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.SetOutput(io.Discard)
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestNewWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, DefaultDebounce},
		{"custom debounce", time.Second, time.Second},
		{"negative debounce defaults", -time.Second, DefaultDebounce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWatcher(t, tmpDir, tt.debounce)
			if w.fsWatcher == nil {
				t.Error("fsWatcher should not be nil")
			}
			if w.root != tmpDir {
				t.Errorf("root = %v, want %v", w.root, tmpDir)
			}
			if w.pending == nil {
				t.Error("pending map should be initialized")
			}
			if w.debounce != tt.want {
				t.Errorf("debounce = %v, want %v", w.debounce, tt.want)
			}
		})
	}
}

func TestWatcher_handleEvent(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, time.Second)

	tests := []struct {
		name        string
		event       fsnotify.Event
		wantPending bool
	}{
		{"write tsx", fsnotify.Event{Name: filepath.Join(tmpDir, "Button.tsx"), Op: fsnotify.Write}, true},
		{"create ts", fsnotify.Event{Name: filepath.Join(tmpDir, "useAuth.ts"), Op: fsnotify.Create}, true},
		{"remove js", fsnotify.Event{Name: filepath.Join(tmpDir, "old.js"), Op: fsnotify.Remove}, true},
		{"rename jsx", fsnotify.Event{Name: filepath.Join(tmpDir, "Card.jsx"), Op: fsnotify.Rename}, true},
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(tmpDir, "a.ts"), Op: fsnotify.Chmod}, false},
		{"unsupported file ignored", fsnotify.Event{Name: filepath.Join(tmpDir, "styles.css"), Op: fsnotify.Write}, false},
		{"go file ignored", fsnotify.Event{Name: filepath.Join(tmpDir, "main.go"), Op: fsnotify.Write}, false},
		{"pruned directory ignored", fsnotify.Event{Name: filepath.Join(tmpDir, "node_modules", "react", "index.js"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.mu.Lock()
			w.pending = make(map[string]time.Time)
			w.mu.Unlock()

			w.handleEvent(tt.event)

			w.mu.Lock()
			_, found := w.pending[tt.event.Name]
			w.mu.Unlock()

			if found != tt.wantPending {
				t.Errorf("pending[%v] = %v, want %v", tt.event.Name, found, tt.wantPending)
			}
		})
	}
}

func TestWatcher_handleEvent_NewDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, time.Second)

	dir := filepath.Join(tmpDir, "features")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	w.handleEvent(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	found := false
	for _, d := range w.WatchedDirs() {
		if d == dir {
			found = true
		}
	}
	if !found {
		t.Errorf("new directory should be watched, got %v", w.WatchedDirs())
	}
	if len(w.pending) != 0 {
		t.Error("a directory is not a pending change")
	}
}

func TestWatcher_processPending(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, 50*time.Millisecond)

	old := time.Now().Add(-100 * time.Millisecond)
	b := filepath.Join(tmpDir, "b.ts")
	a := filepath.Join(tmpDir, "a.ts")
	fresh := filepath.Join(tmpDir, "c.ts")

	w.mu.Lock()
	w.pending[b] = old
	w.pending[a] = old
	w.pending[fresh] = time.Now().Add(time.Hour)
	w.mu.Unlock()

	ready := w.processPending()
	if len(ready) != 2 || ready[0] != a || ready[1] != b {
		t.Errorf("processPending() = %v, want [a.ts b.ts]", ready)
	}

	w.mu.Lock()
	_, stillA := w.pending[a]
	_, stillFresh := w.pending[fresh]
	w.mu.Unlock()

	if stillA {
		t.Error("ready files should be removed from pending")
	}
	if !stillFresh {
		t.Error("files inside the debounce window should stay pending")
	}
}

func TestWatcher_flush(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, time.Second)

	w.flush([]string{filepath.Join(tmpDir, "a.ts")})

	var got []string
	w.SetCallback(func(changed []string) { got = changed })

	w.flush(nil)
	if got != nil {
		t.Error("empty batches should not run the callback")
	}

	batch := []string{filepath.Join(tmpDir, "a.ts"), filepath.Join(tmpDir, "b.ts")}
	w.flush(batch)
	if len(got) != 2 {
		t.Errorf("callback got %v, want %v", got, batch)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, 200*time.Millisecond)

	var callbackCount int32
	w.SetCallback(func([]string) {
		atomic.AddInt32(&callbackCount, 1)
	})

	testFile := filepath.Join(tmpDir, "Button.tsx")
	for range 5 {
		w.handleEvent(fsnotify.Event{Name: testFile, Op: fsnotify.Write})
		time.Sleep(10 * time.Millisecond)
	}

	w.flush(w.processPending())
	if atomic.LoadInt32(&callbackCount) != 0 {
		t.Error("callback should wait for the debounce period")
	}

	time.Sleep(300 * time.Millisecond)
	w.flush(w.processPending())
	w.flush(w.processPending())

	if count := atomic.LoadInt32(&callbackCount); count != 1 {
		t.Errorf("callback count = %d, want 1 (debounced)", count)
	}
}

func TestWatcher_Start_Context(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Start() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Error("Start() did not return after context cancellation")
	}
}

func TestWatcher_Start_FileChange(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, 50*time.Millisecond)

	var mu sync.Mutex
	var batches [][]string
	w.SetCallback(func(changed []string) {
		mu.Lock()
		batches = append(batches, changed)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tmpDir, "useAuth.ts")
	if err := os.WriteFile(testFile, []byte("export function useAuth() {}\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(batches)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) == 0 {
		t.Fatal("callback should be called when a source file is created")
	}
	if batches[0][0] != testFile {
		t.Errorf("changed = %v, want %v", batches[0], testFile)
	}
}

func TestWatcher_Start_PrunedDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	for _, d := range []string{"node_modules/react", "src", ".git"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, d), 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}

	w := newTestWatcher(t, tmpDir, 50*time.Millisecond)
	if err := w.addTree(tmpDir); err != nil {
		t.Fatalf("addTree() error = %v", err)
	}

	var sawSrc bool
	for _, path := range w.WatchedDirs() {
		switch filepath.Base(path) {
		case "node_modules", "react", ".git":
			t.Errorf("%s should not be watched", path)
		case "src":
			sawSrc = true
		}
	}
	if !sawSrc {
		t.Error("src should be watched")
	}
}

func TestWatcher_ConcurrentHandleEvent(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, time.Hour)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				w.handleEvent(fsnotify.Event{Name: filepath.Join(tmpDir, "a.ts"), Op: fsnotify.Write})
			}
		}()
	}
	wg.Wait()

	w.mu.Lock()
	_, found := w.pending[filepath.Join(tmpDir, "a.ts")]
	w.mu.Unlock()

	if !found {
		t.Error("file should be in pending after concurrent events")
	}
}

func BenchmarkHandleEvent(b *testing.B) {
	w := newTestWatcher(b, b.TempDir(), time.Hour)
	event := fsnotify.Event{Name: filepath.Join(w.root, "a.ts"), Op: fsnotify.Write}

	b.ResetTimer()
	for range b.N {
		w.handleEvent(event)
	}
}
