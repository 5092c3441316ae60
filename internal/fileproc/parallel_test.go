package fileproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/panbanda/deadhunt/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapFiles(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "a.ts", "export const a = 1"),
		createTestFile(t, tmpDir, "b.ts", "export const b = 2"),
		createTestFile(t, tmpDir, "c.ts", "export const c = 3"),
	}

	results, err := MapFiles(context.Background(), files, 2, func(p *parser.Parser, path string) (string, error) {
		return filepath.Base(path), nil
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, len(files))

	for i, r := range results {
		assert.Equal(t, files[i], r.Path)
		assert.Equal(t, filepath.Base(files[i]), r.Value)
		assert.NoError(t, r.Err)
	}
	assert.Nil(t, Failures(results))
}

func TestMapFiles_EmptyFileList(t *testing.T) {
	results, err := MapFiles(context.Background(), nil, 0, func(p *parser.Parser, path string) (int, error) {
		return 0, nil
	}, nil)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestMapFiles_PreservesOrder(t *testing.T) {
	tmpDir := t.TempDir()

	var files []string
	for i := range 50 {
		files = append(files, createTestFile(t, tmpDir, fmt.Sprintf("f%02d.ts", i), "const x = 1"))
	}

	results, err := MapFiles(context.Background(), files, 8, func(p *parser.Parser, path string) (string, error) {
		return path, nil
	}, nil)
	require.NoError(t, err)
	for i, r := range results {
		assert.Equal(t, files[i], r.Value)
	}
}

func TestMapFiles_WithErrors(t *testing.T) {
	tmpDir := t.TempDir()
	good := createTestFile(t, tmpDir, "good.ts", "const x = 1")
	bad := filepath.Join(tmpDir, "missing.ts")

	results, err := MapFiles(context.Background(), []string{good, bad}, 0, func(p *parser.Parser, path string) (int, error) {
		res, err := p.ParseFile(context.Background(), path)
		if err != nil {
			return 0, err
		}
		return int(res.Tree.RootNode().ChildCount()), nil
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)

	failures := Failures(results)
	require.NotNil(t, failures)
	require.Len(t, failures.Errors, 1)
	assert.Equal(t, bad, failures.Errors[0].Path)
}

func TestMapFiles_ParserAvailable(t *testing.T) {
	tmpDir := t.TempDir()
	file := createTestFile(t, tmpDir, "Button.tsx", "export const Button = () => <button />;")

	results, err := MapFiles(context.Background(), []string{file}, 1, func(p *parser.Parser, path string) (bool, error) {
		if p == nil {
			return false, errors.New("nil parser")
		}
		res, err := p.ParseFile(context.Background(), path)
		if err != nil {
			return false, err
		}
		return !res.HasErrors(), nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].Value)
}

func TestMapFiles_WithProgress(t *testing.T) {
	tmpDir := t.TempDir()
	files := []string{
		createTestFile(t, tmpDir, "a.ts", ""),
		createTestFile(t, tmpDir, "b.ts", ""),
		createTestFile(t, tmpDir, "c.ts", ""),
	}

	var count atomic.Int32
	_, err := MapFiles(context.Background(), files, 0, func(p *parser.Parser, path string) (int, error) {
		if filepath.Base(path) == "b.ts" {
			return 0, errors.New("boom")
		}
		return 1, nil
	}, func(string) { count.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, int32(3), count.Load(), "progress should tick for failed files too")
}

func TestMapFiles_Cancellation(t *testing.T) {
	tmpDir := t.TempDir()
	files := []string{
		createTestFile(t, tmpDir, "a.ts", ""),
		createTestFile(t, tmpDir, "b.ts", ""),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := MapFiles(ctx, files, 0, func(p *parser.Parser, path string) (int, error) {
		return 1, nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Positive(t, Workers(0))
	assert.Equal(t, Workers(0), Workers(-1))
}

func TestProcessingError(t *testing.T) {
	inner := errors.New("syntax error")
	err := ProcessingError{Path: "/src/a.ts", Err: inner}
	assert.Equal(t, "/src/a.ts: syntax error", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestProcessingErrors(t *testing.T) {
	var nilErrs *ProcessingErrors
	assert.False(t, nilErrs.HasErrors())
	assert.Equal(t, 0, nilErrs.Len())

	errs := &ProcessingErrors{}
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "no errors", errs.Error())

	errs.Add("a.ts", errors.New("first"))
	assert.True(t, errs.HasErrors())
	assert.Equal(t, "a.ts: first", errs.Error())

	errs.Add("b.ts", errors.New("second"))
	assert.Equal(t, 2, errs.Len())
	assert.Contains(t, errs.Error(), "2 files failed")
	assert.Nil(t, errs.Unwrap())
}

func TestProcessingErrors_ThreadSafe(t *testing.T) {
	errs := &ProcessingErrors{}
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs.Add(fmt.Sprintf("f%d.ts", i), errors.New("x"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, errs.Len())
}

func TestParserPool(t *testing.T) {
	p := newParserPool(1)
	first := p.get()
	require.NotNil(t, first)
	p.put(first)
	assert.Same(t, first, p.get(), "pooled parser should be reused")

	// Overflow parsers are closed rather than queued.
	p.put(first)
	p.put(parser.New())
	p.close()
}

func BenchmarkMapFiles(b *testing.B) {
	tmpDir := b.TempDir()
	var files []string
	for i := range 100 {
		files = append(files, createTestFile(b, tmpDir, fmt.Sprintf("f%d.tsx", i),
			"export const Card = () => <div><Header /></div>;"))
	}

	b.ResetTimer()
	for range b.N {
		_, _ = MapFiles(context.Background(), files, 0, func(p *parser.Parser, path string) (bool, error) {
			res, err := p.ParseFile(context.Background(), path)
			if err != nil {
				return false, err
			}
			return res.HasErrors(), nil
		}, nil)
	}
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file %s: %v", name, err)
	}
	return path
}
