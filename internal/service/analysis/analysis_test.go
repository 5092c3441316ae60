package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/deadhunt/pkg/config"
	"github.com/panbanda/deadhunt/pkg/hunt"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func unused(o *Outcome) []string {
	var names []string
	for _, e := range o.Report().Entries {
		names = append(names, e.Name)
	}
	return names
}

func TestHunt(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"components/Button.tsx": "export const Button = () => <button />;\nexport const OldBanner = () => null;\n",
		"hooks/useAuth.ts":      "export function useAuth() { return null; }\n",
		"App.tsx":               "import { Button } from './components/Button';\nexport default function App() { return <Button />; }\n",
		"types.d.ts":            "declare function probe(): ReturnType<typeof useAuth>;\n",
	})

	svc := New(WithConfig(testConfig(t)))
	outcome, err := svc.Hunt(context.Background(), HuntOptions{Dir: dir})
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(outcome.Root))
	assert.Equal(t, []string{"App", "OldBanner"}, unused(outcome))
	assert.Equal(t, 3, outcome.Report().Summary.FilesRegistered)
	assert.Equal(t, 4, outcome.Report().Summary.FilesScanned)
}

func TestHuntOverrides(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.tsx": "export const Card = () => null;\nexport function useCard() {}\nexport type CardProps = {};\n",
		"b.tsx": "const x = <Card />;\n",
	})

	svc := New(WithConfig(testConfig(t)))

	outcome, err := svc.Hunt(context.Background(), HuntOptions{
		Dir:        dir,
		Categories: hunt.NewCategorySet(hunt.CategoryHook, hunt.CategoryComponent),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"useCard"}, unused(outcome))

	outcome, err = svc.Hunt(context.Background(), HuntOptions{
		Dir:       dir,
		Detectors: hunt.NewDetectorSet(hunt.DetectorImport),
		NoCache:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Card", "useCard", "CardProps"}, unused(outcome))
}

func TestHuntTolerant(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.ts": "export function helper() {}\n",
		"b.ts": "helper();\nconst broken = ;\n",
	})
	svc := New(WithConfig(testConfig(t)))

	strict, err := svc.Hunt(context.Background(), HuntOptions{Dir: dir, NoCache: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"helper"}, unused(strict))
	assert.Len(t, strict.Result.Skipped, 1)

	tolerant, err := svc.Hunt(context.Background(), HuntOptions{Dir: dir, NoCache: true, Tolerant: true})
	require.NoError(t, err)
	assert.Empty(t, unused(tolerant))
}

func TestHuntUsesConfiguredDir(t *testing.T) {
	dir := writeProject(t, map[string]string{"lib/a.ts": "export function lonely() {}\n"})
	cfg := testConfig(t)
	cfg.Hunt.Dir = filepath.Join(dir, "lib")

	outcome, err := New(WithConfig(cfg)).Hunt(context.Background(), HuntOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"lonely"}, unused(outcome))
}

func TestHuntErrors(t *testing.T) {
	svc := New(WithConfig(testConfig(t)))

	_, err := svc.Hunt(context.Background(), HuntOptions{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Hunt.Categories = nil
	_, err = New(WithConfig(cfg)).Hunt(context.Background(), HuntOptions{Dir: t.TempDir()})
	assert.ErrorIs(t, err, hunt.ErrNoCategories)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := writeProject(t, map[string]string{"a.ts": "export const a = 1;\n"})
	_, err = svc.Hunt(ctx, HuntOptions{Dir: dir})
	assert.ErrorIs(t, err, context.Canceled)
}

type countingProgress struct{ begins, ticks, ends int }

func (p *countingProgress) Begin(string, int) { p.begins++ }
func (p *countingProgress) Advance(string)    { p.ticks++ }
func (p *countingProgress) End()              { p.ends++ }

func TestHuntProgress(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.ts": "export const a = 1;\n",
		"b.ts": "a;\n",
	})
	p := &countingProgress{}
	svc := New(WithConfig(testConfig(t)), WithProgress(p))

	_, err := svc.Hunt(context.Background(), HuntOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 2, p.begins)
	assert.Equal(t, 4, p.ticks)
	assert.Equal(t, 2, p.ends)
}
