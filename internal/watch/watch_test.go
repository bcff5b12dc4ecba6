package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/generator"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

const modelSource = `import ViewJSONModel from "./ViewJSONModel";

interface Shape {
    title: string;
}

export default class TitleModel extends ViewJSONModel<Shape> {
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// start runs w until the test ends and returns the handled paths.
func start(t *testing.T, dir string) (*Watcher, <-chan string) {
	t.Helper()
	got := make(chan string, 16)
	w, err := New(dir, func(_ context.Context, path string) error {
		got <- path
		return nil
	}, Options{Debounce: 50 * time.Millisecond, Log: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, got
}

func TestMatch(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil, Options{Patterns: []string{"webapp/**/*.ts"}})
	require.NoError(t, err)
	defer func() { _ = w.fsw.Close() }()

	tests := []struct {
		path string
		want bool
	}{
		{"webapp/control/Box.ts", true},
		{filepath.Join(dir, "webapp", "model", "Model.ts"), true},
		{"webapp/types.d.ts", false},
		{"test/Box.ts", false},
		{"webapp/readme.md", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.Match(tt.path), tt.path)
	}
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "webapp", "control", "Box.ts"), "class Box {}")
	writeFile(t, filepath.Join(dir, "webapp", "model", "Page.ts"), "class Page {}")
	writeFile(t, filepath.Join(dir, "webapp", "types.d.ts"), "declare class T {}")
	writeFile(t, filepath.Join(dir, "webapp", "readme.md"), "x")
	writeFile(t, filepath.Join(dir, "node_modules", "lib", "index.ts"), "class Lib {}")

	var got []string
	w, err := New(dir, func(_ context.Context, path string) error {
		got = append(got, path)
		return nil
	}, Options{Log: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	defer func() { _ = w.fsw.Close() }()

	n, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{
		filepath.Join(w.root, "webapp", "control", "Box.ts"),
		filepath.Join(w.root, "webapp", "model", "Page.ts"),
	}, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidPattern(t *testing.T) {
	_, err := New(t.TempDir(), nil, Options{Patterns: []string{"[.ts"}})
	assert.Error(t, err)
}

func TestRunHandlesMatchingChanges(t *testing.T) {
	dir := t.TempDir()
	_, got := start(t, dir)

	target := filepath.Join(dir, "Box.ts")
	writeFile(t, filepath.Join(dir, "notes.md"), "x")
	writeFile(t, filepath.Join(dir, "types.d.ts"), "x")
	writeFile(t, target, "class Box {}")
	writeFile(t, target, "class Box { a() {} }")

	select {
	case path := <-got:
		assert.Equal(t, target, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change handled")
	}

	// Anything further is another batch for the same file.
	timeout := time.After(300 * time.Millisecond)
	for {
		select {
		case path := <-got:
			assert.Equal(t, target, path)
		case <-timeout:
			return
		}
	}
}

func TestRunWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	_, got := start(t, dir)

	sub := filepath.Join(dir, "control")
	require.NoError(t, os.Mkdir(sub, 0o755))
	target := filepath.Join(sub, "Box.ts")

	// The watch on sub is added asynchronously, so keep writing until seen.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		writeFile(t, target, "class Box {}")
		select {
		case path := <-got:
			assert.Equal(t, target, path)
			return
		case <-time.After(200 * time.Millisecond):
		}
	}
	t.Fatal("change in new directory not handled")
}

func TestRegenerate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TitleModel.ts")
	writeFile(t, path, modelSource)

	gens := []generator.Generator{generator.Control{}, generator.Model{}}
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	opts := generator.Options{Now: func() time.Time { return now }, Log: zaptest.NewLogger(t).Sugar()}

	var n host.Recorder
	res, err := Regenerate(context.Background(), path, gens, &n, opts)
	require.NoError(t, err)
	assert.Equal(t, generator.Inserted, res.Status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "public getDataTitle() : string {")

	msgs := n.Messages()
	require.Len(t, msgs, 1, "the control generator's miss is not reported")
	assert.False(t, msgs[0].Error)
	assert.Contains(t, msgs[0].Text, "TitleModel")

	res, err = Regenerate(context.Background(), path, gens, &n, opts)
	require.NoError(t, err)
	assert.Equal(t, generator.UpToDate, res.Status)
}

func TestRegenerateSkipsUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "util.ts")
	writeFile(t, path, "export const answer = 42;\n")

	var n host.Recorder
	res, err := Regenerate(context.Background(), path, []generator.Generator{generator.Control{}, generator.Model{}}, &n, generator.Options{})
	require.NoError(t, err)
	assert.Equal(t, generator.UpToDate, res.Status)
	assert.Empty(t, n.Messages())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export const answer = 42;\n", string(data))
}
