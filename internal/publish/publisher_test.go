package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/angelmondragon/sales-analytics/pkg/config"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	name      string
	objects   map[string]string
	err       error
	deleteErr error
	closeErr  error
	closed    bool
	uploads   []string
}

func newMemorySink(name string) *memorySink {
	return &memorySink{name: name, objects: map[string]string{}}
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = string(data)
	m.uploads = append(m.uploads, key)
	return nil
}

func (m *memorySink) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memorySink) Delete(_ context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return m.closeErr
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestPublishCopiesDirectoryToAllSinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "part-00000-abc.csv", "state,total_sales\nCA,1.00\n")
	writeFile(t, dir, "_SUCCESS", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	files, err := DirFiles(dir, "state_sales")
	require.NoError(t, err)
	require.Len(t, files, 2)

	a, b := newMemorySink("gcs"), newMemorySink("s3")
	p := New(logger.Nop(), a, nil, b)
	require.True(t, p.Enabled())
	require.NoError(t, p.Publish(context.Background(), files))

	for _, sink := range []*memorySink{a, b} {
		assert.Equal(t, "state,total_sales\nCA,1.00\n", sink.objects["state_sales/part-00000-abc.csv"])
		_, ok := sink.objects["state_sales/_SUCCESS"]
		assert.True(t, ok)
	}
}

func TestPublishWithoutSinksIsNoop(t *testing.T) {
	p := New(nil)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), []File{{Path: "/does/not/exist", Key: "x"}}))
	assert.NoError(t, p.Close())
}

func TestPublishFailureIsDependencyError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales_data.csv", "x")
	sink := newMemorySink("gcs")
	sink.err = errors.New("forbidden")

	err := New(logger.Nop(), sink).Publish(context.Background(), []File{{Path: filepath.Join(dir, "sales_data.csv"), Key: "sales_data.csv"}})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestReplaceRemovesStaleObjectsUnderPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "part-00000-new.csv", "state\nNY\n")
	writeFile(t, dir, "_SUCCESS", "")
	files, err := DirFiles(dir, "metrics/state_sales")
	require.NoError(t, err)

	sink := newMemorySink("gcs")
	sink.objects["metrics/state_sales/part-00000-old.csv"] = "state\nCA\n"
	sink.objects["metrics/state_sales/_SUCCESS"] = ""
	sink.objects["metrics/state_sales_archive/part-00000-keep.csv"] = "x"
	sink.objects["sales_data.csv"] = "y"

	require.NoError(t, New(logger.Nop(), sink).Replace(context.Background(), "metrics/state_sales", files))

	assert.Equal(t, map[string]string{
		"metrics/state_sales/part-00000-new.csv":          "state\nNY\n",
		"metrics/state_sales/_SUCCESS":                    "",
		"metrics/state_sales_archive/part-00000-keep.csv": "x",
		"sales_data.csv":                                  "y",
	}, sink.objects)
}

func TestReplaceDeleteFailureIsDependencyError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "part-00000-new.csv", "state\n")
	files, err := DirFiles(dir, "state_sales")
	require.NoError(t, err)

	sink := newMemorySink("s3")
	sink.objects["state_sales/part-00000-old.csv"] = "state\n"
	sink.deleteErr = errors.New("access denied")

	err = New(logger.Nop(), sink).Replace(context.Background(), "state_sales", files)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Contains(t, sink.objects, "state_sales/part-00000-new.csv")
}

func TestReplaceWithoutSinksIsNoop(t *testing.T) {
	assert.NoError(t, New(nil).Replace(context.Background(), "state_sales", []File{{Path: "/missing", Key: "state_sales/x"}}))
}

func TestCloseCombinesErrors(t *testing.T) {
	a, b := newMemorySink("a"), newMemorySink("b")
	a.closeErr = errors.New("a failed")
	b.closeErr = errors.New("b failed")

	err := New(logger.Nop(), a, b).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Contains(t, err.Error(), "b failed")
	assert.True(t, a.closed && b.closed)
}

func TestFromConfigWithoutBucketsHasNoSinks(t *testing.T) {
	cfg := &config.Config{}
	p, err := FromConfig(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
}
