package panorama

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoImages = `p f2 w3000 h1500 v360 n"JPEG"
i w3264 h2448 f0 v90 r0 p0 y0 n"a.jpg"
i w3264 h2448 f0 v=0 r2 p30 y-45 n"b.jpg"
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pto", twoImages)
	writeFile(t, dir, "A.PTO", twoImages)
	writeFile(t, dir, "notes.txt", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pto"), 0o755))

	ids, err := NewDir(dir).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A.PTO", "b.pto"}, ids)

	_, err = NewDir(filepath.Join(dir, "missing")).List(context.Background())
	assert.Error(t, err)
}

func TestDirLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pano.pto", twoImages)
	writeFile(t, dir, "empty.pto", "p f2 w3000 h1500 v360\n")

	src := NewDir(dir)
	recs, err := src.Load(context.Background(), "pano.pto")
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Name: "a.jpg", Yaw: 0, Pitch: 0, Roll: 0, View: 90},
		{Name: "b.jpg", Yaw: -45, Pitch: 30, Roll: 2, View: 90},
	}, recs)

	_, err = src.Load(context.Background(), "empty.pto")
	assert.ErrorIs(t, err, ErrNoImages)

	_, err = src.Load(context.Background(), "nope.pto")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx, "pano.pto")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"", ".hidden.pto", "../x.pto", "a/b.pto", `a\b.pto`} {
		t.Run(id, func(t *testing.T) {
			assert.ErrorIs(t, ValidateID(id), ErrInvalidID)
			_, err := NewDir(t.TempDir()).Load(context.Background(), id)
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
	assert.NoError(t, ValidateID("pano.pto"))
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := Watch(ctx, dir, nil)
	require.NoError(t, err)

	writeFile(t, dir, "ignored.txt", "x")
	writeFile(t, dir, "new.pto", twoImages)

	select {
	case ch := <-changes:
		assert.Equal(t, "new.pto", ch.ID)
		assert.False(t, ch.Removed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}
