package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStripsDirectories(t *testing.T) {
	assert.Equal(t, "j/d/report.pdf", Key("j", "d", "report.pdf"))
	assert.Equal(t, "j/d/passwd", Key("j", "d", "../../etc/passwd"))
	assert.Equal(t, "j/d/scan.tif", Key("j", "d", `C:\Users\me\scan.tif`))
	assert.Equal(t, "j/d/file", Key("j", "d", ".."))
}

func TestLocalRoundTrip(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Put(ctx, "job/del/scan.txt", strings.NewReader("page one"), 8, "text/plain"))

	rc, err := l.Open(ctx, "job/del/scan.txt")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "page one", string(b))
}

func TestLocalMissingAndEscaping(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Open(context.Background(), "nope/x")
	assert.ErrorIs(t, err, ErrNotFound)

	err = l.Put(context.Background(), "../outside", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}
