package artifacts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testKey_SegmentsAreSafe(t *rapid.T) {
	runID := rapid.String().Draw(t, "runID")
	test := rapid.String().Draw(t, "test")
	name := rapid.String().Draw(t, "name")
	at := time.Unix(rapid.Int64Range(0, 4_000_000_000).Draw(t, "unix"), 0)

	key := Key(runID, test, name, ".png", at)
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0] != "runs" {
		t.Fatalf("unexpected key shape %q", key)
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			t.Fatalf("unsafe segment %q in key %q", p, key)
		}
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("extension lost: %q", key)
	}
}

func TestKey_SegmentsAreSafe(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testKey_SegmentsAreSafe)
}

func TestKey_Format(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	got := Key("run-1", "TestNavigation/markets link", "failure", ".png", at)
	require.Equal(t, "runs/run-1/TestNavigation_markets_link/failure_20260506_070809.png", got)
}

// storeContract exercises behavior both Store implementations share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	loc, err := store.Put(ctx, "runs/r1/TestA/shot.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, loc)

	_, err = store.Put(ctx, "runs/r1/TestB/page.html", []byte("<html></html>"), "text/html")
	require.NoError(t, err)
	_, err = store.Put(ctx, "runs/r2/TestA/shot.png", []byte("other"), "image/png")
	require.NoError(t, err)

	data, err := store.Get(ctx, "runs/r1/TestA/shot.png")
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))

	_, err = store.Get(ctx, "runs/r1/missing.png")
	require.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

	keys, err := store.List(ctx, "runs/r1/")
	require.NoError(t, err)
	require.Equal(t, []string{"runs/r1/TestA/shot.png", "runs/r1/TestB/page.html"}, keys)
}

func TestDirStore_Contract(t *testing.T) {
	t.Parallel()
	storeContract(t, NewDirStore(t.TempDir()))
}

func TestS3Store_Contract(t *testing.T) {
	t.Parallel()
	store := TestS3Store(t, "tradeui-artifacts")
	storeContract(t, store)
	require.Equal(t, "tradeui-artifacts", store.BucketName())
}

func TestS3Store_PutReturnsS3Location(t *testing.T) {
	t.Parallel()
	store := TestS3Store(t, "bucket-loc")
	loc, err := store.Put(context.Background(), "/runs/x/y.png", []byte{1}, "image/png")
	require.NoError(t, err)
	require.Equal(t, "s3://bucket-loc/runs/x/y.png", loc)
}

func TestDirStore_RejectsEscapingKeys(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store := NewDirStore(root)
	loc, err := store.Put(context.Background(), "../../etc/passwd", []byte("x"), "text/plain")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(loc, root), "location %q escaped root %q", loc, root)
}

func TestDirStore_ListEmptyRoot(t *testing.T) {
	t.Parallel()
	store := NewDirStore(t.TempDir() + "/never-created")
	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, keys)
}
