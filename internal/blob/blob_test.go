package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	bs := NewMemory()

	info, err := bs.Put(ctx, "documents/a", bytes.NewReader([]byte("laporan harian")), PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "documents/a" || info.Size != int64(len("laporan harian")) {
		t.Fatalf("unexpected info %#v", info)
	}
	if info.ETag == "" {
		t.Fatalf("expected etag")
	}
	if _, err := bs.Put(ctx, "documents/a", bytes.NewReader([]byte("x")), PutOptions{}); err == nil {
		t.Fatalf("expected duplicate error")
	}

	got, rc, err := bs.Get(ctx, "documents/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "laporan harian" || got.Size != info.Size {
		t.Fatalf("bad payload %q %#v", b, got)
	}

	if _, _, err := bs.Get(ctx, "documents/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := bs.List(ctx, "documents/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	if list2, err := bs.List(ctx, "photos/"); err != nil || len(list2) != 0 {
		t.Fatalf("expected empty list for unmatched prefix")
	}

	if _, err := bs.PresignURL(ctx, "documents/a", SignedURLOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported")
	}

	ok, err := bs.Delete(ctx, "documents/a")
	if err != nil || !ok {
		t.Fatalf("delete expected true, got %v %v", ok, err)
	}
	if ok, _ := bs.Delete(ctx, "documents/a"); ok {
		t.Fatalf("second delete should be false")
	}
}

func TestFilesystemStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	bs, err := NewFilesystem(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if bs.Driver() != DriverFilesystem {
		t.Fatalf("driver: %s", bs.Driver())
	}

	payload := []byte("foto pondasi")
	info, err := bs.Put(ctx, "documents/x/y", bytes.NewReader(payload), PutOptions{ContentType: "image/jpeg", Metadata: map[string]string{"project": "p1"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("unexpected info %#v", info)
	}
	if _, err := bs.Put(ctx, "documents/x/y", bytes.NewReader(payload), PutOptions{}); err == nil {
		t.Fatalf("expected duplicate error")
	}

	head, err := bs.Head(ctx, "documents/x/y")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ContentType != "image/jpeg" || head.Metadata["project"] != "p1" {
		t.Fatalf("meta not persisted: %#v", head)
	}

	got, rc, err := bs.Get(ctx, "documents/x/y")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(b, payload) || got.ETag != info.ETag {
		t.Fatalf("payload mismatch")
	}

	list, err := bs.List(ctx, "documents/")
	if err != nil || len(list) != 1 || list[0].Key != "documents/x/y" {
		t.Fatalf("list: %v %+v", err, list)
	}

	url, err := bs.PresignURL(ctx, "documents/x/y", SignedURLOptions{Method: "GET"})
	if err != nil || url == "" {
		t.Fatalf("presign: %v %q", err, url)
	}
	if _, err := bs.PresignURL(ctx, "documents/x/y", SignedURLOptions{Method: "PUT"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for PUT")
	}

	ok, err := bs.Delete(ctx, "documents/x/y")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := bs.Head(ctx, "documents/x/y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFilesystemStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	bs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "  ", "../escape", "/absolute", "a/../../b"} {
		if _, err := bs.Put(ctx, key, bytes.NewReader(nil), PutOptions{}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	t.Setenv("CONSTRUCTCORE_BLOB_DRIVER", "memory")
	bs, err := Open(ctx)
	if err != nil || bs.Driver() != DriverMemory {
		t.Fatalf("memory driver: %v %v", bs, err)
	}

	t.Setenv("CONSTRUCTCORE_BLOB_DRIVER", "fs")
	t.Setenv("CONSTRUCTCORE_BLOB_FS_ROOT", t.TempDir())
	bs, err = Open(ctx)
	if err != nil || bs.Driver() != DriverFilesystem {
		t.Fatalf("fs driver: %v %v", bs, err)
	}

	t.Setenv("CONSTRUCTCORE_BLOB_DRIVER", "carrier-pigeon")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
