package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	if err := m.Upload(ctx, CategoryAnnotations, "annotations/a.txt", strings.NewReader("0 0.5 0.5 0.1 0.1")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	rc, err := m.Download(ctx, CategoryAnnotations, "annotations/a.txt")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "0 0.5 0.5 0.1 0.1" {
		t.Fatalf("body: got=%q", b)
	}

	if err := m.Delete(ctx, CategoryAnnotations, "annotations/a.txt", "annotations/missing.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Download(ctx, CategoryAnnotations, "annotations/a.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Download after delete: want=%v got=%v", ErrNotFound, err)
	}
}

func TestMemoryCategoriesAreSeparate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("http://blobs.local/")
	if err := m.Upload(ctx, CategoryVideos, "videos/x.mp4", strings.NewReader("v")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if m.Has(CategoryAnnotations, "videos/x.mp4") {
		t.Fatalf("object leaked across categories")
	}
	if err := m.Upload(ctx, Category("other"), "k", strings.NewReader("")); err == nil {
		t.Fatalf("Upload unknown category: expected error")
	}
	want := "http://blobs.local/videos/videos/x.mp4"
	if got := m.PublicURL(CategoryVideos, "/videos/x.mp4"); got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}
