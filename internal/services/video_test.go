package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/oceanml-backend/internal/data/repos/testutil"
	types "github.com/yungbote/oceanml-backend/internal/domain"
	"github.com/yungbote/oceanml-backend/internal/platform/objectstore"
)

func TestVideoStoragePath(t *testing.T) {
	id := uuid.MustParse("0b8c5a6e-2f0e-4c1f-9a54-2b1f7e0c9d31")
	cases := map[string]string{
		"dive.MOV":        "videos/" + id.String() + ".mov",
		"clip.final.webm": "videos/" + id.String() + ".webm",
		"noext":           "videos/" + id.String() + ".mp4",
		"trailing.":       "videos/" + id.String() + ".mp4",
	}
	for name, want := range cases {
		if got := VideoStoragePath(id, name); got != want {
			t.Fatalf("VideoStoragePath(%q): want=%q got=%q", name, want, got)
		}
	}
}

func TestUploadValidation(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	ctx := context.Background()

	_, err := h.videos.Upload(ctx, UploadVideoInput{
		Filename: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("x"), Uploader: "u",
	})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("content type: want=%v got=%v", ErrInvalidFormat, err)
	}

	big := bytes.Repeat([]byte{1}, (1<<10)+1)
	_, err = h.videos.Upload(ctx, UploadVideoInput{
		Filename: "big.mp4", ContentType: "video/mp4", Body: bytes.NewReader(big), Uploader: "u",
	})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("size: want=%v got=%v", ErrTooLarge, err)
	}

	_, err = h.videos.Upload(ctx, UploadVideoInput{
		Filename: "a.mp4", ContentType: "video/mp4", Body: strings.NewReader("x"),
	})
	if !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("uploader: want=%v got=%v", ErrIdentityRequired, err)
	}
}

func TestUploadListUpdateDelete(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	ctx := context.Background()

	payload := bytes.Repeat([]byte{7}, 1<<10)
	v, err := h.videos.Upload(ctx, UploadVideoInput{
		Filename:    "reef survey.MP4",
		ContentType: "video/mp4",
		Body:        bytes.NewReader(payload),
		Uploader:    "uploader-1",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if v.FileSizeBytes != int64(len(payload)) {
		t.Fatalf("FileSizeBytes: want=%d got=%d", len(payload), v.FileSizeBytes)
	}
	if v.StoragePath != "videos/"+v.ID.String()+".mp4" {
		t.Fatalf("StoragePath: got=%q", v.StoragePath)
	}
	if !h.blobs.Has(objectstore.CategoryVideos, v.StoragePath) {
		t.Fatalf("video blob missing")
	}
	if got := h.videos.DownloadURL(v); got != "memory://videos/"+v.StoragePath {
		t.Fatalf("DownloadURL: got=%q", got)
	}

	other := h.seedVideo(t)
	if _, err := h.annotations.Complete(ctx, completeInput(other.ID, "annotator-a")); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	page, err := h.videos.List(ctx, ListVideosInput{Annotated: testutil.PtrBool(false)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || len(page.Videos) != 1 || page.Videos[0].ID != v.ID {
		t.Fatalf("List unannotated: got total=%d rows=%d", page.Total, len(page.Videos))
	}
	if page.Limit != defaultListLimit || page.Offset != 0 {
		t.Fatalf("List defaults: limit=%d offset=%d", page.Limit, page.Offset)
	}
	capped, err := h.videos.List(ctx, ListVideosInput{Limit: 10000})
	if err != nil || capped.Limit != maxListLimit || capped.Total != 2 {
		t.Fatalf("List capped: page=%+v err=%v", capped, err)
	}

	name := "reef-survey-2.mp4"
	updated, err := h.videos.Update(ctx, v.ID, UpdateVideoInput{Filename: &name}, "editor")
	if err != nil || updated.Filename != name {
		t.Fatalf("Update: got=%v err=%v", updated, err)
	}
	same, err := h.videos.Update(ctx, v.ID, UpdateVideoInput{}, "editor")
	if err != nil || same.Filename != name {
		t.Fatalf("empty Update: got=%v err=%v", same, err)
	}

	if err := h.videos.Delete(ctx, other.ID, "editor"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := h.videos.Get(ctx, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get deleted: want=%v got=%v", ErrNotFound, err)
	}
	if _, err := h.annotations.Get(ctx, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("annotation survived video delete: %v", err)
	}
	if h.blobs.Has(objectstore.CategoryAnnotations, types.AnnotationStoragePath(other.ID)) {
		t.Fatalf("annotation blob survived video delete")
	}

	acts := h.actions(t, v.ID)
	for _, want := range []string{types.ActionVideoUploaded, types.ActionVideoUpdated} {
		if !contains(acts, want) {
			t.Fatalf("activity: want %s in %v", want, acts)
		}
	}
	if !contains(h.actions(t, other.ID), types.ActionVideoDeleted) {
		t.Fatalf("activity: want %s", types.ActionVideoDeleted)
	}
}
