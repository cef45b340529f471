package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorePublish(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, "/videos")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	url, err := s.Publish(context.Background(), "abc.mp4", []byte("video-bytes"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if url != "/videos/abc.mp4" {
		t.Fatalf("url = %q, want /videos/abc.mp4", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "abc.mp4"))
	if err != nil {
		t.Fatalf("read published file: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("content mismatch: %q", data)
	}
}

func TestFileStorePublishOverwrites(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "/videos")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Publish(ctx, "job.mp4", []byte("first run")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	url, err := s.Publish(ctx, "job.mp4", []byte("second run"))
	if err != nil {
		t.Fatalf("Publish overwrite: %v", err)
	}
	if url != "/videos/job.mp4" {
		t.Fatalf("url changed on overwrite: %q", url)
	}

	data, err := os.ReadFile(filepath.Join(s.BasePath(), "job.mp4"))
	if err != nil {
		t.Fatalf("read published file: %v", err)
	}
	if string(data) != "second run" {
		t.Fatalf("overwrite not applied: %q", data)
	}
}

func TestFileStoreTrimsPublicBase(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "/videos/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	url, err := s.Publish(context.Background(), "x.mp4", []byte("v"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if url != "/videos/x.mp4" {
		t.Fatalf("url = %q, double slash not avoided", url)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "/videos")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, name := range []string{"", "   ", "../escape.mp4", "../../etc/passwd"} {
		if _, err := s.Publish(context.Background(), name, []byte("v")); err == nil {
			t.Fatalf("name %q: expected rejection", name)
		}
	}
}

func TestNewFileStoreRequiresBasePath(t *testing.T) {
	if _, err := NewFileStore("", "/videos"); err == nil {
		t.Fatal("expected error for empty base path")
	}
}
