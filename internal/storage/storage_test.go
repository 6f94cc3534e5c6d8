package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/fixer-backend/internal/config"
)

func TestImageExtension(t *testing.T) {
	if ext, ok := ImageExtension("image/PNG; charset=binary"); !ok || ext != ".png" {
		t.Fatalf("png: %q %v", ext, ok)
	}
	if _, ok := ImageExtension("application/pdf"); ok {
		t.Fatal("pdf accepted")
	}
}

func TestRequestImageKeyIsUnique(t *testing.T) {
	a := RequestImageKey("req-1", ".jpg")
	b := RequestImageKey("req-1", ".jpg")
	if a == b {
		t.Fatal("keys collide")
	}
	if !strings.HasPrefix(a, "service-requests/req-1/") || !strings.HasSuffix(a, ".jpg") {
		t.Fatalf("key = %q", a)
	}
}

func TestMemoryPutDelete(t *testing.T) {
	m := NewMemory("https://cdn.test")
	ctx := context.Background()
	obj, err := m.Put(ctx, "k/1.png", strings.NewReader("png-bytes"), 9, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if obj.URL != "https://cdn.test/k/1.png" || obj.Size != 9 {
		t.Fatalf("object = %+v", obj)
	}
	if data, ok := m.Get("k/1.png"); !ok || string(data) != "png-bytes" {
		t.Fatalf("get = %q %v", data, ok)
	}
	if err := m.Delete(ctx, "k/1.png"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, "k/1.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("got %T", s)
	}
	if _, err := Open(ctx, config.StorageConfig{Driver: "s3"}); err == nil {
		t.Fatal("s3 without bucket should fail")
	}
	if _, err := Open(ctx, config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestNewS3WithStaticCredentials(t *testing.T) {
	s, err := NewS3(context.Background(), config.StorageConfig{
		Bucket: "images", Region: "eu-west-1", AccessKeyID: "AKIA", SecretAccessKey: "secret",
		Endpoint: "http://minio:9000", PathStyle: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.base != "http://minio:9000/images" {
		t.Fatalf("base = %q", s.base)
	}
}
