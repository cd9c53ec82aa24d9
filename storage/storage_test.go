package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("test-secret", "http://localhost:8000")

	expiry := time.Now().Add(15 * time.Minute)
	u := s.Sign("units/u1/sinhala-note.pdf", expiry)

	if want := "http://localhost:8000/files/units/u1/sinhala-note.pdf?"; len(u) < len(want) || u[:len(want)] != want {
		t.Fatalf("unexpected url prefix: %s", u)
	}

	exp := expiry.Unix()
	sig := s.mac("units/u1/sinhala-note.pdf", exp)

	if err := s.Verify("units/u1/sinhala-note.pdf", intString(exp), sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestSignerRejects(t *testing.T) {
	s := NewSigner("test-secret", "http://localhost:8000")
	exp := time.Now().Add(time.Minute).Unix()
	sig := s.mac("units/u1/english-note.pdf", exp)

	if err := s.Verify("units/u1/sinhala-note.pdf", intString(exp), sig); err == nil {
		t.Fatal("signature for a different path was accepted")
	}

	past := time.Now().Add(-time.Second).Unix()
	if err := s.Verify("units/u1/english-note.pdf", intString(past), s.mac("units/u1/english-note.pdf", past)); err == nil {
		t.Fatal("expired grant was accepted")
	}

	if err := s.Verify("units/u1/english-note.pdf", intString(exp), "deadbeef"); err == nil {
		t.Fatal("tampered signature was accepted")
	}

	other := NewSigner("other-secret", "http://localhost:8000")
	if err := other.Verify("units/u1/english-note.pdf", intString(exp), sig); err == nil {
		t.Fatal("signature from a different secret was accepted")
	}
}

func intString(v int64) string {
	return strconv.FormatInt(v, 10)
}

func writeFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("units/u1/sinhala-note.pdf", []byte("pdf-bytes"))

	if err := m.Copy(ctx, "units/u1/sinhala-note.pdf", "user-content/usr/ord/u1-sinhalaNote.pdf"); err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	obj, err := m.Open(ctx, "user-content/usr/ord/u1-sinhalaNote.pdf")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	data, _ := io.ReadAll(obj)
	obj.Close()
	if string(data) != "pdf-bytes" {
		t.Fatalf("copied object carries wrong bytes: %q", data)
	}

	if err := m.Copy(ctx, "units/u1/missing.pdf", "anywhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing source, got %v", err)
	}

	if err := m.Delete(ctx, "user-content/usr/ord/u1-sinhalaNote.pdf"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := m.Delete(ctx, "user-content/usr/ord/u1-sinhalaNote.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDiskStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	d, err := NewDisk(root)
	if err != nil {
		t.Fatal(err)
	}

	seed := filepath.Join(root, "units", "u1")
	if err := writeFile(seed, "sinhala-note.pdf", []byte("master")); err != nil {
		t.Fatal(err)
	}

	if err := d.Copy(ctx, "units/u1/sinhala-note.pdf", "user-content/usr/ord/u1-sinhalaNote.pdf"); err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	ok, err := d.Exists(ctx, "user-content/usr/ord/u1-sinhalaNote.pdf")
	if err != nil || !ok {
		t.Fatalf("expected copied object to exist: ok=%v err=%v", ok, err)
	}

	if err := d.Copy(ctx, "units/u1/missing.pdf", "anywhere.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing master, got %v", err)
	}

	if _, err := d.Open(ctx, "../../etc/passwd"); err == nil {
		t.Fatal("path traversal was not rejected")
	}

	if err := d.Delete(ctx, "user-content/usr/ord/u1-sinhalaNote.pdf"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := d.Delete(ctx, "user-content/usr/ord/u1-sinhalaNote.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
