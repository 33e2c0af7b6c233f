package store

import (
	"path/filepath"
	"testing"
)

func TestBuildLineIndexByteRange(t *testing.T) {
	text := []byte("one\ntwo\nthree\n")
	li := BuildLineIndex(text)

	if got := li.LineCount(); got != 3 {
		t.Fatalf("LineCount = %d, want 3", got)
	}

	start, end, err := li.ByteRange(2, 2)
	if err != nil {
		t.Fatalf("ByteRange: %v", err)
	}
	if string(text[start:end]) != "two\n" {
		t.Fatalf("line 2 = %q", text[start:end])
	}

	start, end, err = li.ByteRange(1, 3)
	if err != nil {
		t.Fatalf("ByteRange: %v", err)
	}
	if string(text[start:end]) != string(text) {
		t.Fatalf("full range = %q", text[start:end])
	}
}

func TestBuildLineIndexNoTrailingNewline(t *testing.T) {
	text := []byte("one\ntwo")
	li := BuildLineIndex(text)
	if got := li.LineCount(); got != 2 {
		t.Fatalf("LineCount = %d, want 2", got)
	}
	start, end, err := li.ByteRange(2, 2)
	if err != nil {
		t.Fatalf("ByteRange: %v", err)
	}
	if string(text[start:end]) != "two" {
		t.Fatalf("line 2 = %q", text[start:end])
	}
}

func TestByteRangeClampsToBounds(t *testing.T) {
	li := BuildLineIndex([]byte("a\nb\nc\n"))
	start, end, err := li.ByteRange(2, 100)
	if err != nil {
		t.Fatalf("ByteRange: %v", err)
	}
	if start != 2 || end != 6 {
		t.Fatalf("range = [%d,%d)", start, end)
	}
}

func TestByteRangeRejectsEmpty(t *testing.T) {
	li := &LineIndex{offsets: nil}
	if _, _, err := li.ByteRange(1, 1); err == nil {
		t.Fatalf("expected error on empty index")
	}
}

func TestWriteAndReadLineIndexRoundTrip(t *testing.T) {
	text := []byte("alpha\nbeta\ngamma\n")
	li := BuildLineIndex(text)

	dir := t.TempDir()
	path := filepath.Join(dir, "lines.idx")
	data, err := encodeLineIndex(li.LineIndexOffsets())
	if err != nil {
		t.Fatalf("encodeLineIndex: %v", err)
	}
	if err := atomicWrite(path, data, 0o644); err != nil {
		t.Fatalf("atomicWrite: %v", err)
	}

	loaded, err := ReadLineIndex(path)
	if err != nil {
		t.Fatalf("ReadLineIndex: %v", err)
	}
	if loaded.LineCount() != li.LineCount() {
		t.Fatalf("round-tripped line count = %d, want %d", loaded.LineCount(), li.LineCount())
	}
	start, end, err := loaded.ByteRange(2, 2)
	if err != nil {
		t.Fatalf("ByteRange: %v", err)
	}
	if string(text[start:end]) != "beta\n" {
		t.Fatalf("line 2 = %q", text[start:end])
	}
}

func TestReadLineIndexRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lines.idx")
	if err := atomicWrite(path, []byte("not a line index"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadLineIndex(path); err == nil {
		t.Fatalf("expected error reading corrupt line index")
	}
}
