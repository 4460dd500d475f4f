package zipenc

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"io"
	"testing"
)

func TestChecksum_MatchesStdlib(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"hello", []byte("hello")},
		{"binary", []byte{0x00, 0xFF, 0x10, 0x80, 0x7F}},
		{"longer", bytes.Repeat([]byte("export"), 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Checksum(tt.data)
			want := crc32.ChecksumIEEE(tt.data)
			if got != want {
				t.Errorf("Expected CRC %08x, got %08x", want, got)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	archive := Encode([]Entry{{Name: "a.txt", Data: []byte("hello")}})

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("standard reader rejected archive: %v", err)
	}

	if len(reader.File) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(reader.File))
	}

	f := reader.File[0]
	if f.Name != "a.txt" {
		t.Errorf("expected entry name a.txt, got %s", f.Name)
	}
	if f.Method != zip.Store {
		t.Errorf("expected store method, got %d", f.Method)
	}
	if f.CRC32 != crc32.ChecksumIEEE([]byte("hello")) {
		t.Errorf("stored CRC %08x does not match independent CRC", f.CRC32)
	}

	rc, err := f.Open()
	if err != nil {
		t.Fatalf("failed to open entry: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("failed to read entry: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected entry bytes %q, got %q", "hello", data)
	}
}

func TestEncode_MultipleEntriesPreserveOrderAndBytes(t *testing.T) {
	entries := []Entry{
		{Name: "first.csv", Data: []byte("a,b\n1,2")},
		{Name: "nested/second.bin", Data: []byte{0x00, 0x01, 0x02}},
		{Name: "empty.txt", Data: nil},
	}

	archive := Encode(entries)
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("standard reader rejected archive: %v", err)
	}

	if len(reader.File) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(reader.File))
	}

	for i, want := range entries {
		f := reader.File[i]
		if f.Name != want.Name {
			t.Errorf("entry %d: expected name %s, got %s", i, want.Name, f.Name)
		}

		rc, err := f.Open()
		if err != nil {
			t.Fatalf("entry %d: failed to open: %v", i, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("entry %d: failed to read: %v", i, err)
		}
		if !bytes.Equal(data, want.Data) {
			t.Errorf("entry %d: bytes differ", i)
		}
	}
}

func TestEncode_EmptyArchive(t *testing.T) {
	archive := Encode(nil)

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("standard reader rejected empty archive: %v", err)
	}
	if len(reader.File) != 0 {
		t.Errorf("expected no entries, got %d", len(reader.File))
	}
}

func TestEncode_Deterministic(t *testing.T) {
	entries := []Entry{{Name: "a.txt", Data: []byte("same")}}
	if !bytes.Equal(Encode(entries), Encode(entries)) {
		t.Error("identical inputs should produce identical archives")
	}
}
