package assetlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestReduce_InsertAndDelete(t *testing.T) {
	log := strings.Join([]string{
		`{"uuid":"1","name":"cat.png","url":"https://cdn/cat"}`,
		`{"uuid":"2","name":"dog.png","url":"https://cdn/dog"}`,
		`{"uuid":"1","deleted":true}`,
		`{"uuid":"3","name":"fox.png","url":"https://cdn/fox"}`,
	}, "\n")

	got, err := Reduce(strings.NewReader(log), quietLogger())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	want := map[string]string{
		"dog.png": "https://cdn/dog",
		"fox.png": "https://cdn/fox",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("assets mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_OverwriteKeepsLatest(t *testing.T) {
	log := `{"uuid":"1","name":"a.png","url":"v1"}
{"uuid":"1","name":"a.png","url":"v2"}`
	got, err := Reduce(strings.NewReader(log), quietLogger())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if got["a.png"] != "v2" {
		t.Errorf("a.png = %q, want v2", got["a.png"])
	}
}

func TestReduce_DeleteThenRecreate(t *testing.T) {
	log := `{"uuid":"1","name":"a.png","url":"v1"}
{"uuid":"1","deleted":true}
{"uuid":"1","name":"a.png","url":"v3"}`
	got, err := Reduce(strings.NewReader(log), quietLogger())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if got["a.png"] != "v3" {
		t.Errorf("a.png = %q, want v3", got["a.png"])
	}
}

func TestReduce_SharedNameLastWriterWins(t *testing.T) {
	log := `{"uuid":"b","name":"logo.png","url":"first"}
{"uuid":"a","name":"logo.png","url":"second"}`
	got, err := Reduce(strings.NewReader(log), quietLogger())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if got["logo.png"] != "second" {
		t.Errorf("logo.png = %q, want second", got["logo.png"])
	}
}

func TestReduce_DeletedNameNotVisible(t *testing.T) {
	log := `{"uuid":"a","name":"logo.png","url":"first"}
{"uuid":"b","name":"logo.png","url":"second"}
{"uuid":"b","deleted":true}`
	got, err := Reduce(strings.NewReader(log), quietLogger())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if got["logo.png"] != "first" {
		t.Errorf("logo.png = %q, want first", got["logo.png"])
	}
}

func TestReduce_CorruptLineSkipped(t *testing.T) {
	log := `{"uuid":"1","name":"a.png","url":"u1"}
{not json at all
{"name":"no-id.png","url":"x"}

{"uuid":"2","name":"b.png","url":"u2"}`
	got, err := Reduce(strings.NewReader(log), quietLogger())
	if err != nil {
		t.Fatalf("corrupt line should not abort: %v", err)
	}
	want := map[string]string{"a.png": "u1", "b.png": "u2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("assets mismatch (-want +got):\n%s", diff)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestReduce_ReadErrorAborts(t *testing.T) {
	if _, err := Reduce(failingReader{}, quietLogger()); err == nil {
		t.Fatal("expected read error to abort")
	}
}

func TestLoad_FileSource(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".glitch-assets")
	if err := os.WriteFile(p, []byte(`{"uuid":"1","name":"a.png","url":"u"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(context.Background(), FileSource{Path: p}, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got["a.png"] != "u" {
		t.Errorf("got %v", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "nope")}, quietLogger())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}
