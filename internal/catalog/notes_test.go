package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/jotbox/internal/apperr"
	"github.com/starford/jotbox/internal/models"
	"github.com/starford/jotbox/internal/storage"
	"github.com/starford/jotbox/internal/testutil"
)

const dated = "---\ntitle: First\ndate: 2024-02-03\n---\nbody\n"

// newSyncedFixture returns a fixture whose engine has completed one sync of
// the empty store, with the sync event cleared.
func newSyncedFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	if err := f.engine.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	f.events = nil
	return f
}

func hasNote(c models.Catalogue, file string) bool {
	for _, n := range c.Notes {
		if n.File == file {
			return true
		}
	}
	return false
}

func TestCreate_Absent(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()

	cat, err := f.engine.Create(ctx, "x", []byte(dated))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := f.fs.Read("notes/x")
	if err != nil || string(got) != dated {
		t.Fatalf("file content = %q, %v", got, err)
	}
	m, ok := f.engine.State().Note("x")
	if !ok || m.Title != "First" || m.Date == nil || *m.Date != "2024-02-03" {
		t.Errorf("metadata = %+v", m)
	}
	if !hasNote(cat, "x") {
		t.Errorf("catalogue missing x: %+v", cat)
	}
	if f.meta.Saves() != 1 {
		t.Errorf("saves = %d, want 1", f.meta.Saves())
	}
	if saved := f.meta.Saved(); len(saved) != 1 || saved[0].File != "x" {
		t.Errorf("persisted = %+v", saved)
	}
	if len(f.events) != 1 || f.events[0] != "created:x" {
		t.Errorf("events = %v", f.events)
	}
}

func TestCreate_AlreadyPresent(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	if _, err := f.engine.Create(ctx, "x", []byte(dated)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	before, _ := f.engine.State().Note("x")
	writes := f.fs.Calls(storage.OpCreate) + f.fs.Calls(storage.OpWrite)

	_, err := f.engine.Create(ctx, "x", []byte("# Other\n"))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if n := f.fs.Calls(storage.OpCreate) + f.fs.Calls(storage.OpWrite); n != writes {
		t.Errorf("file was mutated on conflict")
	}
	got, _ := f.fs.Read("notes/x")
	if string(got) != dated {
		t.Errorf("content changed to %q", got)
	}
	after, _ := f.engine.State().Note("x")
	if !before.SameContent(after) {
		t.Errorf("metadata changed: %+v -> %+v", before, after)
	}
}

// racyMem reports the file as absent but loses the exclusive create,
// as when another writer slips in between the check and the write.
type racyMem struct{ *storage.Mem }

func (r racyMem) Exists(string) (bool, error) { return false, nil }

func TestCreate_LostRaceIsConflict(t *testing.T) {
	f := newSyncedFixture(t)
	_ = f.fs.Write("notes/x", []byte("theirs"))
	e := NewEngine(racyMem{f.fs}, f.meta, f.assets, testutil.Logger())
	if err := e.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := e.Create(context.Background(), "x", []byte("ours"))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	got, _ := f.fs.Read("notes/x")
	if string(got) != "theirs" {
		t.Errorf("content = %q, the earlier writer must survive", got)
	}
	if f.meta.Saves() != 0 {
		t.Errorf("saves = %d, want 0", f.meta.Saves())
	}
}

func TestUpdate_Absent(t *testing.T) {
	f := newSyncedFixture(t)
	_, err := f.engine.Update(context.Background(), "nope", []byte("x"))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if f.fs.Calls(storage.OpWrite) != 0 {
		t.Error("no write expected")
	}
	if _, ok := f.engine.State().Note("nope"); ok {
		t.Error("metadata should not be created")
	}
}

func TestUpdate_IdenticalContentPersistsOnce(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	_ = f.fs.Write("notes/x", []byte("old"))

	if _, err := f.engine.Update(ctx, "x", []byte(dated)); err != nil {
		t.Fatalf("first Update: %v", err)
	}
	if f.meta.Saves() != 1 {
		t.Fatalf("saves after first update = %d, want 1", f.meta.Saves())
	}
	if _, err := f.engine.Update(ctx, "x", []byte(dated)); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if f.meta.Saves() != 1 {
		t.Errorf("saves after identical update = %d, want 1", f.meta.Saves())
	}
	if f.fs.Calls(storage.OpWrite) != 3 {
		t.Errorf("file writes = %d, want 3 (setup + 2 updates)", f.fs.Calls(storage.OpWrite))
	}
}

func TestUpdate_BodyOnlyChangeSkipsPersist(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	if _, err := f.engine.Create(ctx, "x", []byte(dated)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Update(ctx, "x", []byte(dated+"more body\n")); err != nil {
		t.Fatal(err)
	}
	if f.meta.Saves() != 1 {
		t.Errorf("saves = %d, want 1", f.meta.Saves())
	}
}

func TestUpdate_DateChangePersists(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	if _, err := f.engine.Create(ctx, "x", []byte(dated)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Update(ctx, "x", []byte("---\ntitle: First\n---\nbody\n")); err != nil {
		t.Fatal(err)
	}
	if f.meta.Saves() != 2 {
		t.Errorf("saves = %d, want 2", f.meta.Saves())
	}
	m, _ := f.engine.State().Note("x")
	if m.Date != nil {
		t.Errorf("date = %q, want nil", *m.Date)
	}
}

func TestUpdate_PlaceholderGetsReplaced(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	_ = f.fs.Write("notes/x", []byte("raw"))
	if err := f.engine.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Update(ctx, "x", []byte("# Real title\n")); err != nil {
		t.Fatal(err)
	}
	m, _ := f.engine.State().Note("x")
	if m.Title != "Real title" {
		t.Errorf("title = %q", m.Title)
	}
}

func TestDelete_Absent(t *testing.T) {
	f := newSyncedFixture(t)
	_, err := f.engine.Delete(context.Background(), "nope")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if f.fs.Calls(storage.OpDelete) != 0 {
		t.Error("no delete expected")
	}
	if f.meta.Saves() != 0 {
		t.Error("no persist expected")
	}
}

func TestDelete_Present(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	if _, err := f.engine.Create(ctx, "x", []byte(dated)); err != nil {
		t.Fatal(err)
	}
	cat, err := f.engine.Delete(ctx, "x")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := f.fs.Exists("notes/x"); ok {
		t.Error("file still present")
	}
	if _, ok := f.engine.State().Note("x"); ok {
		t.Error("metadata still present")
	}
	if hasNote(cat, "x") {
		t.Error("catalogue still lists x")
	}
	if f.meta.Saves() != 2 {
		t.Errorf("saves = %d, want 2", f.meta.Saves())
	}
	if len(f.meta.Saved()) != 0 {
		t.Errorf("persisted = %+v, want empty", f.meta.Saved())
	}
}

func TestWriteFailureLeavesMetadata(t *testing.T) {
	f := newSyncedFixture(t)
	_ = f.fs.Write("notes/x", []byte("old"))
	f.fs.Fail(storage.OpWrite, errors.New("disk full"))
	_, err := f.engine.Update(context.Background(), "x", []byte("# New\n"))
	if !errors.Is(err, apperr.ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
	if _, ok := f.engine.State().Note("x"); ok {
		t.Error("metadata must not be recorded after a failed write")
	}
}

func TestPersistFailureIsNotSurfaced(t *testing.T) {
	f := newSyncedFixture(t)
	f.meta.FailSave(errors.New("read-only"))
	cat, err := f.engine.Create(context.Background(), "x", []byte(dated))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !hasNote(cat, "x") {
		t.Error("in-memory index should still hold x")
	}
}

func TestExistsErrorIsNotConflict(t *testing.T) {
	f := newSyncedFixture(t)
	f.fs.Mkdir("notes/dir")
	_, err := f.engine.Update(context.Background(), "dir", []byte("x"))
	if err == nil || errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want a non-conflict failure", err)
	}
	if !errors.Is(err, storage.ErrIsDir) {
		t.Errorf("err = %v, want ErrIsDir", err)
	}
}

func TestInvalidName(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	for _, name := range []string{"", "..", "a/b"} {
		if _, err := f.engine.Create(ctx, name, []byte("x")); !errors.Is(err, apperr.ErrInvalidName) {
			t.Errorf("Create(%q) err = %v", name, err)
		}
	}
	if f.fs.Calls(storage.OpExists) != 0 {
		t.Error("invalid names must be rejected before touching storage")
	}
}

func TestWriteIndex(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	for _, body := range []string{"one", "two"} {
		if _, err := f.engine.WriteIndex(ctx, []byte(body)); err != nil {
			t.Fatalf("WriteIndex: %v", err)
		}
	}
	got, _ := f.fs.Read("index.gd")
	if string(got) != "two" {
		t.Errorf("index.gd = %q", got)
	}
	if f.fs.Calls(storage.OpExists) != 0 {
		t.Error("WriteIndex must not check existence")
	}
}

func TestReadNote(t *testing.T) {
	f := newSyncedFixture(t)
	ctx := context.Background()
	if _, err := f.engine.ReadNote(ctx, "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	_ = f.fs.Write("notes/x", []byte("hi"))
	got, err := f.engine.ReadNote(ctx, "x")
	if err != nil || string(got) != "hi" {
		t.Errorf("ReadNote = %q, %v", got, err)
	}
}

func TestMutationsRefusedBeforeFirstSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.fs.Write("notes/a", []byte("# Alpha\n"))
	_ = f.fs.Write("notes/b", []byte("# Beta\n"))
	f.meta = testutil.NewMetaStore(
		models.NoteMetadata{File: "a", Title: "Alpha"},
		models.NoteMetadata{File: "b", Title: "Beta"},
	)
	f.engine = NewEngine(f.fs, f.meta, f.assets, testutil.Logger())
	f.assets.Fail(errors.New("log missing"))

	if err := f.engine.Sync(ctx); err == nil {
		t.Fatal("Sync should fail")
	}
	if f.engine.Ready() {
		t.Fatal("engine must not be ready after a failed first sync")
	}

	if _, err := f.engine.Create(ctx, "c", []byte("# C\n")); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("Create err = %v, want ErrNotReady", err)
	}
	if _, err := f.engine.Update(ctx, "a", []byte("# A2\n")); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("Update err = %v, want ErrNotReady", err)
	}
	if _, err := f.engine.Delete(ctx, "b"); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("Delete err = %v, want ErrNotReady", err)
	}
	if ok, _ := f.fs.Exists("notes/c"); ok {
		t.Error("refused create must not write the file")
	}
	if f.meta.Saves() != 0 {
		t.Fatalf("saves = %d, the metadata document must not be touched", f.meta.Saves())
	}

	// Once a sync succeeds, writes persist the full index.
	f.assets.Fail(nil)
	if err := f.engine.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := f.engine.Create(ctx, "c", []byte("# C\n")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []models.NoteMetadata{
		{File: "a", Title: "Alpha"},
		{File: "b", Title: "Beta"},
		{File: "c", Title: "C"},
	}
	if diff := cmp.Diff(want, f.meta.Saved()); diff != "" {
		t.Errorf("persisted index (-want +got):\n%s", diff)
	}
}

func TestReadAndWriteIndexAllowedBeforeSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.fs.Write("notes/x", []byte("hi"))
	if _, err := f.engine.ReadNote(ctx, "x"); err != nil {
		t.Errorf("ReadNote: %v", err)
	}
	if _, err := f.engine.WriteIndex(ctx, []byte("idx")); err != nil {
		t.Errorf("WriteIndex: %v", err)
	}
}
