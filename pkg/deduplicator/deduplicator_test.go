package deduplicator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/internal"
	"github.com/moyu-x/fotix/pkg/database"
	"github.com/moyu-x/fotix/pkg/scanner"
	"github.com/moyu-x/fotix/pkg/selector"
)

var t0 = time.Date(2022, 6, 1, 8, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, fs afero.Fs, path, content string, created time.Time) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := fs.Chtimes(path, created, created); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
}

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fixture(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/photo.jpg", "same bytes", t0)
	writeFile(t, fs, "/src/photo (1).jpg", "same bytes", t0)
	writeFile(t, fs, "/src/later/photo.jpg", "same bytes", t0.Add(time.Hour))
	writeFile(t, fs, "/src/unique.txt", "only one", t0)
	writeFile(t, fs, "/src/a/img_copy.png", "png bytes", t0)
	writeFile(t, fs, "/src/b/img_copy2.png", "png bytes", t0)
	return fs
}

func scanOpts() scanner.Options {
	return scanner.Options{IncludeHidden: true, MinSize: 1}
}

func TestNewDeduplicator_Validation(t *testing.T) {
	if _, err := NewDeduplicator(Options{Mode: internal.ModeMove}); err == nil {
		t.Error("Expected error when move mode has no target dir")
	}
	if _, err := NewDeduplicator(Options{Mode: internal.ModeTrash, BackupDir: "/b"}); err == nil {
		t.Error("Expected error when trash mode has no journal")
	}
	if _, err := NewDeduplicator(Options{Mode: "shred"}); err == nil {
		t.Error("Expected error for unknown mode")
	}

	d, err := NewDeduplicator(Options{Mode: internal.ModeDelete})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}
	if d.progressChan == nil {
		t.Error("Expected progressChan to be initialized")
	}
	if d.selector == nil {
		t.Error("Expected default selector")
	}
}

func TestDeduplicator_Process_Delete(t *testing.T) {
	fs := fixture(t)
	d, err := NewDeduplicator(Options{Fs: fs, Mode: internal.ModeDelete, Workers: 2, Scanner: scanOpts()})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}

	res, err := d.Process(context.Background(), []string{"/src"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if res.Stats.TotalScanned != 6 {
		t.Errorf("Expected 6 scanned files, got %d", res.Stats.TotalScanned)
	}
	if res.Stats.Groups != 2 {
		t.Errorf("Expected 2 groups, got %d", res.Stats.Groups)
	}
	if res.Stats.Deleted != 3 || res.Stats.Duplicates != 3 {
		t.Errorf("Expected 3 deletions, got %+v", res.Stats)
	}
	if res.Stats.FreedSpace != int64(2*len("same bytes")+len("png bytes")) {
		t.Errorf("Unexpected freed space %d", res.Stats.FreedSpace)
	}

	mustExist := []string{"/src/photo.jpg", "/src/unique.txt", "/src/a/img_copy.png"}
	mustNotExist := []string{"/src/photo (1).jpg", "/src/later/photo.jpg", "/src/b/img_copy2.png"}
	for _, p := range mustExist {
		if ok, _ := afero.Exists(fs, p); !ok {
			t.Errorf("Expected %s to be kept", p)
		}
	}
	for _, p := range mustNotExist {
		if ok, _ := afero.Exists(fs, p); ok {
			t.Errorf("Expected %s to be deleted", p)
		}
	}

	for range d.Progress() {
	}
}

func TestDeduplicator_Process_DryRun(t *testing.T) {
	fs := fixture(t)
	db := newTestDB(t)
	d, err := NewDeduplicator(Options{
		Fs: fs, Journal: db, Mode: internal.ModeTrash, BackupDir: "/backup",
		DryRun: true, Workers: 2, Scanner: scanOpts(),
	})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}

	res, err := d.Process(context.Background(), []string{"/src"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Stats.Duplicates != 3 {
		t.Errorf("Expected 3 duplicates reported, got %d", res.Stats.Duplicates)
	}
	if res.Stats.Trashed != 0 {
		t.Errorf("Dry run must not trash files, got %d", res.Stats.Trashed)
	}
	for _, p := range []string{"/src/photo (1).jpg", "/src/later/photo.jpg", "/src/b/img_copy2.png"} {
		if ok, _ := afero.Exists(fs, p); !ok {
			t.Errorf("Dry run removed %s", p)
		}
	}
	if len(res.Decisions) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(res.Decisions))
	}

	removals, err := db.Removals(res.SessionID)
	if err != nil {
		t.Fatalf("Removals() error = %v", err)
	}
	if len(removals) != 0 {
		t.Errorf("Dry run must not journal removals, got %d", len(removals))
	}
	s, err := db.GetSession(res.SessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if !s.DryRun || s.FinishedAt == nil {
		t.Errorf("Unexpected session %+v", s)
	}
}

func TestDeduplicator_Process_TrashAndRestore(t *testing.T) {
	fs := fixture(t)
	db := newTestDB(t)
	d, err := NewDeduplicator(Options{
		Fs: fs, Journal: db, Mode: internal.ModeTrash, BackupDir: "/backup",
		Workers: 2, Scanner: scanOpts(),
	})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}

	res, err := d.Process(context.Background(), []string{"/src"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Stats.Trashed != 3 {
		t.Fatalf("Expected 3 trashed files, got %+v", res.Stats)
	}

	var photo Decision
	for _, dec := range res.Decisions {
		if dec.Kept.Path == "/src/photo.jpg" {
			photo = dec
		}
	}
	if len(photo.Removed) != 2 {
		t.Fatalf("Expected photo group to remove 2 files, got %+v", res.Decisions)
	}

	removals, err := db.Removals(res.SessionID)
	if err != nil {
		t.Fatalf("Removals() error = %v", err)
	}
	if len(removals) != 3 {
		t.Fatalf("Expected 3 journalled removals, got %d", len(removals))
	}
	for _, r := range removals {
		if ok, _ := afero.Exists(fs, r.StoredPath); !ok {
			t.Errorf("Expected trashed file at %s", r.StoredPath)
		}
		if filepath.Dir(filepath.Dir(r.StoredPath)) != filepath.Join("/backup", res.SessionID) {
			t.Errorf("Unexpected stored path %s", r.StoredPath)
		}
	}

	seen := map[string]bool{}
	for _, r := range removals {
		if seen[r.StoredPath] {
			t.Errorf("Stored path reused: %s", r.StoredPath)
		}
		seen[r.StoredPath] = true
	}

	stats, err := Restore(context.Background(), fs, db, res.SessionID)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if stats.Restored != 3 || stats.Failed != 0 {
		t.Errorf("Expected 3 restored files, got %+v", stats)
	}
	for _, p := range []string{"/src/photo (1).jpg", "/src/later/photo.jpg", "/src/b/img_copy2.png"} {
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			t.Errorf("Expected %s restored: %v", p, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("Restored file %s is empty", p)
		}
	}

	pending, _ := db.Removals(res.SessionID)
	if len(pending) != 0 {
		t.Errorf("Expected no pending removals after restore, got %d", len(pending))
	}
}

func TestRestore_SkipsExistingAndDeleted(t *testing.T) {
	fs := afero.NewMemMapFs()
	db := newTestDB(t)
	if _, err := db.CreateSession("s1", "trash", false); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	writeFile(t, fs, "/backup/s1/h/a.txt", "a", t0)
	writeFile(t, fs, "/src/a.txt", "occupied", t0)

	db.RecordRemoval(&database.Removal{SessionID: "s1", Hash: "h", OriginalPath: "/src/a.txt", StoredPath: "/backup/s1/h/a.txt", KeptPath: "/src/k.txt", Size: 1})
	db.RecordRemoval(&database.Removal{SessionID: "s1", Hash: "h", OriginalPath: "/src/b.txt", KeptPath: "/src/k.txt", Size: 1})

	stats, err := Restore(context.Background(), fs, db, "s1")
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if stats.Skipped != 2 || stats.Restored != 0 {
		t.Errorf("Expected 2 skipped, got %+v", stats)
	}
	data, _ := afero.ReadFile(fs, "/src/a.txt")
	if string(data) != "occupied" {
		t.Error("Restore must not overwrite existing file")
	}
}

func TestDeduplicator_Process_Move(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/x.txt", "dup", t0)
	writeFile(t, fs, "/src/x - Copy.txt", "dup", t0)
	writeFile(t, fs, "/src/y/x - Copy.txt", "dup", t0)

	d, err := NewDeduplicator(Options{Fs: fs, Mode: internal.ModeMove, TargetDir: "/dupes", Workers: 1, Scanner: scanOpts()})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}
	res, err := d.Process(context.Background(), []string{"/src"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Stats.Moved != 2 {
		t.Fatalf("Expected 2 moved files, got %+v", res.Stats)
	}
	if res.Decisions[0].Kept.Path != "/src/x.txt" {
		t.Errorf("Expected /src/x.txt kept, got %s", res.Decisions[0].Kept.Path)
	}

	hash := res.Decisions[0].Hash
	first := filepath.Join("/dupes", hash[:8]+"_"+hash[8:]+".txt")
	second := filepath.Join("/dupes", hash[:8]+"_"+hash[8:]+"_1.txt")
	for _, p := range []string{first, second} {
		if ok, _ := afero.Exists(fs, p); !ok {
			t.Errorf("Expected moved file at %s", p)
		}
	}
}

func TestDeduplicator_Process_Cancelled(t *testing.T) {
	fs := fixture(t)
	d, err := NewDeduplicator(Options{Fs: fs, Mode: internal.ModeDelete, Scanner: scanOpts()})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Process(ctx, []string{"/src"}); err == nil {
		t.Error("Expected error for cancelled context")
	}
	if ok, _ := afero.Exists(fs, "/src/photo (1).jpg"); !ok {
		t.Error("Cancelled run must not remove files")
	}
}

func TestDeduplicator_Process_CancelledFinishesSession(t *testing.T) {
	db := newTestDB(t)
	d, err := NewDeduplicator(Options{
		Fs: fixture(t), Journal: db, Mode: internal.ModeTrash, BackupDir: "/backup", Scanner: scanOpts(),
	})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Process(ctx, []string{"/src"}); err == nil {
		t.Fatal("Expected error for cancelled context")
	}

	sessions, err := db.Sessions()
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(sessions))
	}
	if sessions[0].FinishedAt == nil {
		t.Error("Expected failed session to be marked finished")
	}
}

func TestDeduplicator_Process_FollowSymlinks(t *testing.T) {
	dir := t.TempDir()
	realPath := filepath.Join(dir, "real.jpg")
	if err := os.WriteFile(realPath, []byte("only copy of the data"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.Symlink(realPath, filepath.Join(dir, "link.jpg")); err != nil {
		t.Skipf("Skipping symlink test: %v", err)
	}

	opts := scanOpts()
	opts.FollowSymlinks = true
	d, err := NewDeduplicator(Options{Fs: afero.NewOsFs(), Mode: internal.ModeDelete, Scanner: opts})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}

	res, err := d.Process(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Stats.Deleted != 0 {
		t.Errorf("Expected nothing deleted, got %+v", res.Stats)
	}
	if _, err := os.Stat(realPath); err != nil {
		t.Errorf("Real file must survive: %v", err)
	}
}

func TestDeduplicator_processGroup_SkipsLinkToKeptFile(t *testing.T) {
	dir := t.TempDir()
	realPath := filepath.Join(dir, "real.jpg")
	link := filepath.Join(dir, "link.jpg")
	if err := os.WriteFile(realPath, []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.Symlink(realPath, link); err != nil {
		t.Skipf("Skipping symlink test: %v", err)
	}

	d, err := NewDeduplicator(Options{Fs: afero.NewOsFs(), Mode: internal.ModeDelete})
	if err != nil {
		t.Fatalf("NewDeduplicator() error = %v", err)
	}

	// 同一创建时间下按路径会保留 link.jpg
	group := &selector.DuplicateGroup{
		HashValue: "00000000000000aa",
		Files: []selector.FileRecord{
			{Path: realPath, Size: 4, CreationTime: t0},
			{Path: link, Size: 4, CreationTime: t0},
		},
	}
	var stats internal.ProcessStats
	dec, err := d.processGroup("s1", group, &stats)
	if err != nil {
		t.Fatalf("processGroup() error = %v", err)
	}
	if dec.Kept.Path != link {
		t.Fatalf("Expected link to be kept, got %s", dec.Kept.Path)
	}
	if len(dec.Removed) != 0 || stats.Deleted != 0 || stats.Duplicates != 0 {
		t.Errorf("Expected the link target to be left alone, got dec=%+v stats=%+v", dec, stats)
	}
	if _, err := os.Stat(realPath); err != nil {
		t.Errorf("Real file must survive: %v", err)
	}
}

func TestTargetName(t *testing.T) {
	if got := targetName("aabbccdd11223344", "/x/file.txt"); got != "aabbccdd_11223344.txt" {
		t.Errorf("targetName() = %s", got)
	}
	if got := targetName("abc", "/x/file"); got != "abc" {
		t.Errorf("targetName() = %s", got)
	}
}

func TestDeduplicator_moveFile_CreatesTargetDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/s/file.txt", "test", t0)
	d := &Deduplicator{fs: fs}

	dst := "/level1/level2/level3/file.txt"
	if err := d.moveFile("/s/file.txt", dst); err != nil {
		t.Fatalf("moveFile() error = %v", err)
	}
	if ok, _ := afero.Exists(fs, "/s/file.txt"); ok {
		t.Error("Expected source file to be moved")
	}
	data, err := afero.ReadFile(fs, dst)
	if err != nil || string(data) != "test" {
		t.Errorf("Expected destination content, got %q err=%v", data, err)
	}
}

func TestDeduplicator_copyFile_PreservesModTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/s/file.txt", "payload", t0)
	d := &Deduplicator{fs: fs}

	if err := d.copyFile("/s/file.txt", "/s/copy.txt"); err != nil {
		t.Fatalf("copyFile() error = %v", err)
	}
	info, err := fs.Stat("/s/copy.txt")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.ModTime().Equal(t0) {
		t.Errorf("Expected mod time %v, got %v", t0, info.ModTime())
	}
	if err := d.copyFile("/s/file.txt", "/s/copy.txt"); err == nil {
		t.Error("Expected error when destination exists")
	}
}
