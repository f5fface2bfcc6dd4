package gpsfix

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	goexif "github.com/rwcarlsen/goexif/exif"

	"github.com/ankit-chaubey/gps-datetime-surgery/core"
	"github.com/ankit-chaubey/gps-datetime-surgery/core/exif/exiftest"
)

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestProcessOutcomes(t *testing.T) {
	off := mustOffset(t, "-0700")

	cases := []struct {
		name    string
		data    []byte
		outcome core.Outcome
	}{
		{
			"buggy stamps",
			exiftest.JPEG(testSegment("2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0})),
			core.OutcomeProposed,
		},
		{
			"already correct",
			exiftest.JPEG(testSegment("2023:06:15 14:30:00", "2023:06:15", &[3]uint32{21, 30, 0})),
			core.OutcomeAlreadyCorrect,
		},
		{
			"no gps directory",
			exiftest.JPEG(testSegment("2023:06:15 14:30:00", "", nil)),
			core.OutcomeNoGPSInfo,
		},
		{
			"gps directory without stamps",
			exiftest.JPEG(testSegment("2023:06:15 14:30:00", "2038:01:18", nil)),
			core.OutcomeNoGPSInfo,
		},
		{
			"no capture timestamp",
			exiftest.JPEG(testSegment("", "2038:01:18", &[3]uint32{3, 14, 0})),
			core.OutcomeSkipped,
		},
		{
			"not an image",
			[]byte("definitely not an image"),
			core.OutcomeError,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeFixture(t, "img.jpg", c.data)
			res, prop := Process(path, off)
			if res.Outcome != c.outcome {
				t.Fatalf("outcome = %s (%s), want %s", res.Outcome, res.Reason, c.outcome)
			}
			if (prop != nil) != (c.outcome == core.OutcomeProposed) {
				t.Fatalf("proposal presence does not match outcome %s", c.outcome)
			}
			// Process never writes
			after, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("re-read fixture: %v", err)
			}
			if !bytes.Equal(after, c.data) {
				t.Fatalf("Process modified the source file")
			}
		})
	}
}

func TestProcessStampRendering(t *testing.T) {
	file := exiftest.JPEG(testSegment("2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0}))
	path := writeFixture(t, "img.jpg", file)

	res, _ := Process(path, mustOffset(t, "-0700"))
	if res.OldStamp != "2038:01:18 03:14:00" {
		t.Errorf("OldStamp = %q", res.OldStamp)
	}
	if res.NewStamp != "2023:06:15 21:30:00" {
		t.Errorf("NewStamp = %q", res.NewStamp)
	}
}

func TestCommit(t *testing.T) {
	original := exiftest.JPEG(testSegment("2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0}))
	path := writeFixture(t, "img.jpg", original)
	off := mustOffset(t, "-0700")

	res, prop := Process(path, off)
	if res.Outcome != core.OutcomeProposed {
		t.Fatalf("outcome = %s, want proposed", res.Outcome)
	}
	backupDir := filepath.Join(filepath.Dir(path), "backups")
	if err := Commit(prop, CommitOptions{Backup: true, BackupDir: backupDir}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// backup holds the original bytes
	backup, err := os.ReadFile(filepath.Join(backupDir, "img.jpg"))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Fatalf("backup differs from the original bytes")
	}

	// the rewritten file carries the corrected stamps and nothing else changed
	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-read file: %v", err)
	}
	if len(updated) != len(original) {
		t.Fatalf("commit changed the file length: %d -> %d", len(original), len(updated))
	}
	x, err := goexif.Decode(bytes.NewReader(updated))
	if err != nil {
		t.Fatalf("goexif rejects the committed file: %v", err)
	}
	tag, err := x.Get(goexif.GPSDateStamp)
	if err != nil {
		t.Fatalf("GPSDateStamp: %v", err)
	}
	if s, _ := tag.StringVal(); s != "2023:06:15" {
		t.Fatalf("GPSDateStamp = %q", s)
	}

	// a second pass finds nothing left to do
	res2, prop2 := Process(path, off)
	if res2.Outcome != core.OutcomeAlreadyCorrect || prop2 != nil {
		t.Fatalf("after commit: outcome = %s, want already-correct", res2.Outcome)
	}
}

func TestCommitSiblingBackup(t *testing.T) {
	original := exiftest.JPEG(testSegment("2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0}))
	path := writeFixture(t, "img.jpg", original)

	_, prop := Process(path, mustOffset(t, "-0700"))
	if err := Commit(prop, CommitOptions{Backup: true}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read sibling backup: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Fatalf("sibling backup differs from the original bytes")
	}
}

func TestCommitNoBackup(t *testing.T) {
	original := exiftest.JPEG(testSegment("2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0}))
	path := writeFixture(t, "img.jpg", original)

	_, prop := Process(path, mustOffset(t, "-0700"))
	if err := Commit(prop, CommitOptions{Backup: false}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("unexpected backup file")
	}
}

func TestProcessBareTIFF(t *testing.T) {
	original := testSegment("2023:06:15 14:30:00", "2038:01:18", &[3]uint32{3, 14, 0})
	path := writeFixture(t, "img.tif", original)
	off := mustOffset(t, "-0700")

	res, prop := Process(path, off)
	if res.Outcome != core.OutcomeProposed {
		t.Fatalf("outcome = %s, want proposed", res.Outcome)
	}
	if err := Commit(prop, CommitOptions{}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	res2, _ := Process(path, off)
	if res2.Outcome != core.OutcomeAlreadyCorrect {
		t.Fatalf("after commit: outcome = %s, want already-correct", res2.Outcome)
	}
}
