package gpsfix

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	goexif "github.com/rwcarlsen/goexif/exif"

	"github.com/ankit-chaubey/gps-datetime-surgery/core"
	"github.com/ankit-chaubey/gps-datetime-surgery/core/exif"
)

const stampLayout = "2006:01:02 15:04:05"

// Proposal carries a computed fix between Process and Commit: the original
// file bytes plus the patched metadata block. Nothing is written until
// Commit runs, so declining a proposal costs nothing.
type Proposal struct {
	Path string
	Old  string
	New  string

	file  []byte
	block *exif.Block
}

// Process evaluates one file and reports what, if anything, should change.
// The Proposal is non-nil only for OutcomeProposed. Per-file failures come
// back as OutcomeError results, never as process-fatal errors.
func Process(path string, off Offset) (*core.FixResult, *Proposal) {
	data, err := os.ReadFile(path)
	if err != nil {
		return errResult(path, fmt.Sprintf("read: %v", err)), nil
	}
	return processBytes(path, data, off)
}

func processBytes(path string, data []byte, off Offset) (*core.FixResult, *Proposal) {
	block, err := exif.Decode(data)
	if err != nil {
		return errResult(path, err.Error()), nil
	}

	if !block.HasDir(exif.DirGPS) {
		return &core.FixResult{Path: path, Outcome: core.OutcomeNoGPSInfo}, nil
	}
	existing, ok := GPSTimestamp(block)
	if !ok {
		// a GPS directory without usable date/time stamps has nothing the
		// firmware bug could have corrupted
		return &core.FixResult{
			Path:    path,
			Outcome: core.OutcomeNoGPSInfo,
			Reason:  "GPS directory has no usable date/time stamps",
		}, nil
	}
	capture, ok := CaptureTimestamp(block)
	if !ok {
		return &core.FixResult{
			Path:    path,
			Outcome: core.OutcomeSkipped,
			Reason:  "DateTimeOriginal missing or malformed",
		}, nil
	}

	if !NeedsFix(block, off) {
		return &core.FixResult{
			Path:     path,
			Outcome:  core.OutcomeAlreadyCorrect,
			OldStamp: existing.Format(stampLayout),
		}, nil
	}

	if err := ApplyFix(block, off); err != nil {
		return errResult(path, err.Error()), nil
	}
	corrected := capture.Add(-off.Duration())
	res := &core.FixResult{
		Path:     path,
		Outcome:  core.OutcomeProposed,
		OldStamp: existing.Format(stampLayout),
		NewStamp: corrected.Format(stampLayout),
	}
	return res, &Proposal{
		Path:  path,
		Old:   res.OldStamp,
		New:   res.NewStamp,
		file:  data,
		block: block,
	}
}

func errResult(path, reason string) *core.FixResult {
	return &core.FixResult{Path: path, Outcome: core.OutcomeError, Reason: reason}
}

// CommitOptions controls how a proposal is written back.
type CommitOptions struct {
	// Backup copies the original bytes before rewriting.
	Backup bool
	// BackupDir receives the copies; empty means a ".bak" sibling.
	BackupDir string
}

// Commit writes a proposed fix to disk. The updated image is composed fully
// in memory, validated by re-decoding, then written to a temporary file and
// renamed over the original, so no partial write is ever visible and any
// failure leaves the original untouched.
func Commit(p *Proposal, opts CommitOptions) error {
	if opts.Backup {
		if err := backupOriginal(p.Path, p.file, opts.BackupDir); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}

	updated, err := p.block.Splice(p.file)
	if err != nil {
		return err
	}
	if err := validatePatched(updated); err != nil {
		return fmt.Errorf("patched image failed validation, original kept: %w", err)
	}
	return writeAtomic(p.Path, updated)
}

// validatePatched re-decodes the composed bytes with an independent EXIF
// reader and checks the rewritten stamp is still addressable.
func validatePatched(data []byte) error {
	x, err := goexif.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if _, err := x.Get(goexif.GPSDateStamp); err != nil {
		return fmt.Errorf("GPSDateStamp unreadable after patch: %w", err)
	}
	return nil
}

func backupOriginal(path string, data []byte, dir string) error {
	dst := path + ".bak"
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		dst = filepath.Join(dir, filepath.Base(path))
	}
	return os.WriteFile(dst, data, fileMode(path))
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".gpsfix-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, fileMode(path)); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

func fileMode(path string) fs.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}

// IsEncodingOverflow reports whether an error came from a value that could
// not fit its fixed-width slot. Exposed for callers that want to surface
// this distinctly, since it indicates deeper corruption.
func IsEncodingOverflow(err error) bool {
	return errors.Is(err, exif.ErrEncodingOverflow)
}
