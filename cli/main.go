// Command gps-datetime-surgery fixes EXIF GPS date and time stamps that
// buggy camera firmware filled with a fixed, wrong date. The corrected
// stamps are recomputed from DateTimeOriginal and a user-supplied timezone
// offset.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankit-chaubey/gps-datetime-surgery/core"
	"github.com/ankit-chaubey/gps-datetime-surgery/core/gpsfix"
	"github.com/ankit-chaubey/gps-datetime-surgery/core/jpg"
)

const disclaimer = `This tool rewrites the GPS date/time EXIF fields of your images in place.
The original GPS fix time cannot be recovered; the capture timestamp is
substituted instead. Backups are written unless -no-backup is given.`

func main() {
	autoApply := flag.Bool("auto-apply", false, "apply all fixes without confirmation")
	timezone := flag.String("timezone", "", "offset of the capture times from UTC as {+|-}HHMM (required with -auto-apply)")
	noBackup := flag.Bool("no-backup", false, "disable the automatic backup of rewritten images")
	backupDir := flag.String("backup-dir", "", "directory for backup copies (default: .bak sibling files)")
	recursive := flag.Bool("recursive", false, "recurse into subdirectories of the given folders")
	followSymlinks := flag.Bool("follow-symlinks", false, "follow directory symlinks while recursing")
	jsonOut := flag.Bool("json", false, "emit results as JSON (implies no prompts; requires -auto-apply)")
	verbose := flag.Bool("verbose", false, "show the EXIF timestamp fields of each image before prompting")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] path...\n\nA tool to fix EXIF GPS date and time stamps.\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	if *jsonOut && !*autoApply {
		log.Fatal("-json requires -auto-apply; interactive prompts would corrupt the output")
	}
	if *autoApply && *timezone == "" {
		log.Fatal("-timezone is required with -auto-apply")
	}

	stdin := bufio.NewReader(os.Stdin)
	tz := *timezone
	if tz == "" {
		var err error
		tz, err = promptLine(stdin, "Timezone offset of the capture times ({+|-}HHMM): ")
		if err != nil {
			log.Fatal(err)
		}
	}
	offset, err := gpsfix.ParseOffset(tz)
	if err != nil {
		log.Fatal(err)
	}

	printer := core.NewPrinter(*jsonOut, *verbose)
	summary := &core.Summary{}
	opts := gpsfix.CommitOptions{Backup: !*noBackup, BackupDir: *backupDir}

	files, preErrors := collectFiles(flag.Args(), *recursive, *followSymlinks)
	for _, r := range preErrors {
		printer.PrintResult(r)
		summary.Record(r)
	}

	applyAll := *autoApply
	disclaimerShown := false
	for _, path := range files {
		res, prop := gpsfix.Process(path, offset)

		if res.Outcome == core.OutcomeProposed {
			if *verbose {
				if fields, err := jpg.TimestampFields(path); err == nil {
					printer.PrintFields(fields)
				}
			}
			apply := applyAll
			if !apply {
				if !disclaimerShown {
					disclaimerShown = true
					printer.PrintInfo(disclaimer)
					ok, err := confirm(stdin, "Continue? [y/N] ")
					if err != nil || !ok {
						printer.PrintSummary(summary)
						return
					}
				}
				switch answer(stdin, fmt.Sprintf("%s\n  GPS %s -> %s UTC\nApply fix? [y/N/a/q] ", path, prop.Old, prop.New)) {
				case "y":
					apply = true
				case "a":
					apply = true
					applyAll = true
				case "q":
					printer.PrintSummary(summary)
					return
				default:
					res.Outcome = core.OutcomeSkipped
					res.Reason = "declined"
				}
			}
			if apply {
				if err := gpsfix.Commit(prop, opts); err != nil {
					res.Outcome = core.OutcomeError
					res.Reason = err.Error()
				} else {
					res.Outcome = core.OutcomeFixed
				}
			}
		}

		printer.PrintResult(res)
		summary.Record(res)
	}

	printer.PrintSummary(summary)
	if summary.Errors > 0 {
		os.Exit(1)
	}
}

// collectFiles expands the path arguments into candidate image files.
// Explicitly named files are kept even when they do not look like images,
// so the user gets a per-file error; files discovered under directories are
// filtered silently. Missing paths and walk failures become error results.
func collectFiles(args []string, recursive, followSymlinks bool) ([]string, []*core.FixResult) {
	var files []string
	var preErrors []*core.FixResult

	var dirs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			preErrors = append(preErrors, &core.FixResult{
				Path:    arg,
				Outcome: core.OutcomeError,
				Reason:  "path does not exist or is not accessible",
			})
			continue
		}
		if info.IsDir() {
			dirs = append(dirs, arg)
		} else {
			files = append(files, arg)
		}
	}

	for len(dirs) > 0 {
		dir := dirs[0]
		dirs = dirs[1:]
		entries, err := os.ReadDir(dir)
		if err != nil {
			preErrors = append(preErrors, &core.FixResult{
				Path:    dir,
				Outcome: core.OutcomeError,
				Reason:  fmt.Sprintf("read directory: %v", err),
			})
			continue
		}
		for _, e := range entries {
			full := filepath.Join(dir, e.Name())
			if e.Type()&os.ModeSymlink != 0 {
				info, err := os.Stat(full)
				if err != nil {
					continue
				}
				if info.IsDir() {
					if recursive && followSymlinks {
						dirs = append(dirs, full)
					}
					continue
				}
				if core.IsImage(full) {
					files = append(files, full)
				}
				continue
			}
			if e.IsDir() {
				if recursive {
					dirs = append(dirs, full)
				}
				continue
			}
			if core.IsImage(full) {
				files = append(files, full)
			}
		}
	}
	return files, preErrors
}

// promptLine displays a prompt and reads a full line of input, trimmed of
// surrounding whitespace.
func promptLine(r *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func answer(r *bufio.Reader, prompt string) string {
	line, err := promptLine(r, prompt)
	if err != nil {
		return "q"
	}
	return strings.ToLower(line)
}

func confirm(r *bufio.Reader, prompt string) (bool, error) {
	line, err := promptLine(r, prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "y") || strings.EqualFold(line, "yes"), nil
}
