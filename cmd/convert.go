// Package cmd — convert command.
// This is the main command that orchestrates the pipeline:
// read archive → normalize → render → resolve attachments → sink.
//
// It handles flag/config merging, sink selection, and converting several
// archives in one run.
package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/enmark/core"
	"github.com/gaurav-prasanna/enmark/core/export"
	"github.com/gaurav-prasanna/enmark/core/sink"
)

// Flag variables.
var (
	flagDisk            bool
	flagFrontMatter     bool
	flagOutput          string
	flagNotePath        string
	flagAttachmentsPath string
	flagAllowSpaces     bool
	flagReplacement     string
	flagMaxNameLength   int
	flagRootCondition   string
	flagOnExisting      string
	flagTimezone        string
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>...",
	Short: "Convert ENEX archives to Markdown",
	Long: `Convert reads one or more ENEX archives (or directories scanned for
*.enex files), converts every note to Markdown, and writes the result to
stdout or, with --disk, to a configurable folder layout with extracted
attachment files.

Examples:
  enmark convert notes.enex
  enmark convert notes.enex --disk --output ./out
  enmark convert exports/ --disk --front-matter
  enmark convert notes.enex --disk --note-path "{created:2006/01}/{title}.md"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&flagDisk, "disk", false, "Write to disk instead of stdout")
	convertCmd.Flags().BoolVar(&flagFrontMatter, "front-matter", false, "Put note metadata in a front matter block")
	convertCmd.Flags().StringVar(&flagTimezone, "timezone", "", "Timezone for timestamps: utc or local")

	// Disk layout flags, all of which only matter with --disk.
	convertCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output root folder")
	convertCmd.Flags().StringVar(&flagNotePath, "note-path", "", "Path template for note files")
	convertCmd.Flags().StringVar(&flagAttachmentsPath, "attachments-path", "", "Path template for attachment folders")
	convertCmd.Flags().BoolVar(&flagAllowSpaces, "allow-spaces", false, "Keep spaces in derived file names")
	convertCmd.Flags().StringVar(&flagReplacement, "replacement", "", "Replacement for unsafe file name characters")
	convertCmd.Flags().IntVar(&flagMaxNameLength, "max-name-length", 0, "Maximum length of derived file names")
	convertCmd.Flags().StringVar(&flagRootCondition, "root-condition", "", "Output root condition: leave-as-is or require-empty")
	convertCmd.Flags().StringVar(&flagOnExisting, "on-existing", "", "Existing file policy: bump, fail, overwrite or warn")
}

func runConvert(cmd *cobra.Command, args []string) error {
	applyOverrides(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	archives, err := collectArchives(args)
	if err != nil {
		return err
	}

	dest, err := buildSink()
	if err != nil {
		return err
	}

	exporter := export.New(cfg.Convert.FrontMatter, cfg.Convert.Zone())
	for _, archive := range archives {
		if err := exporter.ExportArchive(archive, dest); err != nil {
			return err
		}
	}

	stats := exporter.Stats()
	slog.Info("run complete",
		"archives", len(archives),
		"notes_exported", stats.NotesExported,
		"notes_failed", stats.NotesFailed,
		"attachments_stored", stats.AttachmentsStored)
	return nil
}

// applyOverrides copies flags the user actually set onto the effective
// configuration.
func applyOverrides(cmd *cobra.Command) {
	set := map[string]func(){
		"front-matter":     func() { cfg.Convert.FrontMatter = flagFrontMatter },
		"timezone":         func() { cfg.Convert.Timezone = flagTimezone },
		"output":           func() { cfg.Output.Root = flagOutput },
		"note-path":        func() { cfg.Output.NotePath = flagNotePath },
		"attachments-path": func() { cfg.Output.AttachmentsPath = flagAttachmentsPath },
		"allow-spaces":     func() { cfg.Output.AllowSpaces = flagAllowSpaces },
		"replacement":      func() { cfg.Output.Replacement = flagReplacement },
		"max-name-length":  func() { cfg.Output.MaxNameLength = flagMaxNameLength },
		"root-condition":   func() { cfg.Output.RootCondition = flagRootCondition },
		"on-existing":      func() { cfg.Output.OnExisting = flagOnExisting },
	}
	for name, apply := range set {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
}

// buildSink constructs the run's destination once: the filesystem layout
// with --disk, the console stream otherwise.
func buildSink() (core.Sink, error) {
	if !flagDisk {
		return sink.NewConsole(os.Stdout), nil
	}
	return sink.NewFileSystem(sink.FileSystemConfig{
		Root:           cfg.Output.Root,
		NoteTemplate:   cfg.Output.NotePath,
		AttachTemplate: cfg.Output.AttachmentsPath,
		AllowSpaces:    cfg.Output.AllowSpaces,
		Replacement:    cfg.Output.Replacement,
		MaxNameLength:  cfg.Output.MaxNameLength,
		RootCondition:  cfg.Output.RootCondition,
		OnExisting:     cfg.Output.OnExisting,
		Timezone:       cfg.Convert.Zone(),
	})
}

// collectArchives expands the input arguments into a list of archive files.
// A file argument is taken as-is; a directory is scanned recursively for
// *.enex files, sorted. A missing input is fatal.
func collectArchives(args []string) ([]string, error) {
	var archives []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input not found: %s", arg)
		}
		if !info.IsDir() {
			archives = append(archives, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".enex") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		sort.Strings(found)
		archives = append(archives, found...)
	}
	if len(archives) == 0 {
		return nil, fmt.Errorf("no ENEX archives found in the given inputs")
	}
	return archives, nil
}
