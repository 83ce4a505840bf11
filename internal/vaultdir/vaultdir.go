// Package vaultdir provides constants and path helpers for the vault layout.
//
//	<vault>/
//	  todo.txt
//	  .pomodoros.md
//	  notes/
//	  prompts/
//	  .bouldy/
//	    todo-metadata.json
//	    prompt-metadata.json
//	    archives/done-YYYY-MM.txt
package vaultdir

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// Dir is the name of the app-data directory inside the vault.
	Dir = ".bouldy"

	// TodoFile is the live task file at the vault root.
	TodoFile = "todo.txt"

	// NotesDir holds markdown notes.
	NotesDir = "notes"

	// PromptsDir holds prompt templates.
	PromptsDir = "prompts"

	// PomodorosFile is the pomodoro log at the vault root.
	PomodorosFile = ".pomodoros.md"

	// TodoMetadataFile stores the daily limit and completion stats (inside Dir).
	TodoMetadataFile = "todo-metadata.json"

	// PromptMetadataFile stores per-prompt usage stats (inside Dir).
	PromptMetadataFile = "prompt-metadata.json"

	// ArchivesDir holds month-partitioned archive files (inside Dir).
	ArchivesDir = "archives"

	// ConfigFile is the optional per-vault config file name.
	ConfigFile = "bouldy.toml"

	// NoteExtension is the extension of note and prompt files, without the dot.
	NoteExtension = "md"
)

var archiveNamePattern = regexp.MustCompile(`^done-(\d{4}-\d{2})\.txt$`)

// TodoPath returns the live task file path.
func TodoPath(vault string) string {
	return filepath.Join(vault, TodoFile)
}

// NotesPath returns the notes directory path.
func NotesPath(vault string) string {
	return filepath.Join(vault, NotesDir)
}

// PromptsPath returns the prompts directory path.
func PromptsPath(vault string) string {
	return filepath.Join(vault, PromptsDir)
}

// PomodorosPath returns the pomodoro log path.
func PomodorosPath(vault string) string {
	return filepath.Join(vault, PomodorosFile)
}

// DirPath returns the app-data directory path.
func DirPath(vault string) string {
	return filepath.Join(vault, Dir)
}

// TodoMetadataPath returns the todo metadata JSON path.
func TodoMetadataPath(vault string) string {
	return filepath.Join(vault, Dir, TodoMetadataFile)
}

// PromptMetadataPath returns the prompt metadata JSON path.
func PromptMetadataPath(vault string) string {
	return filepath.Join(vault, Dir, PromptMetadataFile)
}

// ArchivesPath returns the archive directory path.
func ArchivesPath(vault string) string {
	return filepath.Join(vault, Dir, ArchivesDir)
}

// ArchiveName returns the archive file name for a "YYYY-MM" month key.
func ArchiveName(month string) string {
	return "done-" + month + ".txt"
}

// ArchivePath returns the archive file path for a "YYYY-MM" month key.
func ArchivePath(vault, month string) string {
	return filepath.Join(ArchivesPath(vault), ArchiveName(month))
}

// MonthFromArchiveName extracts the month key from an archive file name.
func MonthFromArchiveName(name string) (string, bool) {
	m := archiveNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ConfigPath returns the per-vault config file path.
func ConfigPath(vault string) string {
	return filepath.Join(vault, ConfigFile)
}

// IsNoteFile reports whether name has the default note extension.
func IsNoteFile(name string) bool {
	return HasExtension(name, NoteExtension)
}

// HasExtension reports whether name ends in ext, compared case-insensitively.
// ext may be given with or without the leading dot.
func HasExtension(name, ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return false
	}
	return strings.EqualFold(strings.TrimPrefix(filepath.Ext(name), "."), ext)
}
