// Package notes reads note file metadata for listings and note events.
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

// Note describes a note file.
type Note struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Modified  int64  `json:"modified"` // unix seconds
	IsSymlink bool   `json:"is_symlink"`
}

// Title returns the note title for path: the file name without extension.
func Title(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "Untitled"
	}
	return stem
}

// Stat returns metadata for the note at path. Symlinks are followed for
// the modified time; a broken link is an error.
func Stat(path string) (Note, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Note{}, err
	}
	if info.IsDir() {
		return Note{}, fmt.Errorf("%s is a directory", path)
	}
	isLink := false
	if linfo, err := os.Lstat(path); err == nil {
		isLink = linfo.Mode()&os.ModeSymlink != 0
	}
	return Note{
		Path:      path,
		Name:      filepath.Base(path),
		Title:     Title(path),
		Modified:  info.ModTime().Unix(),
		IsSymlink: isLink,
	}, nil
}

// Scan lists the note files directly inside dir with extension ext, newest
// first. Entries that cannot be stat'ed are skipped and logged.
func Scan(dir, ext string, logger *log.Logger) ([]Note, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read notes directory: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	out := make([]Note, 0, len(entries))
	for _, entry := range entries {
		if !vaultdir.HasExtension(entry.Name(), ext) {
			continue
		}
		n, err := Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Warn("skipping note", "path", filepath.Join(dir, entry.Name()), "err", err)
			continue
		}
		out = append(out, n)
	}
	Sort(out)
	return out, nil
}

// Sort orders notes by modified time, newest first, then by name.
func Sort(list []Note) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Modified != list[j].Modified {
			return list[i].Modified > list[j].Modified
		}
		return list[i].Name < list[j].Name
	})
}

// Payload converts n to a note event payload.
func (n Note) Payload() events.NoteInfo {
	title := n.Title
	modified := n.Modified
	return events.NoteInfo{Path: n.Path, Name: n.Name, Title: &title, Modified: &modified}
}

// DeletedPayload is the payload for a removed note: no title or time.
func DeletedPayload(path string) events.NoteInfo {
	return events.NoteInfo{Path: path, Name: filepath.Base(path)}
}

// ListPayload converts a listing to a NoteListUpdated payload.
func ListPayload(list []Note) events.NoteList {
	out := events.NoteList{Notes: make([]events.NoteInfo, len(list))}
	for i, n := range list {
		out.Notes[i] = n.Payload()
	}
	return out
}
