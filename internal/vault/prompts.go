package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/utils"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

// ErrInvalidPromptID is returned for ids that are not a plain file stem.
var ErrInvalidPromptID = errors.New("invalid prompt id")

// PromptStats is the per-prompt entry of the prompt metadata file.
type PromptStats struct {
	Tags      []string `json:"tags,omitempty"`
	Category  string   `json:"category,omitempty"`
	Variables []string `json:"variables,omitempty"`
	LastUsed  *int64   `json:"lastUsed,omitempty"` // unix seconds
	UseCount  int64    `json:"useCount"`
}

// Prompt is a prompt file joined with its metadata.
type Prompt struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Category  string   `json:"category,omitempty"`
	Variables []string `json:"variables"`
	LastUsed  *int64   `json:"last_used"`
	UseCount  int64    `json:"use_count"`
	Created   int64    `json:"created"`
	Modified  int64    `json:"modified"`
	Path      string   `json:"path"`
}

// PromptInput holds the editable fields of a prompt.
type PromptInput struct {
	Title     string
	Content   string
	Tags      []string
	Category  string
	Variables []string
}

// ParsePromptFile splits a prompt file into title and body. The title is
// the first line when it is a "# " heading, "Untitled" otherwise.
func ParsePromptFile(text string) (title, body string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	first, rest, _ := strings.Cut(text, "\n")
	if h, ok := strings.CutPrefix(first, "# "); ok {
		return strings.TrimSpace(h), strings.TrimSpace(rest)
	}
	return "Untitled", strings.TrimSpace(text)
}

// FormatPromptFile renders a prompt file.
func FormatPromptFile(title, body string) string {
	return "# " + title + "\n\n" + body
}

// ListPrompts returns all prompts, most recently used first. Never used
// prompts follow, by title. The prompts directory is created if missing.
func (s *Service) ListPrompts() ([]Prompt, error) {
	dir := vaultdir.PromptsPath(s.root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create prompts directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read prompts directory: %w", err)
	}
	stats, err := s.loadPromptStats()
	if err != nil {
		return nil, err
	}

	out := []Prompt{}
	for _, entry := range entries {
		if entry.IsDir() || !vaultdir.HasExtension(entry.Name(), vaultdir.NoteExtension) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		p, err := s.readPrompt(id, stats[id])
		if err != nil {
			s.logger.Warn("skipping prompt", "id", id, "err", err)
			continue
		}
		out = append(out, p)
	}
	sortPrompts(out)
	return out, nil
}

// ReadPrompt returns one prompt.
func (s *Service) ReadPrompt(id string) (Prompt, error) {
	if err := checkPromptID(id); err != nil {
		return Prompt{}, err
	}
	stats, err := s.loadPromptStats()
	if err != nil {
		return Prompt{}, err
	}
	return s.readPrompt(id, stats[id])
}

// WritePrompt creates or replaces a prompt and publishes prompt:saved.
// Usage counters of an existing prompt are kept.
func (s *Service) WritePrompt(id string, in PromptInput) (Prompt, error) {
	if err := checkPromptID(id); err != nil {
		return Prompt{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Untitled"
	}
	path := s.promptPath(id)
	if err := utils.WriteFileAtomic(path, []byte(FormatPromptFile(title, in.Content)), 0644); err != nil {
		return Prompt{}, fmt.Errorf("write prompt: %w", err)
	}

	stats, err := s.loadPromptStats()
	if err != nil {
		return Prompt{}, err
	}
	st := stats[id]
	st.Tags = append([]string(nil), in.Tags...)
	st.Category = in.Category
	st.Variables = append([]string(nil), in.Variables...)
	stats[id] = st
	if err := s.savePromptStats(stats); err != nil {
		return Prompt{}, err
	}

	p, err := s.readPrompt(id, st)
	if err != nil {
		return Prompt{}, err
	}
	s.emitter.Emit(events.PromptSaved, p)
	return p, nil
}

// DeletePrompt removes a prompt file and its metadata and publishes
// prompt:deleted.
func (s *Service) DeletePrompt(id string) error {
	if err := checkPromptID(id); err != nil {
		return err
	}
	path := s.promptPath(id)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("prompt %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete prompt: %w", err)
	}
	stats, err := s.loadPromptStats()
	if err != nil {
		return err
	}
	if _, ok := stats[id]; ok {
		delete(stats, id)
		if err := s.savePromptStats(stats); err != nil {
			return err
		}
	}
	s.emitter.Emit(events.PromptDeleted, events.PromptRef{ID: id, Path: path})
	return nil
}

// TrackPromptUsage bumps the use count of a prompt and stamps its last use.
func (s *Service) TrackPromptUsage(id string) (PromptStats, error) {
	if err := checkPromptID(id); err != nil {
		return PromptStats{}, err
	}
	if _, err := os.Stat(s.promptPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return PromptStats{}, fmt.Errorf("prompt %s: %w", id, ErrNotFound)
		}
		return PromptStats{}, fmt.Errorf("stat prompt: %w", err)
	}
	stats, err := s.loadPromptStats()
	if err != nil {
		return PromptStats{}, err
	}
	st := stats[id]
	st.UseCount++
	now := s.now().Unix()
	st.LastUsed = &now
	stats[id] = st
	if err := s.savePromptStats(stats); err != nil {
		return PromptStats{}, err
	}
	return st, nil
}

func (s *Service) readPrompt(id string, st PromptStats) (Prompt, error) {
	path := s.promptPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Prompt{}, fmt.Errorf("prompt %s: %w", id, ErrNotFound)
		}
		return Prompt{}, fmt.Errorf("read prompt: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Prompt{}, fmt.Errorf("stat prompt: %w", err)
	}
	title, body := ParsePromptFile(string(data))
	p := Prompt{
		ID:        id,
		Title:     title,
		Content:   body,
		Tags:      nonNil(st.Tags),
		Category:  st.Category,
		Variables: nonNil(st.Variables),
		LastUsed:  st.LastUsed,
		UseCount:  st.UseCount,
		Created:   info.ModTime().Unix(),
		Modified:  info.ModTime().Unix(),
		Path:      path,
	}
	return p, nil
}

func (s *Service) loadPromptStats() (map[string]PromptStats, error) {
	data, err := os.ReadFile(vaultdir.PromptMetadataPath(s.root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]PromptStats{}, nil
		}
		return nil, fmt.Errorf("read prompt metadata: %w", err)
	}
	stats := map[string]PromptStats{}
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("parse prompt metadata: %w", err)
	}
	return stats, nil
}

func (s *Service) savePromptStats(stats map[string]PromptStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prompt metadata: %w", err)
	}
	if err := utils.WriteFileAtomic(vaultdir.PromptMetadataPath(s.root), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write prompt metadata: %w", err)
	}
	return nil
}

func (s *Service) promptPath(id string) string {
	return filepath.Join(vaultdir.PromptsPath(s.root), id+"."+vaultdir.NoteExtension)
}

func checkPromptID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidPromptID, id)
	}
	return nil
}

func sortPrompts(list []Prompt) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].LastUsed, list[j].LastUsed
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return list[i].Title < list[j].Title
	})
}
