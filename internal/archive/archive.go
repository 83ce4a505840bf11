package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/utils"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

// ArchivedTodo is one entry of an archive file.
type ArchivedTodo struct {
	Title         string         `json:"title"`
	CompletedDate string         `json:"completedDate"`
	Subtasks      []todo.Subtask `json:"subtasks"`
}

// Step names one write of the archive sequence.
type Step string

const (
	StepArchive Step = "append archive"
	StepStats   Step = "write stats"
	StepLive    Step = "rewrite todo file"
)

// PartialArchiveError reports an archive run that failed after some of its
// writes had already landed. The files are left as they are.
type PartialArchiveError struct {
	Completed []Step
	Failed    Step
	Archived  int
	Err       error
}

func (e *PartialArchiveError) Error() string {
	done := make([]string, len(e.Completed))
	for i, s := range e.Completed {
		done[i] = string(s)
	}
	return fmt.Sprintf("archive incomplete: %s failed after %s: %v", e.Failed, strings.Join(done, ", "), e.Err)
}

// Unwrap returns the underlying error.
func (e *PartialArchiveError) Unwrap() error {
	return e.Err
}

// Options configures an Engine.
type Options struct {
	Schema     todo.Schema
	Calendar   Calendar
	DailyLimit int              // used when no metadata file exists
	Now        func() time.Time // defaults to time.Now
}

// Engine archives completed tasks and maintains stats for one vault.
type Engine struct {
	vault string
	opts  Options
}

// New returns an Engine for the vault at root.
func New(root string, opts Options) *Engine {
	if opts.Schema == 0 {
		opts.Schema = todo.CurrentSchema
	}
	if opts.DailyLimit <= 0 {
		opts.DailyLimit = DefaultDailyLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{vault: root, opts: opts}
}

// Metadata loads the vault's metadata file.
func (e *Engine) Metadata() (Metadata, error) {
	return LoadMetadata(vaultdir.TodoMetadataPath(e.vault), e.opts.DailyLimit)
}

// SaveMetadata writes the vault's metadata file.
func (e *Engine) SaveMetadata(m Metadata) error {
	return SaveMetadata(vaultdir.TodoMetadataPath(e.vault), m)
}

// Stats returns the stored stats with the current streak recomputed as of
// today. Nothing is written.
func (e *Engine) Stats() (Stats, error) {
	m, err := e.Metadata()
	if err != nil {
		return Stats{}, err
	}
	m.Stats.CurrentStreak = CurrentStreak(m.Stats.CompletionsByDay, e.opts.Now().Format(dayLayout), e.opts.Calendar)
	return m.Stats, nil
}

// SetDailyLimit stores a new daily limit.
func (e *Engine) SetDailyLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("daily limit must not be negative, got %d", limit)
	}
	m, err := e.Metadata()
	if err != nil {
		return err
	}
	m.DailyLimit = limit
	return e.SaveMetadata(m)
}

// ArchiveCompleted moves completed tasks from the live file into this
// month's archive file and records them in the stats. It returns the number
// of archived tasks. With nothing completed it writes nothing.
//
// The three writes happen in order: archive append, stats write, live file
// rewrite. They are not transactional; a failure after the first write is
// returned as *PartialArchiveError.
func (e *Engine) ArchiveCompleted() (int, error) {
	todoPath := vaultdir.TodoPath(e.vault)
	items, err := todo.Load(todoPath, e.opts.Schema)
	if err != nil {
		return 0, err
	}
	completed, remaining := todo.Partition(items)
	if len(completed) == 0 {
		return 0, nil
	}

	meta, err := e.Metadata()
	if err != nil {
		return 0, err
	}

	now := e.opts.Now()
	today := now.Format(dayLayout)
	month := now.Format(monthLayout)
	count := len(completed)

	if err := utils.AppendFile(vaultdir.ArchivePath(e.vault, month), []byte(FormatArchive(completed, today, e.opts.Schema)), 0644); err != nil {
		return 0, fmt.Errorf("append archive: %w", err)
	}

	meta.Stats.Record(count, now, e.opts.Calendar)
	if err := e.SaveMetadata(meta); err != nil {
		return 0, &PartialArchiveError{Completed: []Step{StepArchive}, Failed: StepStats, Archived: count, Err: err}
	}

	todo.Renumber(remaining)
	if err := todo.Save(todoPath, remaining, e.opts.Schema); err != nil {
		return 0, &PartialArchiveError{Completed: []Step{StepArchive, StepStats}, Failed: StepLive, Archived: count, Err: err}
	}

	return count, nil
}

// FormatArchive renders completed items as archive lines dated day.
// Subtasks are written only in the subtasks schema.
func FormatArchive(items []todo.Item, day string, schema todo.Schema) string {
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "[%s] %s\n", day, it.Title)
		if schema != todo.SchemaSubtasks {
			continue
		}
		for _, st := range it.Subtasks {
			if st.Completed {
				fmt.Fprintf(&b, "  x - %s\n", st.Title)
			} else {
				fmt.Fprintf(&b, "  - %s\n", st.Title)
			}
		}
	}
	return b.String()
}

// LoadArchived reads the archive for a "YYYY-MM" month. A missing archive is
// an empty list.
func (e *Engine) LoadArchived(month string) ([]ArchivedTodo, error) {
	data, err := os.ReadFile(vaultdir.ArchivePath(e.vault, month))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ArchivedTodo{}, nil
		}
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return ParseArchive(string(data), e.opts.Schema), nil
}

// ParseArchive parses archive text. Lines that are neither entries nor
// subtasks of an entry are ignored.
func ParseArchive(text string, schema todo.Schema) []ArchivedTodo {
	out := []ArchivedTodo{}
	current := -1

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "[") {
			end := strings.IndexByte(line, ']')
			if end < 0 {
				current = -1
				continue
			}
			out = append(out, ArchivedTodo{
				Title:         strings.TrimSpace(line[end+1:]),
				CompletedDate: line[1:end],
				Subtasks:      []todo.Subtask{},
			})
			current = len(out) - 1
			continue
		}
		if schema != todo.SchemaSubtasks || current < 0 {
			continue
		}
		res := todo.ParseLine(line, todo.SchemaSubtasks)
		if res.Kind == todo.LineSubtask && res.Err == nil {
			out[current].Subtasks = append(out[current].Subtasks, res.Subtask)
		}
	}
	return out
}

// ListArchiveMonths returns the months that have archive files, newest first.
func (e *Engine) ListArchiveMonths() ([]string, error) {
	entries, err := os.ReadDir(vaultdir.ArchivesPath(e.vault))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read archives directory: %w", err)
	}

	months := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if month, ok := vaultdir.MonthFromArchiveName(entry.Name()); ok {
			months = append(months, month)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months, nil
}
