package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/bouldy-go/internal/archive"
	"github.com/nibzard/bouldy-go/internal/todo"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	workDir := t.TempDir()
	cws, err := loadFrom(workDir, "", flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("loadFrom failed: %v", err)
	}
	cfg := cws.Config

	if cfg.Vault != workDir {
		t.Errorf("Vault: got %q, want %q", cfg.Vault, workDir)
	}
	if cfg.TodoSchema != DefaultTodoSchema {
		t.Errorf("TodoSchema: got %q, want %q", cfg.TodoSchema, DefaultTodoSchema)
	}
	if cfg.DebounceMS != DefaultDebounceMS {
		t.Errorf("DebounceMS: got %d, want %d", cfg.DebounceMS, DefaultDebounceMS)
	}
	if cfg.DailyLimit != DefaultDailyLimit {
		t.Errorf("DailyLimit: got %d, want %d", cfg.DailyLimit, DefaultDailyLimit)
	}
	if strings.HasPrefix(cfg.LogDir, "~") {
		t.Errorf("LogDir not expanded: %q", cfg.LogDir)
	}
	for field, src := range cws.Sources {
		if src != SourceDefault {
			t.Errorf("source %s: got %q, want %q", field, src, SourceDefault)
		}
	}
	if cws.GetConfigFile() != "" {
		t.Errorf("GetConfigFile: got %q, want empty", cws.GetConfigFile())
	}
}

func TestLoadPriority(t *testing.T) {
	workDir := t.TempDir()
	userFile := filepath.Join(t.TempDir(), "bouldy.toml")
	writeFile(t, userFile, "daily_limit = 7\ntodo_schema = \"subtasks\"\nlog_level = \"warn\"\n")
	writeFile(t, filepath.Join(workDir, "bouldy.toml"), "daily_limit = 9\nvault = \"notes-vault\"\n")
	t.Setenv("BOULDY_DEBOUNCE_MS", "120")
	t.Setenv("BOULDY_LOG_LEVEL", "error")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cws, err := loadFrom(workDir, userFile, fs, []string{"-log-level", "debug", "todo", "ls"})
	if err != nil {
		t.Fatalf("loadFrom failed: %v", err)
	}
	cfg := cws.Config

	if cfg.DailyLimit != 9 {
		t.Errorf("DailyLimit: got %d, want 9", cfg.DailyLimit)
	}
	if cfg.Schema() != todo.SchemaSubtasks {
		t.Errorf("Schema: got %v, want %v", cfg.Schema(), todo.SchemaSubtasks)
	}
	if cfg.Debounce() != 120*time.Millisecond {
		t.Errorf("Debounce: got %v, want 120ms", cfg.Debounce())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
	if cfg.Vault != filepath.Join(workDir, "notes-vault") {
		t.Errorf("Vault: got %q", cfg.Vault)
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "todo" {
		t.Errorf("remaining args: got %v", got)
	}

	wantSources := map[string]ConfigSource{
		"daily_limit":    SourceProjFile,
		"vault":          SourceProjFile,
		"todo_schema":    SourceUserFile,
		"debounce_ms":    SourceEnv,
		"log_level":      SourceFlag,
		"note_extension": SourceDefault,
	}
	for field, want := range wantSources {
		if got := cws.Sources[field]; got != want {
			t.Errorf("source %s: got %q, want %q", field, got, want)
		}
	}
	if got := cws.GetConfigFile(); got != filepath.Join(workDir, "bouldy.toml") {
		t.Errorf("GetConfigFile: got %q", got)
	}
}

func TestDotConfigFile(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, ".bouldy.toml"), "legacy_calendar = true\n")

	cws, err := loadFrom(workDir, "", flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("loadFrom failed: %v", err)
	}
	if cws.Config.Calendar() != archive.CalendarLegacy {
		t.Errorf("Calendar: got %v, want %v", cws.Config.Calendar(), archive.CalendarLegacy)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
		args []string
	}{
		{name: "unknown key", file: "max_iterations = 3\n"},
		{name: "bad toml", file: "daily_limit = \n"},
		{name: "bad schema", file: "todo_schema = \"nested\"\n"},
		{name: "zero debounce", args: []string{"-debounce-ms", "0"}},
		{name: "negative limit", file: "daily_limit = -1\n"},
		{name: "env not integer", env: map[string]string{"BOULDY_DAILY_LIMIT": "five"}},
		{name: "unknown flag", args: []string{"-agent", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workDir := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(workDir, "bouldy.toml"), tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(&strings.Builder{})
			if _, err := loadFrom(workDir, "", fs, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	var cfg Config
	md, err := toml.Decode(ExampleConfig(), &cfg)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(md.Undecoded()) != 0 {
		t.Errorf("undecoded keys: %v", md.Undecoded())
	}
	for _, field := range configFields() {
		if !md.IsDefined(field) {
			t.Errorf("example is missing %s", field)
		}
	}
	if cfg.DebounceMS != DefaultDebounceMS || cfg.TodoSchema != DefaultTodoSchema {
		t.Errorf("example values differ from defaults: %+v", cfg)
	}
}

func TestNoteExtensionTrimsDot(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cws, err := loadFrom(t.TempDir(), "", fs, []string{"-note-ext", ".markdown"})
	if err != nil {
		t.Fatalf("loadFrom failed: %v", err)
	}
	if cws.Config.NoteExtension != "markdown" {
		t.Errorf("NoteExtension: got %q, want markdown", cws.Config.NoteExtension)
	}
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	base := t.TempDir()
	t.Setenv("BOULDY_TEST_DIR", base)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"~", home},
		{"~/logs", filepath.Join(home, "logs")},
		{"$BOULDY_TEST_DIR/x", filepath.Join(base, "x")},
		{"notes/../vault", filepath.Join(base, "vault")},
		{".", base},
	}
	for _, tt := range tests {
		if got := resolvePath(tt.in, base); got != tt.want {
			t.Errorf("resolvePath(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRelativeLogDirIsInsideVault(t *testing.T) {
	workDir := t.TempDir()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cws, err := loadFrom(workDir, "", fs, []string{"-vault", "v", "-log-dir", ".bouldy/logs"})
	if err != nil {
		t.Fatalf("loadFrom failed: %v", err)
	}
	wantVault := filepath.Join(workDir, "v")
	if cws.Config.Vault != wantVault {
		t.Errorf("Vault: got %q, want %q", cws.Config.Vault, wantVault)
	}
	if want := filepath.Join(wantVault, ".bouldy", "logs"); cws.Config.LogDir != want {
		t.Errorf("LogDir: got %q, want %q", cws.Config.LogDir, want)
	}
}

func TestBoolFromString(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " on "} {
		if !boolFromString(s) {
			t.Errorf("boolFromString(%q): got false, want true", s)
		}
	}
	for _, s := range []string{"0", "false", "no", "maybe"} {
		if boolFromString(s) {
			t.Errorf("boolFromString(%q): got true, want false", s)
		}
	}
}
