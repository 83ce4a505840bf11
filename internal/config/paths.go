package config

import (
	"os"
	"path/filepath"
	"strings"
)

// resolvePath turns a configured path into an absolute one. Environment
// variables and a leading ~ are expanded; relative paths are taken against
// base. An empty path stays empty.
func resolvePath(p, base string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if rest, ok := underHome(p); ok {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, rest)
		}
	}
	if !filepath.IsAbs(p) && base != "" {
		p = filepath.Join(base, p)
	}
	return filepath.Clean(p)
}

// underHome reports whether p starts with ~ and returns the part after it.
func underHome(p string) (string, bool) {
	if p == "~" {
		return "", true
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p[2:], true
	}
	return "", false
}
