package main

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// readVersion returns the trimmed contents of the version marker, or
// fallback when it is missing, unreadable or blank.
func readVersion(path, fallback string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		return v
	}
	return fallback
}

// wrapperURL builds the file URL the window loads, carrying the version as
// a query parameter.
func wrapperURL(wrapper, version string) string {
	p := filepath.ToSlash(wrapper)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: url.Values{"version": {version}}.Encode(),
	}
	return u.String()
}

// executableDir returns the directory holding the running binary, where the
// wrapper page and version marker ship.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
