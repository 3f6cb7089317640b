package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	triageerrors "github.com/abatilo/triage/internal/errors"
)

const homeDir = ".triage"

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FindProjectRoot walks up from cwd looking for a .git directory.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		info, err := os.Stat(filepath.Join(dir, ".git"))
		if err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", triageerrors.NotInRepoError{}
		}
		dir = parent
	}
}

// SanitizePath converts an absolute path to a safe directory name.
// "/Users/abatilo/myproject" -> "Users-abatilo-myproject"
func SanitizePath(path string) string {
	result := strings.TrimPrefix(path, "/")
	result = unsafePathChars.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// DefaultLocation returns ~/.triage/<sanitized project root>. Outside a git
// repository the working directory stands in for the project root.
func DefaultLocation() (string, error) {
	root, err := FindProjectRoot()
	if err != nil {
		if root, err = os.Getwd(); err != nil {
			return "", err
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeDir, SanitizePath(root)), nil
}
