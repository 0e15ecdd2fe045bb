package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultTemplate = `# todosync configuration
# Every setting can also be given as a TODOSYNC_<NAME> environment variable.

# Remote /todos API. Leave empty to keep tasks on this machine.
api_url: ""
# api_token: ""

# rest or googletasks (run "todosync login" first)
backend: rest
tasklist: "@default"

# Comma-separated feature flags: search, dueDate, experiments
flags: ""

# Local storage: file (tasks.json) or sqlite (tasks.db)
storage: file
# storage_path: ""

search_debounce: 200ms
request_timeout: 10s
retries: 2

# auto, light or dark
theme: auto

# debug, info, warn or error
log_level: warn
# log_file: ""
env: development
`

// WriteDefault writes a commented configuration template to path.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}
