// Package devcontainer renders the devcontainer.json configuration from the
// distributed template.
//
// Rendering is parse-modify-serialize over the JSON document, not textual
// marker substitution: every field the installer sets must already exist in
// the template, and a template that drifted away from the expected shape
// fails loudly instead of silently keeping placeholder values.
package devcontainer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath is where the rendered document is written, relative to the
// project root.
const DefaultPath = ".devcontainer/devcontainer.json"

// Template field names the installer substitutes into.
const (
	fieldName         = "name"
	fieldImage        = "image"
	fieldContainerEnv = "containerEnv"
	envGitUserName    = "GIT_USER_NAME"
	envGitUserEmail   = "GIT_USER_EMAIL"
)

// MissingFieldError reports a template that lacks an expected field.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("template is missing expected field %q", e.Path)
}

// Substitutions are the values written into the template.
type Substitutions struct {
	Name         string
	Image        string
	GitUserName  string
	GitUserEmail string
}

// Render decodes the template, applies the substitutions and re-encodes the
// document with two-space indentation. Fields not targeted by a substitution
// pass through unchanged; object keys are emitted in sorted order, so
// rendering is idempotent.
func Render(template []byte, subs Substitutions) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(template, &doc); err != nil {
		return nil, fmt.Errorf("parsing devcontainer template: %w", err)
	}

	if _, ok := doc[fieldName]; !ok {
		return nil, &MissingFieldError{Path: fieldName}
	}
	doc[fieldName] = subs.Name

	if _, ok := doc[fieldImage]; !ok {
		return nil, &MissingFieldError{Path: fieldImage}
	}
	doc[fieldImage] = subs.Image

	env, ok := doc[fieldContainerEnv].(map[string]any)
	if !ok {
		return nil, &MissingFieldError{Path: fieldContainerEnv}
	}
	if _, ok := env[envGitUserName]; !ok {
		return nil, &MissingFieldError{Path: fieldContainerEnv + "." + envGitUserName}
	}
	env[envGitUserName] = subs.GitUserName

	if _, ok := env[envGitUserEmail]; !ok {
		return nil, &MissingFieldError{Path: fieldContainerEnv + "." + envGitUserEmail}
	}
	env[envGitUserEmail] = subs.GitUserEmail

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding devcontainer.json: %w", err)
	}

	return append(out, '\n'), nil
}

// WriteFile writes the rendered document to dir/.devcontainer/devcontainer.json,
// creating the .devcontainer directory as needed.
func WriteFile(dir string, rendered []byte) (string, error) {
	path := filepath.Join(dir, filepath.FromSlash(DefaultPath))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}
