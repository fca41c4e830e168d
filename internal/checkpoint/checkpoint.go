// Package checkpoint persists the pipeline's resume state between runs: the
// mail provider's page token and the id of the most recently processed email.
// Each lives in its own single-token file so either can be cleared by hand.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cursors reads and writes the two resume-state files under dir.
type Cursors struct {
	dir string
}

const (
	pageTokenFile = "page_token"
	lastIDFile    = "last_email_id"
)

// New creates the checkpoint directory if needed and returns a Cursors.
func New(dir string) (*Cursors, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir %s: %w", dir, err)
	}
	return &Cursors{dir: dir}, nil
}

// PageToken returns the persisted page token, or "" when no checkpoint exists.
func (c *Cursors) PageToken() (string, error) {
	return c.read(pageTokenFile)
}

// SetPageToken persists the page token. An empty token removes the file so a
// finished listing restarts from the head of the query.
func (c *Cursors) SetPageToken(token string) error {
	return c.write(pageTokenFile, token)
}

// LastEmailID returns the id of the most recently processed email from the
// prior run, or "" when no checkpoint exists.
func (c *Cursors) LastEmailID() (string, error) {
	return c.read(lastIDFile)
}

// SetLastEmailID persists the early-stop sentinel id.
func (c *Cursors) SetLastEmailID(id string) error {
	return c.write(lastIDFile, id)
}

func (c *Cursors) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read checkpoint %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *Cursors) write(name, value string) error {
	path := filepath.Join(c.dir, name)
	if value == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear checkpoint %s: %w", name, err)
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(value+"\n"), 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", name, err)
	}
	return nil
}
