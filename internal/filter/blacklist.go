package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/amitkr/jobmail/internal/model"
)

// Blacklist rejects messages whose subject+sender contains any configured
// keyword. Matching is case-insensitive substring; only the subject and sender
// are considered, never the body.
type Blacklist struct {
	keywords []string
}

// NewBlacklist builds a blacklist from an explicit keyword list. Keywords are
// lowercased; empty entries are dropped.
func NewBlacklist(keywords []string) *Blacklist {
	clean := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			clean = append(clean, kw)
		}
	}
	return &Blacklist{keywords: clean}
}

// LoadBlacklist reads a newline-delimited keyword file. A missing file yields
// an empty blacklist and ok=false so the caller can warn and continue.
func LoadBlacklist(path string) (*Blacklist, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewBlacklist(nil), false, nil
		}
		return nil, false, fmt.Errorf("open blacklist %s: %w", path, err)
	}
	defer f.Close()

	var keywords []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		keywords = append(keywords, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("read blacklist %s: %w", path, err)
	}
	return NewBlacklist(keywords), true, nil
}

// Len returns the number of configured keywords.
func (b *Blacklist) Len() int { return len(b.keywords) }

// Check returns pass=false and the offending keyword as reason when the
// message's subject or sender contains a blacklisted word.
func (b *Blacklist) Check(msg model.Message) (pass bool, reason string) {
	text := strings.ToLower(msg.Subject + " " + msg.Sender)
	for _, kw := range b.keywords {
		if strings.Contains(text, kw) {
			return false, "blacklisted keyword: " + kw
		}
	}
	return true, ""
}
