package journal

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// Entry describes one completed flush.
type Entry struct {
	ID         string          `json:"id"`
	Session    string          `json:"session"`
	Operation  string          `json:"operation"`
	NodeID     uint64          `json:"node_id"`
	Checkpoint uint64          `json:"checkpoint"`
	Graph      json.RawMessage `json:"graph"`
	Response   string          `json:"response"`
	Time       time.Time       `json:"time"`
}

// Journal stores entries as one JSON file each, named by a ulid so that
// lexical order is recording order.
type Journal struct {
	dir string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// DefaultDir returns ~/.octoframe/journal.
func DefaultDir() (string, error) {
	dir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "couldn't get user home directory")
	}
	return filepath.Join(dir, ".octoframe", "journal"), nil
}

func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "couldn't create journal directory %s", dir)
	}
	return &Journal{
		dir:     dir,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func (j *Journal) Dir() string {
	return j.dir
}

// Record assigns the entry an id and time if it has none and writes it out.
func (j *Journal) Record(entry Entry) error {
	now := time.Now()
	if entry.Time.IsZero() {
		entry.Time = now
	}
	if entry.ID == "" {
		j.mu.Lock()
		id, err := ulid.New(ulid.Timestamp(entry.Time), j.entropy)
		j.mu.Unlock()
		if err != nil {
			return errors.Wrap(err, "couldn't generate entry id")
		}
		entry.ID = id.String()
	}

	body, err := json.Marshal(&entry)
	if err != nil {
		return errors.Wrap(err, "couldn't marshal journal entry")
	}

	// Written under a temporary name so List never sees half an entry.
	path := filepath.Join(j.dir, entry.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return errors.Wrap(err, "couldn't write journal entry")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "couldn't move journal entry into place")
	}
	return nil
}

// List returns all entries, oldest first.
func (j *Journal) List() ([]Entry, error) {
	files, err := filepath.Glob(filepath.Join(j.dir, "*.json"))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't list journal entries")
	}
	sort.Strings(files)

	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't read journal entry %s", filepath.Base(file))
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, errors.Wrapf(err, "couldn't decode journal entry %s", filepath.Base(file))
		}
		if entry.ID == "" {
			entry.ID = strings.TrimSuffix(filepath.Base(file), ".json")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Last returns the most recent n entries, oldest first.
func (j *Journal) Last(n int) ([]Entry, error) {
	entries, err := j.List()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

var ErrNotFound = errors.New("journal entry not found")

// Get returns the entry with the given id.
func (j *Journal) Get(id string) (Entry, error) {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return Entry{}, errors.Wrapf(ErrNotFound, "'%s'", id)
	}
	data, err := os.ReadFile(filepath.Join(j.dir, id+".json"))
	if os.IsNotExist(err) {
		return Entry{}, errors.Wrapf(ErrNotFound, "'%s'", id)
	} else if err != nil {
		return Entry{}, errors.Wrapf(err, "couldn't read journal entry %s", id)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, errors.Wrapf(err, "couldn't decode journal entry %s", id)
	}
	if entry.ID == "" {
		entry.ID = id
	}
	return entry, nil
}
