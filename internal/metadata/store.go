package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"vidtriage/internal/fileutil"
	"vidtriage/internal/services"
)

// Store appends SummaryRecords to the JSON array file and the text log.
// No file handle is held between appends.
type Store struct {
	jsonPath string
	textPath string

	mu sync.Mutex
}

// NewStore returns a store writing to the given files.
func NewStore(jsonPath, textPath string) *Store {
	return &Store{jsonPath: jsonPath, textPath: textPath}
}

// Paths returns the JSON and text file locations.
func (s *Store) Paths() (string, string) {
	return s.jsonPath, s.textPath
}

// Records returns every record in the JSON array file. A missing or empty
// file yields no records.
func (s *Store) Records() ([]SummaryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readJSON()
}

// Append adds record to the JSON array and then to the text log. The JSON
// file is re-read, extended and replaced atomically; a corrupt file is left
// untouched and reported.
func (s *Store) Append(record SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readJSON()
	if err != nil {
		return err
	}
	records = append(records, record)
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "metadata", "encode summaries", "", err)
	}
	payload = append(payload, '\n')
	if err := fileutil.WriteFileAtomic(s.jsonPath, payload, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "metadata", "write summaries", s.jsonPath, err)
	}
	return s.appendText(record.Text())
}

func (s *Store) readJSON() ([]SummaryRecord, error) {
	data, err := os.ReadFile(s.jsonPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrExternalTool, "metadata", "read summaries", s.jsonPath, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []SummaryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, services.Wrap(services.ErrValidation, "metadata", "parse summaries",
			fmt.Sprintf("%s is not a JSON array of records", s.jsonPath), err)
	}
	return records, nil
}

func (s *Store) appendText(block string) error {
	f, err := os.OpenFile(s.textPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "metadata", "open text log", s.textPath, err)
	}
	if _, err := f.WriteString(block); err != nil {
		_ = f.Close()
		return services.Wrap(services.ErrExternalTool, "metadata", "append text log", s.textPath, err)
	}
	if err := f.Close(); err != nil {
		return services.Wrap(services.ErrExternalTool, "metadata", "close text log", s.textPath, err)
	}
	return nil
}
