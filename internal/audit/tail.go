package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TailFilter selects entries for display. Zero fields match everything.
type TailFilter struct {
	ContextID uint64
	Op        string
	Decision  string
	Since     time.Time
	Limit     int // keep only the last Limit matches
}

// TailSummary counts decisions among the selected entries.
type TailSummary struct {
	Total          int    `json:"total"`
	AllowCount     int    `json:"allow_count"`
	DenyCount      int    `json:"deny_count"`
	ErrorCount     int    `json:"error_count"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// TailResult holds filtered entries, oldest first.
type TailResult struct {
	Entries []AuditEntry `json:"entries"`
	Summary TailSummary  `json:"summary"`
}

// Tail reads the audit log and returns the entries matching filter.
func Tail(path string, filter TailFilter) (*TailResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &TailResult{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}
		if !filter.matches(entry) {
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	if filter.Limit > 0 && len(result.Entries) > filter.Limit {
		result.Entries = result.Entries[len(result.Entries)-filter.Limit:]
	}
	for _, e := range result.Entries {
		updateSummary(&result.Summary, e)
	}
	return result, nil
}

func (f TailFilter) matches(e AuditEntry) bool {
	if f.ContextID != 0 && e.ContextID != f.ContextID {
		return false
	}
	if f.Op != "" && e.Op != f.Op {
		return false
	}
	if f.Decision != "" && e.Decision != f.Decision {
		return false
	}
	if !f.Since.IsZero() {
		ts, err := time.Parse(TimestampFormat, e.Timestamp)
		if err != nil || ts.Before(f.Since) {
			return false
		}
	}
	return true
}

func updateSummary(s *TailSummary, entry AuditEntry) {
	s.Total++
	switch entry.Decision {
	case DecisionAllow:
		s.AllowCount++
	case DecisionDeny:
		s.DenyCount++
	case DecisionError:
		s.ErrorCount++
	}
	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
