package decisionlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"llm-decision-engine/internal/types"
)

var mu sync.Mutex

func logDir() string {
	if v := os.Getenv("DECISION_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), "decisions", t.UTC().Format("2006-01-02")+".jsonl")
}

// Append writes one decision record to the current day's JSONL file.
func Append(rec *types.DecisionRecord) error {
	mu.Lock()
	defer mu.Unlock()
	p := dailyFilepath(rec.Timestamp)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(rec)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips decision log files older than retentionDays and
// removes the originals. A zero or negative retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := os.Stat(p)
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		return compress(p)
	})
}

func compress(p string) error {
	gz := p + ".gz"
	if _, err := os.Stat(gz); err == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return nil
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		return nil
	}
	_ = gw.Close()
	_ = out.Close()
	return os.Remove(p)
}
