package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

func readLines(t *testing.T, pattern string) []jsonrequest.Report {
	t.Helper()
	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("Glob(%q) error = %v", pattern, err)
	}
	var out []jsonrequest.Report
	for _, f := range files {
		fh, err := os.Open(f)
		if err != nil {
			t.Fatalf("Open(%q) error = %v", f, err)
		}
		sc := bufio.NewScanner(fh)
		for sc.Scan() {
			var r jsonrequest.Report
			if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
				t.Fatalf("line %q is not a report: %v", sc.Text(), err)
			}
			out = append(out, r)
		}
		fh.Close()
	}
	return out
}

func TestJournalSplitsByHostAndOutcome(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, 16, 1, 0)

	j.Record(jsonrequest.Report{ID: "a", URL: "http://api.example.com:8080/x", Outcome: jsonrequest.OutcomeComplete, Value: 1.0})
	j.Record(jsonrequest.Report{ID: "b", URL: "http://api.example.com:8080/y", Outcome: jsonrequest.OutcomeError, Message: "not ok", Status: 404})
	j.Record(jsonrequest.Report{ID: "c", URL: "http://api.example.com:8080/z", Outcome: jsonrequest.OutcomeComplete})

	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	date := time.Now().UTC().Format("2006-01-02")
	complete := readLines(t, filepath.Join(dir, date, "api.example.com_8080", "complete", "*.jsonl"))
	if len(complete) != 2 || complete[0].ID != "a" || complete[1].ID != "c" {
		t.Fatalf("complete records = %+v; want a then c", complete)
	}
	errs := readLines(t, filepath.Join(dir, date, "api.example.com_8080", "error", "*.jsonl"))
	if len(errs) != 1 || errs[0].Message != "not ok" || errs[0].Status != 404 {
		t.Fatalf("error records = %+v; want one not ok", errs)
	}
}

func TestJournalTruncatesLargeValues(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, 4, 1, 4)
	j.Record(jsonrequest.Report{ID: "big", URL: "http://h/", Outcome: jsonrequest.OutcomeComplete, Value: "a long string value"})
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*", "h", "complete", "*.jsonl"))
	if len(files) != 1 {
		t.Fatalf("journal files = %v; want 1", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("record %q: %v", data, err)
	}
	if !rec.ValueTruncated || rec.Value != `"a l` || rec.ValueSize != len(`"a long string value"`) {
		t.Fatalf("record = %+v; want truncated value", rec)
	}
}

func TestJournalDropsAfterClose(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, 4, 1, 0)
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	j.Record(jsonrequest.Report{ID: "late", URL: "http://h/", Outcome: jsonrequest.OutcomeComplete})

	if got := readLines(t, filepath.Join(dir, "*", "*", "*", "*.jsonl")); len(got) != 0 {
		t.Fatalf("records after Close = %+v; want none", got)
	}
}

func TestWriterRejectsAfterClose(t *testing.T) {
	w := NewWriter(t.TempDir(), "h/complete", 1, 1, "run")
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Write(map[string]int{"a": 1}); err == nil {
		t.Fatal("Write() after Close = nil; want error")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestHostSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://API.example.com/x", "api.example.com"},
		{"http://127.0.0.1:8080/", "127.0.0.1_8080"},
		{"http://[::1]:80/", "__1_80"},
		{"/relative", "unknown"},
		{"%zz", "unknown"},
	}
	for _, tt := range tests {
		if got := HostSegment(tt.in); got != tt.want {
			t.Fatalf("HostSegment(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
