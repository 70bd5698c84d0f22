package questionbank

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

const validBank = `{
  "test_info": {"title": "Database Fundamentals", "version": "2.1"},
  "questions": [
    {
      "id": 1,
      "category": "SQL",
      "question": "Which clause filters rows?",
      "options": {"a": "WHERE", "b": "ORDER BY", "c": "GROUP BY", "d": "HAVING"},
      "correct_answer": "a"
    },
    {
      "id": 2,
      "category": "Normalization",
      "question": "Which normal form removes partial dependencies?",
      "options": {"a": "1NF", "b": "2NF", "c": "3NF", "d": "BCNF"},
      "correct_answer": "b",
      "explanation": "2NF requires full functional dependency on the key."
    }
  ]
}`

func TestLoadBank(t *testing.T) {
	loader := NewLoader()

	bank, err := loader.LoadBank(writeFile(t, "bank.json", validBank))
	if err != nil {
		t.Fatalf("LoadBank() error = %v", err)
	}
	if bank.TestInfo.Version != "2.1" {
		t.Errorf("TestInfo.Version = %q, want 2.1", bank.TestInfo.Version)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("len(Questions) = %d, want 2", len(bank.Questions))
	}
	if q := bank.ByID(2); q == nil || q.CorrectAnswer != "b" {
		t.Errorf("ByID(2) = %+v, want correct_answer b", q)
	}

	// Categories derived when absent, sorted.
	want := []string{"Normalization", "SQL"}
	if len(bank.Categories) != len(want) {
		t.Fatalf("Categories = %v, want %v", bank.Categories, want)
	}
	for i := range want {
		if bank.Categories[i] != want[i] {
			t.Fatalf("Categories = %v, want %v", bank.Categories, want)
		}
	}
}

func TestLoadBankRejectsInvalid(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"questions": [`},
		{"empty question list", `{"questions": []}`},
		{
			"duplicate ids",
			`{"questions": [
			  {"id": 1, "category": "c", "question": "q",
			   "options": {"a":"1","b":"2","c":"3","d":"4"}, "correct_answer": "a"},
			  {"id": 1, "category": "c", "question": "q",
			   "options": {"a":"1","b":"2","c":"3","d":"4"}, "correct_answer": "a"}
			]}`,
		},
		{
			"ids not contiguous from 1",
			`{"questions": [
			  {"id": 2, "category": "c", "question": "q",
			   "options": {"a":"1","b":"2","c":"3","d":"4"}, "correct_answer": "a"}
			]}`,
		},
		{
			"missing option key",
			`{"questions": [
			  {"id": 1, "category": "c", "question": "q",
			   "options": {"a":"1","b":"2","c":"3"}, "correct_answer": "a"}
			]}`,
		},
		{
			"extra option key",
			`{"questions": [
			  {"id": 1, "category": "c", "question": "q",
			   "options": {"a":"1","b":"2","c":"3","d":"4","e":"5"}, "correct_answer": "a"}
			]}`,
		},
		{
			"empty option text",
			`{"questions": [
			  {"id": 1, "category": "c", "question": "q",
			   "options": {"a":"1","b":"","c":"3","d":"4"}, "correct_answer": "a"}
			]}`,
		},
		{
			"correct answer outside a-d",
			`{"questions": [
			  {"id": 1, "category": "c", "question": "q",
			   "options": {"a":"1","b":"2","c":"3","d":"4"}, "correct_answer": "e"}
			]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadBank(writeFile(t, "bank.json", tt.content))
			if err == nil {
				t.Fatal("LoadBank() expected error, got nil")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("LoadBank() error = %T, want *ConfigError", err)
			}
		})
	}
}

func TestLoadBankMissingFile(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.LoadBank(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("LoadBank() on a missing file expected error")
	}
}

func TestLoadScale(t *testing.T) {
	loader := NewLoader()

	// Deliberately unsorted; the loader must order descending.
	scale, err := loader.LoadScale(writeFile(t, "scale.json", `{
	  "entries": [
	    {"grade": "3.0", "min_percentage": 50, "description": "satisfactory"},
	    {"grade": "5.0", "min_percentage": 90, "description": "excellent"},
	    {"grade": "2.0", "min_percentage": 0, "description": "fail"},
	    {"grade": "4.0", "min_percentage": 70, "description": "good"}
	  ]
	}`))
	if err != nil {
		t.Fatalf("LoadScale() error = %v", err)
	}

	wantOrder := []string{"5.0", "4.0", "3.0", "2.0"}
	for i, want := range wantOrder {
		if scale.Entries[i].Label != want {
			t.Fatalf("Entries[%d].Label = %q, want %q", i, scale.Entries[i].Label, want)
		}
	}

	lookups := []struct {
		percentage float64
		want       string
	}{
		{100, "5.0"},
		{90, "5.0"},
		{89.99, "4.0"},
		{70, "4.0"},
		{50, "3.0"},
		{49.99, "2.0"},
		{0, "2.0"},
	}
	for _, tt := range lookups {
		if got := scale.Lookup(tt.percentage); got.Label != tt.want {
			t.Errorf("Lookup(%.2f) = %q, want %q", tt.percentage, got.Label, tt.want)
		}
	}
}

func TestLoadScaleRejectsInvalid(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name    string
		content string
	}{
		{"no entries", `{"entries": []}`},
		{
			"no zero floor",
			`{"entries": [{"grade": "5.0", "min_percentage": 90}]}`,
		},
		{
			"duplicate threshold",
			`{"entries": [
			  {"grade": "5.0", "min_percentage": 90},
			  {"grade": "4.0", "min_percentage": 90},
			  {"grade": "2.0", "min_percentage": 0}
			]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loader.LoadScale(writeFile(t, "scale.json", tt.content)); err == nil {
				t.Fatal("LoadScale() expected error, got nil")
			}
		})
	}
}
