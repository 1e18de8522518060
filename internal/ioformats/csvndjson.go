package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"trendcrawl/internal/crawler"
)

// Seeds is the result of reading a seed list. Rejected holds entries that
// are not absolute http(s) URLs; they are reported, not crawled.
type Seeds struct {
	URLs     []string
	Rejected []string
}

// ReadSeeds reads seed URLs from a CSV (with a "url" header), NDJSON
// (raw strings or {"url": ...}) or plain text file (one URL per line, #
// comments). Unknown extensions are tried as CSV, then NDJSON.
// Duplicates are dropped; order is preserved.
func ReadSeeds(path string) (Seeds, error) {
	raw, err := ReadURLs(path)
	if err != nil {
		return Seeds{}, err
	}
	return ValidateSeeds(raw), nil
}

// ValidateSeeds checks well-formedness only; reachability is left to the crawl.
func ValidateSeeds(raw []string) Seeds {
	var s Seeds
	seen := map[string]bool{}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		if _, err := crawler.ParseSeed(r); err != nil {
			s.Rejected = append(s.Rejected, r)
			continue
		}
		s.URLs = append(s.URLs, r)
	}
	return s
}

// ReadURLs reads the raw entries of a seed file without validating them.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(f)
	case ".ndjson", ".jsonl":
		return readNDJSON(f)
	case ".txt":
		return readLines(f)
	}
	// try csv then ndjson
	if urls, err := readCSV(f); err == nil && len(urls) > 0 {
		return urls, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return readNDJSON(f)
}

func readCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "url") {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, errors.New("csv must contain a 'url' header column")
	}
	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if u := strings.TrimSpace(row[col]); u != "" {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func readNDJSON(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var obj struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal([]byte(line), &obj); err == nil && obj.URL != "" {
				out = append(out, obj.URL)
				continue
			}
		}
		var s string
		if strings.HasPrefix(line, `"`) && json.Unmarshal([]byte(line), &s) == nil {
			line = s
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found in ndjson")
	}
	return out, nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found")
	}
	return out, nil
}

// WriteNDJSON writes each item as one JSON line.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for i, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
