package library

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SeedResult summarizes a catalog preload.
type SeedResult struct {
	Added int      // rows loaded into the catalog
	Bad   []string // per-row failures, "line N: reason"
}

// SeedFromCSV preloads the catalog from a CSV file of
// isbn,title,author,quantity rows. Lines starting with # are comments.
// Rows that fail to parse are collected in the result, not fatal; an
// unreadable file is.
func SeedFromCSV(svc Service, path string) (*SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = 4
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	res := &SeedResult{}
	for i, rec := range records {
		line := i + 1
		isbn := strings.TrimSpace(rec[0])
		title := strings.TrimSpace(rec[1])
		author := strings.TrimSpace(rec[2])
		qty, convErr := strconv.Atoi(strings.TrimSpace(rec[3]))

		switch {
		case isbn == "" || title == "":
			res.Bad = append(res.Bad, fmt.Sprintf("line %d: missing isbn or title", line))
		case convErr != nil:
			res.Bad = append(res.Bad, fmt.Sprintf("line %d: bad quantity %q", line, rec[3]))
		case qty <= 0:
			res.Bad = append(res.Bad, fmt.Sprintf("line %d: quantity must be positive", line))
		default:
			if err := svc.AddBook(isbn, title, author, qty); err != nil {
				res.Bad = append(res.Bad, fmt.Sprintf("line %d: %v", line, err))
			} else {
				res.Added++
			}
		}
	}
	return res, nil
}
