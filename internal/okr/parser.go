package okr

import (
	"regexp"
	"strings"
)

const (
	objectiveMarker = "OBJETIVO"
	krMarker        = "KR"

	// missingValue fills value cells absent from a short KR row.
	missingValue = "0"
)

var krMarkerPattern = regexp.MustCompile(`(?i)kr`)

// parseAcc is the accumulator threaded through the row fold.
type parseAcc struct {
	objective *string
	records   []KeyResultRecord
}

// Parse folds the table's rows into KR records in source order.
//
// A row whose first cell contains OBJETIVO (case-insensitive) opens a new
// objective labelled by its second cell, or by the first cell when there is
// no second one. A row whose first cell contains KR emits a record under the
// current objective. The objective check runs first. Every other row,
// including rows with no cells, is consumed silently. Parse never fails.
func Parse(table Table) []KeyResultRecord {
	var acc parseAcc
	for i, row := range table {
		acc = acc.step(i+1, row)
	}
	return acc.records
}

func (acc parseAcc) step(rowNum int, row []string) parseAcc {
	if len(row) == 0 {
		return acc
	}
	marker := strings.ToUpper(row[0])
	switch {
	case strings.Contains(marker, objectiveMarker):
		label := row[0]
		if len(row) > 1 {
			label = row[1]
		}
		acc.objective = &label
	case strings.Contains(marker, krMarker):
		acc.records = append(acc.records, KeyResultRecord{
			Objective:    acc.objective,
			ID:           ParseID(row[0]),
			Description:  cell(row, 1, ""),
			InitialValue: cell(row, 2, missingValue),
			CurrentValue: cell(row, 3, missingValue),
			Target:       cell(row, 4, missingValue),
			Row:          rowNum,
		})
	}
	return acc
}

// ParseID upper-cases s, strips every "KR" and trims the rest, so "KR 1",
// "kr1" and "1" all name the same key result, as do "KR 2b" and "2B".
func ParseID(s string) string {
	return strings.TrimSpace(krMarkerPattern.ReplaceAllString(strings.ToUpper(s), ""))
}

func cell(row []string, i int, fallback string) string {
	if i < len(row) {
		return row[i]
	}
	return fallback
}
