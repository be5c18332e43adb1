package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jywlabs/kickoff/internal/doc"
)

// TaskColumns is the CSV header, in column order.
var TaskColumns = []string{"task_id", "title", "type", "priority", "estimate_hours", "depends_on", "acceptance_criteria"}

// Join delimiters for list-valued task columns.
const (
	DependsOnSep = ", "
	CriteriaSep  = " | "
)

// TaskRows flattens tasks into CSV records, in document order.
func TaskRows(td doc.TasksDoc) [][]string {
	rows := make([][]string, 0, len(td.Tasks))
	for _, t := range td.Tasks {
		rows = append(rows, []string{
			t.TaskID,
			t.Title,
			t.Type,
			t.Priority,
			formatHours(t.EstimateHours),
			strings.Join(t.DependsOn, DependsOnSep),
			strings.Join(t.AcceptanceCriteria, CriteriaSep),
		})
	}
	return rows
}

// TasksCSV renders the backlog as CSV with a header row.
func TasksCSV(td doc.TasksDoc) (string, error) {
	var buf bytes.Buffer
	if err := WriteTasksCSV(&buf, td); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteTasksCSV writes the backlog as CSV with a header row to w.
func WriteTasksCSV(w io.Writer, td doc.TasksDoc) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TaskColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(TaskRows(td)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// ParseTasksCSV reads CSV produced by TasksCSV back into tasks.
// The document title is not part of the CSV and is left empty.
func ParseTasksCSV(r io.Reader) (doc.TasksDoc, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(TaskColumns)

	records, err := cr.ReadAll()
	if err != nil {
		return doc.TasksDoc{}, fmt.Errorf("read tasks csv: %w", err)
	}
	if len(records) == 0 {
		return doc.TasksDoc{}, fmt.Errorf("read tasks csv: missing header")
	}
	if strings.Join(records[0], ",") != strings.Join(TaskColumns, ",") {
		return doc.TasksDoc{}, fmt.Errorf("read tasks csv: unexpected header %v", records[0])
	}

	td := doc.TasksDoc{Tasks: make([]doc.Task, 0, len(records)-1)}
	for i, rec := range records[1:] {
		hours, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return doc.TasksDoc{}, fmt.Errorf("read tasks csv: row %d estimate_hours: %w", i+1, err)
		}
		td.Tasks = append(td.Tasks, doc.Task{
			TaskID:             rec[0],
			Title:              rec[1],
			Type:               rec[2],
			Priority:           rec[3],
			EstimateHours:      hours,
			DependsOn:          split(rec[5], DependsOnSep),
			AcceptanceCriteria: split(rec[6], CriteriaSep),
		})
	}
	return td, nil
}

func split(s, sep string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, sep)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'g', -1, 64)
}
