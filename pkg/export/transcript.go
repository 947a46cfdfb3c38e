// Package export renders a student's academic transcript into downloadable
// formats.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// TranscriptRow is one subject line of a transcript.
type TranscriptRow struct {
	SubjectCode string
	SubjectName string
	Credits     int
	Marks       string
	Grade       string
	GradePoints string
}

// TranscriptSemester groups the rows of one semester.
type TranscriptSemester struct {
	Number       int
	AcademicYear string
	Status       string
	SGPA         float64
	Credits      int
	Rows         []TranscriptRow
}

// Transcript is the full render model for one student.
type Transcript struct {
	StudentName string
	RollNumber  string
	Department  string
	Year        int
	CGPA        float64
	Semesters   []TranscriptSemester
}

var transcriptHeaders = []string{"Semester", "Subject Code", "Subject", "Credits", "Marks", "Grade", "Grade Points"}

// CSVRenderer renders transcripts as CSV.
type CSVRenderer struct{}

// NewCSVRenderer builds a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render produces CSV encoded bytes for the transcript.
func (r *CSVRenderer) Render(t Transcript) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write(transcriptHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, sem := range t.Semesters {
		for _, row := range sem.Rows {
			record := []string{
				strconv.Itoa(sem.Number),
				row.SubjectCode,
				row.SubjectName,
				strconv.Itoa(row.Credits),
				row.Marks,
				row.Grade,
				row.GradePoints,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
		summary := []string{strconv.Itoa(sem.Number), "", "SGPA", strconv.Itoa(sem.Credits), "", "", formatFloat(sem.SGPA)}
		if err := writer.Write(summary); err != nil {
			return nil, fmt.Errorf("write csv summary: %w", err)
		}
	}
	if err := writer.Write([]string{"", "", "CGPA", "", "", "", formatFloat(t.CGPA)}); err != nil {
		return nil, fmt.Errorf("write csv footer: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFRenderer renders transcripts as a tabular PDF grade card.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render creates the PDF document.
func (r *PDFRenderer) Render(t Transcript) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "ACADEMIC TRANSCRIPT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Name: %s    Roll Number: %s", t.StudentName, t.RollNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Department: %s    Year: %d    CGPA: %s", t.Department, t.Year, formatFloat(t.CGPA)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{20, 28, 56, 18, 20, 20, 28}
	for _, sem := range t.Semesters {
		pdf.SetFont("Arial", "B", 11)
		title := fmt.Sprintf("Semester %d", sem.Number)
		if sem.AcademicYear != "" {
			title += " (" + sem.AcademicYear + ")"
		}
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 9)
		for i, header := range transcriptHeaders {
			pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range sem.Rows {
			cells := []string{
				strconv.Itoa(sem.Number),
				row.SubjectCode,
				row.SubjectName,
				strconv.Itoa(row.Credits),
				row.Marks,
				row.Grade,
				row.GradePoints,
			}
			for i, cell := range cells {
				pdf.CellFormat(widths[i], 6, cell, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("SGPA: %s    Credits: %d    Status: %s", formatFloat(sem.SGPA), sem.Credits, sem.Status), "", 1, "R", false, 0, "")
		pdf.Ln(2)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
