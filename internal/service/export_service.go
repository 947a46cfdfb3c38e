package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campushub/srms-api/internal/grading"
	"github.com/campushub/srms-api/internal/models"
	appErrors "github.com/campushub/srms-api/pkg/errors"
	"github.com/campushub/srms-api/pkg/export"
)

// Export formats supported by the transcript endpoint.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type semesterListReader interface {
	ListByStudent(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.StudentSemesters, error)
}

// ExportResult carries rendered transcript bytes with download metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a student's transcript. Access control is inherited
// from the semester service, so the same read rules apply as for the raw
// semester listing.
type ExportService struct {
	semesters semesterListReader
	csv       *export.CSVRenderer
	pdf       *export.PDFRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(semesters semesterListReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		semesters: semesters,
		csv:       export.NewCSVRenderer(),
		pdf:       export.NewPDFRenderer(),
		logger:    logger,
	}
}

// Transcript renders the student's full academic history as CSV or PDF.
func (s *ExportService) Transcript(ctx context.Context, actor *models.JWTClaims, studentID, format string) (*ExportResult, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	history, err := s.semesters.ListByStudent(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	transcript := buildTranscript(history)

	var content []byte
	var contentType string
	switch format {
	case FormatPDF:
		content, err = s.pdf.Render(transcript)
		contentType = "application/pdf"
	default:
		content, err = s.csv.Render(transcript)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}

	filename := fmt.Sprintf("transcript-%s.%s", transcript.RollNumber, format)
	if transcript.RollNumber == "" {
		filename = fmt.Sprintf("transcript-%s.%s", studentID, format)
	}
	return &ExportResult{Content: content, ContentType: contentType, Filename: filename}, nil
}

func buildTranscript(history *models.StudentSemesters) export.Transcript {
	transcript := export.Transcript{CGPA: grading.RecomputeCGPA(history.Semesters)}
	if history.Student != nil {
		transcript.StudentName = history.Student.Name
		transcript.Department = string(history.Student.Department)
		transcript.Year = history.Student.Year
		if history.Student.RollNumber != nil {
			transcript.RollNumber = *history.Student.RollNumber
		}
	}

	for _, sem := range history.Semesters {
		section := export.TranscriptSemester{
			Number:       sem.SemesterNumber,
			AcademicYear: sem.AcademicYear,
			Status:       string(sem.Status),
			SGPA:         sem.SGPA,
			Credits:      sem.TotalCredits,
		}
		for _, subject := range sem.Subjects {
			row := export.TranscriptRow{
				SubjectCode: subject.SubjectCode,
				SubjectName: subject.SubjectName,
				Credits:     subject.Credits,
				Grade:       string(subject.Grade),
			}
			if subject.Marks != nil {
				row.Marks = strconv.FormatFloat(*subject.Marks, 'f', -1, 64)
			}
			if subject.GradePoints != nil {
				row.GradePoints = strconv.Itoa(*subject.GradePoints)
			}
			section.Rows = append(section.Rows, row)
		}
		transcript.Semesters = append(transcript.Semesters, section)
	}
	return transcript
}
