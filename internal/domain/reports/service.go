package reports

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"workforce/internal/domain/core"
	"workforce/internal/platform/logging"
)

type ProjectReader interface {
	Get(ctx context.Context, id int64) (*core.Project, error)
}

type RosterReader interface {
	AssignedEmployees(ctx context.Context, projectID int64) ([]core.Employee, error)
}

// Service renders project rosters as PDF documents.
type Service struct {
	projects ProjectReader
	roster   RosterReader
	dir      string
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(projects ProjectReader, roster RosterReader, dir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{projects: projects, roster: roster, dir: dir, logger: logger, now: time.Now}
}

// RosterPDF renders the project header and its active employees. Salary is only printed when
// includeSalary is set.
func (s *Service) RosterPDF(ctx context.Context, projectID int64, includeSalary bool) ([]byte, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	employees, err := s.roster.AssignedEmployees(ctx, projectID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Roster %s", p.Name), true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Project roster: %s", p.Name))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Manager: %s", p.Manager))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Client: %s", p.Client))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deadline: %s", p.Deadline.Format(core.DateLayout)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", s.now().UTC().Format(time.RFC3339)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(30, 8, "ID", "1", 0, "", false, 0, "")
	pdf.CellFormat(60, 8, "Name", "1", 0, "", false, 0, "")
	pdf.CellFormat(60, 8, "Email", "1", 0, "", false, 0, "")
	if includeSalary {
		pdf.CellFormat(30, 8, "Salary", "1", 0, "R", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, emp := range employees {
		pdf.CellFormat(30, 7, emp.ID, "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, emp.Name, "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, emp.Email, "1", 0, "", false, 0, "")
		if includeSalary {
			pdf.CellFormat(30, 7, emp.Salary.StringFixed(2), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(employees) == 0 {
		pdf.Cell(0, 8, "No employees assigned")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render roster %d: %w", projectID, err)
	}
	return buf.Bytes(), nil
}

// ArchiveRoster writes the roster under the reports directory and returns the file path.
func (s *Service) ArchiveRoster(ctx context.Context, projectID int64, includeSalary bool) (string, error) {
	data, err := s.RosterPDF(ctx, projectID, includeSalary)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.dir, "rosters")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("project-%d-%s.pdf", projectID, s.now().UTC().Format("20060102T150405")))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	logging.For(ctx, s.logger).Info("roster archived", zap.Int64("projectId", projectID), zap.String("path", path))
	return path, nil
}
