package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/bsfellows/cbt-backend/internal/exam"
	"github.com/bsfellows/cbt-backend/internal/grading"
)

// GET /admin/exams/{examID}/export — graded results as a spreadsheet.
func ExportResultsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		e, err := store.GetExam(r.Context(), examID)
		if err != nil {
			httpError(w, err)
			return
		}
		attempts, err := store.ListAttempts(r.Context(), exam.AttemptListOpts{
			ExamID: examID,
			Status: exam.StatusGraded,
			Limit:  10000,
		})
		if err != nil {
			httpError(w, err)
			return
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := "Results"
		f.SetSheetName(f.GetSheetName(0), sheet)

		headers := []string{"Matric Number", "Student", "Score", "Total Points", "Percentage", "Passed", "Submitted At"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
		}

		for row, a := range attempts {
			p, err := store.GetProfile(r.Context(), a.StudentID)
			if err != nil {
				httpError(w, err)
				return
			}
			pct := grading.Percentage(a.Score, a.TotalPoints)
			values := []interface{}{
				p.MatricNumber,
				p.FullName,
				a.Score,
				a.TotalPoints,
				fmt.Sprintf("%.1f%%", pct),
				grading.Passed(pct, e.PassingScore),
				time.Unix(a.SubmittedAt, 0).UTC().Format(time.RFC3339),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				_ = f.SetCellValue(sheet, cell, v)
			}
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", e.Title+"-results.xlsx"))
		if err := f.Write(w); err != nil {
			http.Error(w, "write spreadsheet: "+err.Error(), http.StatusInternalServerError)
		}
	}
}
