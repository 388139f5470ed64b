package backend

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/core"
)

var exportHeader = []string{"id", "submitted", "patient", "cpf", "professional", "status", "reviewed_by", "reviewed", "review_note", "notes"}

// cell prevents spreadsheet applications from evaluating user input as a formula.
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func exportRecord(a *core.Assessment) []string {
	var reviewedBy, reviewed, note string
	if d := a.Decision(); d != nil {
		reviewedBy = d.ByName
		reviewed = d.At.Format(time.RFC3339)
		note = d.Note
	}
	return []string{
		a.ID,
		a.CreatedAt.Format(time.RFC3339),
		cell(a.PatientName),
		core.FormatCPF(a.PatientCPF),
		cell(a.ProfessionalName),
		string(a.Status),
		cell(reviewedBy),
		reviewed,
		cell(note),
		cell(a.Notes),
	}
}

// exportFilename returns a name like "avaliacoes_Campo_Grande_2024-03-01.csv".
func exportFilename(municipality string, now time.Time) string {
	municipality = strings.Join(strings.Fields(strings.ReplaceAll(municipality, "-", " ")), "_")
	return fmt.Sprintf("avaliacoes_%s_%s.csv", municipality, now.Format("2006-01-02"))
}

func export(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	status, err := statusFilter(req.URL.Query())
	if err != nil {
		return err
	}
	var filter = core.AssessmentFilter{
		Status: status,
	}

	list, err := ctx.db.ExportAssessments(ctx.Context(), ctx.Identity, filter)
	if err != nil {
		return err
	}

	ctx.StatusWritten()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(ctx.Identity.Municipality, time.Now())))

	var out = csv.NewWriter(w)
	if err := out.Write(exportHeader); err != nil {
		return err
	}
	for _, a := range list {
		if err := out.Write(exportRecord(a)); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
