// internal/intake/render-summary-pdf/handler.go
package rendersummarypdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"

	"github.com/go-pdf/fpdf"
)

const (
	Stage = "render-summary-pdf"
)

var (
	ErrPDFRenderFailed = errors.New("PDF_RENDER_FAILED")
)

const (
	labelWidth = 60.0
	lineHeight = 6.5
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": Stage}),
	}
}

// Execute lays out the fixed summary: business, address, owners, property
// and signature.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	pdf := fpdf.New("P", "mm", h.config.PageSize, "")
	pdf.SetCompression(h.config.Compress)
	pdf.SetTitle(fmt.Sprintf("Loan application #%d", input.ApplicationID), true)
	pdf.SetCreator("loan-intake", true)
	if !input.SubmittedAt.IsZero() {
		pdf.SetCreationDate(input.SubmittedAt)
	}
	pdf.SetMargins(15, 15, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Application #%d - page %d/{nb}", input.ApplicationID, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	form := input.Form

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, w.tr(fmt.Sprintf("Loan Application #%d", input.ApplicationID)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	meta := "Submitted " + input.SubmittedAt.UTC().Format("2006-01-02 15:04 MST")
	if input.SubmittedAt.IsZero() {
		meta = "Submitted"
	}
	if input.Rep != nil {
		meta += " - referred by " + input.Rep.Name
	}
	pdf.CellFormat(0, 6, w.tr(meta), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	b := form.Business
	w.section("Business Information")
	w.row("Legal name", b.LegalName)
	w.row("DBA", deref(b.DBA))
	w.row("Industry", b.Industry)
	w.row("Legal entity", b.LegalEntity)
	w.row("Business start date", b.StartDate)
	w.row("EIN", b.EIN)
	w.row("Business phone", deref(b.Phone))
	w.row("Website", deref(b.Website))
	w.row("Requested amount", models.FormatUSD(b.LoanAmount))
	w.row("Use of funds", deref(b.UseOfFunds))

	w.section("Company Address")
	w.row("Address", form.Address.OneLine())

	for i, o := range form.Owners {
		w.section(fmt.Sprintf("Owner %d", i+1))
		w.row("Name", o.FullName())
		w.row("Ownership %", o.OwnershipPct)
		w.row("Date of birth", o.DOB)
		w.row("SSN", o.MaskedSSN())
		w.row("Email", o.Email)
		w.row("Mobile", o.Mobile)
		if o.FICO != nil {
			w.row("FICO", fmt.Sprintf("%d", *o.FICO))
		}
		if o.Address != nil {
			w.row("Home address", o.Address.OneLine())
		}
	}

	p := form.Property
	w.section("Property")
	w.row("Owns real estate", p.OwnsRealEstate)
	w.row("Owns home", p.OwnsHome)
	w.row("Owns business location", p.OwnsBusinessLocation)
	w.row("Residence tenure", deref(p.ResidenceTenure))
	w.row("Business location tenure", deref(p.BusinessLocationTenure))

	s := form.Signature
	w.section("Signature")
	w.row("Signer", s.SignerName)
	w.row("Date", s.SignedDate)
	w.row("E-sign consent", yesNo(s.Consent))
	h.signature(w, s.ImageDataURL, input.ApplicationID)

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrPDFRenderFailed, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFRenderFailed, err)
	}

	h.logger.Info("summary pdf rendered", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"bytes":         buf.Len(),
	})
	return &Output{
		Filename: fmt.Sprintf("application-%d.pdf", input.ApplicationID),
		PDF:      buf.Bytes(),
	}, nil
}

func (h *Handler) signature(w *writer, dataURL string, applicationID int64) {
	imgType, data, err := DecodeImageDataURL(dataURL)
	if err != nil {
		h.logger.Warn("signature image skipped", map[string]interface{}{
			"applicationId": applicationID,
			"error":         err,
		})
		w.row("Signature image", "(not available)")
		return
	}

	opts := fpdf.ImageOptions{ImageType: imgType}
	w.pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(data))
	w.pdf.Ln(2)
	w.pdf.ImageOptions("signature", w.pdf.GetX(), w.pdf.GetY(), 60, 0, true, opts, 0, "")
}

// DecodeImageDataURL returns the fpdf image type and raw bytes of a PNG or
// JPEG data URL, checking that the bytes decode.
func DecodeImageDataURL(dataURL string) (string, []byte, error) {
	var imgType, payload string
	switch {
	case strings.HasPrefix(dataURL, "data:image/png;base64,"):
		imgType, payload = "PNG", strings.TrimPrefix(dataURL, "data:image/png;base64,")
	case strings.HasPrefix(dataURL, "data:image/jpeg;base64,"):
		imgType, payload = "JPG", strings.TrimPrefix(dataURL, "data:image/jpeg;base64,")
	default:
		return "", nil, errors.New("unsupported data URL")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	return imgType, data, nil
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) section(title string) {
	w.pdf.Ln(3)
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.SetFillColor(230, 236, 245)
	w.pdf.CellFormat(0, 8, w.tr(title), "", 1, "L", true, 0, "")
	w.pdf.Ln(1)
}

func (w *writer) row(label, value string) {
	if value == "" {
		value = "-"
	}
	w.pdf.SetFont("Helvetica", "B", 10)
	w.pdf.CellFormat(labelWidth, lineHeight, w.tr(label), "", 0, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.MultiCell(0, lineHeight, w.tr(value), "", "L", false)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
