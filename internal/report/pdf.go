package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"forensia/pkg/logger"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimeters, A4 portrait.
const (
	marginLeft   = 18.0
	marginTop    = 20.0
	marginRight  = 18.0
	marginBottom = 20.0

	imageBoxWidth  = 170.0
	imageBoxHeight = 110.0
	logoSide       = 35.0
)

// ImageFetcher loads raw image bytes for an object-store key.
type ImageFetcher func(ctx context.Context, key string) ([]byte, error)

// Renderer turns a block sequence into PDF bytes. A fetch or decode failure
// on a single image never aborts the document; the failure is annotated
// inline and rendering continues.
type Renderer struct {
	fetch ImageFetcher
}

func NewRenderer(fetch ImageFetcher) *Renderer {
	return &Renderer{fetch: fetch}
}

func (r *Renderer) Render(ctx context.Context, blocks []Block) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	bodyWidth := pageWidth - marginLeft - marginRight

	// ensure keeps a block's first line off the very bottom of a page.
	ensure := func(height float64) {
		if pdf.GetY()+height > pageHeight-marginBottom {
			pdf.AddPage()
		}
	}

	for _, b := range blocks {
		switch b.Kind {
		case BlockLogo:
			r.placeLogo(ctx, pdf, b.ImageKey, pageWidth)

		case BlockTitle:
			pdf.SetFont("Helvetica", "B", 20)
			pdf.CellFormat(0, 10, tr(b.Text), "", 1, "C", false, 0, "")

		case BlockHeading:
			ensure(24)
			pdf.Ln(3)
			pdf.SetFont("Helvetica", "BU", 16)
			pdf.CellFormat(0, 9, tr(b.Text), "", 1, "L", false, 0, "")
			pdf.Ln(2)

		case BlockSubheading:
			ensure(16)
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(0, 8, tr(b.Text), "", 1, "L", false, 0, "")

		case BlockField:
			ensure(8)
			pdf.SetFont("Helvetica", "B", 12)
			label := tr(b.Label) + " "
			pdf.Cell(pdf.GetStringWidth(label)+1, 6, label)
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, tr(b.Text), "", "L", false)

		case BlockLabel:
			ensure(10)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(0, 6, tr(b.Text), "", 1, "L", false, 0, "")

		case BlockParagraph:
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, tr(b.Text), "", "J", false)
			pdf.Ln(2)

		case BlockBullet:
			pdf.SetFont("Helvetica", "", 11)
			pdf.SetX(marginLeft + 6)
			pdf.MultiCell(bodyWidth-6, 5.5, tr("- "+b.Text), "", "L", false)

		case BlockChartTooth:
			ensure(8)
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetX(marginLeft + 6)
			pdf.CellFormat(0, 6, tr(b.Text), "", 1, "L", false, 0, "")

		case BlockChartDetail:
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetX(marginLeft + 12)
			pdf.MultiCell(bodyWidth-12, 5, tr(b.Text), "", "L", false)

		case BlockImage:
			r.placeImage(ctx, pdf, tr, b.ImageKey, pageWidth, pageHeight)

		case BlockNote:
			pdf.SetFont("Helvetica", "I", 12)
			pdf.MultiCell(0, 6, tr(b.Text), "", "L", false)
			pdf.Ln(1)

		case BlockFootnote:
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(0, 4.5, tr(b.Text), "", "L", false)

		case BlockSignature:
			ensure(26)
			pdf.SetFont("Helvetica", "", 12)
			pdf.CellFormat(0, 6, "_________________________________", "", 1, "C", false, 0, "")
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(0, 6, tr(b.Text), "", 1, "C", false, 0, "")

		case BlockSpacer:
			pdf.Ln(b.Gap)

		case BlockPageBreak:
			pdf.AddPage()
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// placeLogo draws the letterhead logo centered at the top. A missing or
// broken logo is skipped silently; it is decoration, not case data.
func (r *Renderer) placeLogo(ctx context.Context, pdf *fpdf.Fpdf, key string, pageWidth float64) {
	data, err := r.fetch(ctx, key)
	if err != nil {
		logger.Debug("Report logo unavailable, skipping", "key", key, "err", err)
		return
	}
	info := registerImage(pdf, key, data)
	if info == nil {
		logger.Debug("Report logo not renderable, skipping", "key", key)
		return
	}

	w, h := info.Extent()
	scale := min(logoSide/w, logoSide/h)
	drawW, drawH := w*scale, h*scale
	x := (pageWidth - drawW) / 2
	pdf.ImageOptions(key, x, pdf.GetY(), drawW, drawH, false, imageOptions(key), 0, "")
	pdf.SetY(pdf.GetY() + drawH + 4)
}

// placeImage draws one evidence image scaled into the standard box and
// forces a page break after it, so each image gets a page of its own.
func (r *Renderer) placeImage(
	ctx context.Context,
	pdf *fpdf.Fpdf,
	tr func(string) string,
	key string,
	pageWidth, pageHeight float64,
) {
	annotate := func(reason string) {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("[image %s unavailable: %s]", path.Base(key), reason)), "", "L", false)
	}

	data, err := r.fetch(ctx, key)
	if err != nil {
		logger.Warn("Evidence image fetch failed", "key", key, "err", err)
		annotate("could not be loaded")
		return
	}
	info := registerImage(pdf, key, data)
	if info == nil {
		logger.Warn("Evidence image not renderable", "key", key)
		annotate("unsupported or corrupt file")
		return
	}

	w, h := info.Extent()
	scale := min(imageBoxWidth/w, imageBoxHeight/h)
	drawW, drawH := w*scale, h*scale

	if pdf.GetY()+drawH > pageHeight-marginBottom {
		pdf.AddPage()
	}
	x := (pageWidth - drawW) / 2
	pdf.ImageOptions(key, x, pdf.GetY(), drawW, drawH, false, imageOptions(key), 0, "")
	pdf.AddPage()
}

// registerImage feeds image bytes to the document and recovers from decode
// failures, which fpdf records as a sticky document error.
func registerImage(pdf *fpdf.Fpdf, key string, data []byte) *fpdf.ImageInfoType {
	opts := imageOptions(key)
	if opts.ImageType == "" {
		return nil
	}
	info := pdf.RegisterImageOptionsReader(key, opts, bytes.NewReader(data))
	if pdf.Err() {
		pdf.ClearError()
		return nil
	}
	return info
}

func imageOptions(key string) fpdf.ImageOptions {
	var imageType string
	switch strings.ToLower(strings.TrimPrefix(path.Ext(key), ".")) {
	case "png":
		imageType = "PNG"
	case "jpg", "jpeg":
		imageType = "JPG"
	case "gif":
		imageType = "GIF"
	}
	return fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
}
