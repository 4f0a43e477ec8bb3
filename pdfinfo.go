package themepdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFInfo summarizes a rendered PDF. Sizes are those of the first page, in
// points.
type PDFInfo struct {
	Pages  int
	Width  float64
	Height float64
}

// InspectPDF reads page count and first-page size from data.
func InspectPDF(data []byte) (PDFInfo, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return PDFInfo{}, fmt.Errorf("%w: missing %s header", ErrInvalidPDF, pdfMagic)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return PDFInfo{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if len(dims) == 0 {
		return PDFInfo{}, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}

	return PDFInfo{
		Pages:  len(dims),
		Width:  dims[0].Width,
		Height: dims[0].Height,
	}, nil
}

// IsA4 reports whether the first page matches the render paper size within
// one point.
func (i PDFInfo) IsA4() bool {
	w, h := DefaultPageGeometry().PaperPoints()
	return within(i.Width, w, 1) && within(i.Height, h, 1)
}

func within(a, b, tol float64) bool {
	d := a - b
	return d <= tol && d >= -tol
}
