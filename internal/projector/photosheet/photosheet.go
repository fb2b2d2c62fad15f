// Package photosheet lays out the receipt photos of the week on a landscape
// PDF contact sheet, three per page.
package photosheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-pdf/fpdf"

	"notaspese/internal/core"
	"notaspese/internal/photos"
)

const (
	PerPage         = 3
	PlaceholderText = "photo load error"
	captionRunes    = 40

	margin        = 10.0
	gutter        = 8.0
	captionTop    = 18.0
	captionHeight = 8.0
	photoTop      = captionTop + captionHeight + 4
	fontFamily    = "Helvetica"
)

// Fetcher downloads a photo by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (photos.Photo, error)
}

// Slot describes one placed entry.
type Slot struct {
	Page    int
	Caption string
	URL     string
	Loaded  bool
}

type Result struct {
	PDF   []byte
	Pages int
	Slots []Slot
}

type Projector struct {
	fetcher Fetcher
}

func New(fetcher Fetcher) *Projector {
	return &Projector{fetcher: fetcher}
}

// Caption is the text drawn above a photo.
func Caption(e core.Entry) string {
	return truncate(fmt.Sprintf("%s - %s - %s", e.Date.Display(), e.Amount.Display(), e.Description), captionRunes)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Render places every entry with a photo. A photo that cannot be fetched or
// decoded leaves a placeholder in its slot; the document is still produced.
func (p *Projector) Render(ctx context.Context, entries []core.Entry) (Result, error) {
	var withPhotos []core.Entry
	for _, e := range entries {
		if e.HasPhoto() {
			withPhotos = append(withPhotos, e)
		}
	}
	if len(withPhotos) == 0 {
		return Result{}, core.ErrNoPhotos
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	slotW := (pageW - 2*margin - float64(PerPage-1)*gutter) / PerPage
	photoH := pageH - photoTop - margin

	res := Result{Slots: make([]Slot, 0, len(withPhotos))}
	for i, e := range withPhotos {
		pos := i % PerPage
		if pos == 0 {
			pdf.AddPage()
			res.Pages++
		}
		x := margin + float64(pos)*(slotW+gutter)
		slot := Slot{Page: res.Pages, Caption: Caption(e), URL: e.PhotoURL}

		pdf.SetFont(fontFamily, "B", 10)
		pdf.SetXY(x, captionTop)
		pdf.CellFormat(slotW, captionHeight, tr(slot.Caption), "", 0, "L", false, 0, "")

		if err := p.place(ctx, pdf, i, e.PhotoURL, x, slotW, photoH); err != nil {
			slog.WarnContext(ctx, "Photo slot left as placeholder",
				"url", e.PhotoURL,
				"page", res.Pages,
				"timeout", core.IsTimeout(err),
				"error", err)
			pdf.SetFont(fontFamily, "I", 12)
			pdf.SetXY(x, photoTop+photoH/2)
			pdf.CellFormat(slotW, 10, PlaceholderText, "1", 0, "C", false, 0, "")
		} else {
			slot.Loaded = true
		}
		res.Slots = append(res.Slots, slot)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Result{}, fmt.Errorf("write photo sheet: %w", err)
	}
	res.PDF = buf.Bytes()

	slog.InfoContext(ctx, "Photo sheet rendered",
		"photos", len(withPhotos),
		"pages", res.Pages,
		"bytes", len(res.PDF))
	return res, nil
}

// place fetches the photo and fits it inside the slot box, keeping its
// aspect ratio.
func (p *Projector) place(ctx context.Context, pdf *fpdf.Fpdf, i int, url string, x, boxW, boxH float64) error {
	photo, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("photo-%d", i)
	opts := fpdf.ImageOptions{ImageType: photo.Type}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(photo.Data))
	if !pdf.Ok() || info == nil {
		err := pdf.Error()
		pdf.ClearError()
		if err == nil {
			err = errors.New("image not registered")
		}
		return &core.PhotoFetchError{URL: url, Err: fmt.Errorf("decode image: %w", err)}
	}

	w, h := fit(info.Width(), info.Height(), boxW, boxH)
	pdf.ImageOptions(name, x+(boxW-w)/2, photoTop, w, h, false, opts, 0, "")
	return nil
}

func fit(w, h, boxW, boxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return boxW, boxH
	}
	scale := min(boxW/w, boxH/h)
	return w * scale, h * scale
}
