package handlers

import (
	"bytes"
	"fmt"
	"image/png"
	"net/http"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

const (
	labelWidth  = 300
	labelHeight = 100
)

// RenderBarcode encodes value as a Code128 PNG label.
func RenderBarcode(value string) ([]byte, error) {
	bc, err := code128.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode barcode: %w", err)
	}
	width := labelWidth
	if dx := bc.Bounds().Dx(); dx > width {
		width = dx
	}
	scaled, err := barcode.Scale(bc, width, labelHeight)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func labelValue(p *models.Product) string {
	if p.Barcode != nil && *p.Barcode != "" {
		return *p.Barcode
	}
	if p.SKU != nil && *p.SKU != "" {
		return *p.SKU
	}
	return ""
}

// Barcode serves the product label, using the sku when there is no barcode.
func (h *ProductHandler) Barcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	value := labelValue(p)
	if value == "" {
		httpx.WriteError(w, r, httpx.NewError(http.StatusNotFound, httpx.CodeNotFound,
			fmt.Sprintf("Product '%s' has no barcode or SKU", p.Name)))
		return
	}
	img, err := RenderBarcode(value)
	if err != nil {
		httpx.WriteError(w, r, httpx.Validation(err.Error(), nil))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
