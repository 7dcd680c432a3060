package services

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	titleStyle  = props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Center}
	centerStyle = props.Text{Size: 9, Align: align.Center}
	headerStyle = props.Text{Size: 9, Style: fontstyle.Bold}
	headerRight = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	rightStyle  = props.Text{Size: 9, Align: align.Right}
	boldRight   = props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}
	bodyStyle   = props.Text{Size: 9}
)

func money(v float64) string { return fmt.Sprintf("%.2f", v) }

// RenderReceiptPDF lays the receipt out on an A4 page.
func RenderReceiptPDF(r *Receipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRow(10, text.NewCol(12, r.Store.Name, titleStyle))
	if r.Store.Address != "" {
		m.AddRow(6, text.NewCol(12, r.Store.Address, centerStyle))
	}
	m.AddRow(6, text.NewCol(12, "Receipt "+r.ReceiptNumber, centerStyle))
	m.AddRow(6, text.NewCol(12, r.Date.Format("2006-01-02 15:04"), centerStyle))
	m.AddRows(line.NewRow(4))

	m.AddRow(6,
		text.NewCol(6, "Cashier: "+r.Cashier, bodyStyle),
		text.NewCol(6, "Customer: "+r.Customer.Name, rightStyle),
	)
	m.AddRows(line.NewRow(4))

	m.AddRow(6,
		text.NewCol(6, "Item", headerStyle),
		text.NewCol(2, "Qty", headerRight),
		text.NewCol(2, "Price", headerRight),
		text.NewCol(2, "Total", headerRight),
	)
	for _, it := range r.Items {
		name := it.Name
		if it.Refunded > 0 {
			name += fmt.Sprintf(" (refunded %d)", it.Refunded)
		}
		m.AddRows(row.New(6).Add(
			text.NewCol(6, name, bodyStyle),
			text.NewCol(2, fmt.Sprint(it.Quantity), rightStyle),
			text.NewCol(2, money(it.UnitPrice), rightStyle),
			text.NewCol(2, money(it.Total), rightStyle),
		))
	}
	m.AddRows(line.NewRow(4))

	totals := [][2]string{
		{"Subtotal", money(r.Subtotal)},
		{"Discount", money(r.Discount)},
		{fmt.Sprintf("Tax (%s%%)", money(r.TaxRate)), money(r.Tax)},
	}
	for _, t := range totals {
		m.AddRow(6, text.NewCol(9, t[0], rightStyle), text.NewCol(3, t[1], rightStyle))
	}
	m.AddRow(8, text.NewCol(9, "TOTAL", boldRight), text.NewCol(3, money(r.Total), boldRight))

	for _, p := range r.Payments {
		label := strings.ReplaceAll(string(p.Method), "_", " ")
		m.AddRow(6, text.NewCol(9, label, rightStyle), text.NewCol(3, money(p.Amount), rightStyle))
		if p.CashReceived != nil {
			m.AddRow(6, text.NewCol(9, "Cash received", rightStyle), text.NewCol(3, money(*p.CashReceived), rightStyle))
			m.AddRow(6, text.NewCol(9, "Change", rightStyle), text.NewCol(3, money(p.Change), rightStyle))
		}
	}

	if r.Footer != "" {
		m.AddRows(line.NewRow(4))
		m.AddRow(6, text.NewCol(12, r.Footer, centerStyle))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
