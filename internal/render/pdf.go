package render

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var _ Renderer = (*PDFRenderer)(nil)

// PDFRenderer renders delivery bills as PDF documents.
type PDFRenderer struct {
	distributorName string
}

func NewPDFRenderer(distributorName string) *PDFRenderer {
	if distributorName == "" {
		distributorName = "Wholesale Distribution"
	}
	return &PDFRenderer{distributorName: distributorName}
}

func (r *PDFRenderer) RenderDeliveryBill(ctx context.Context, bill BillData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Delivery Bill", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New(r.distributorName, props.Text{Style: fontstyle.Bold}),
			text.New("Bill number: "+bill.BillNumber, props.Text{Top: 6}),
			text.New("Batch: "+bill.BatchNumber, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Customer: "+bill.CustomerID, props.Text{Top: 6}),
			text.New("Issued: "+bill.IssuedAt.Format("2006-01-02 15:04"), props.Text{Top: 10}),
		),
	)

	for _, section := range bill.Firms {
		m.AddRow(10,
			text.NewCol(12, section.Firm, props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}),
		)
		m.AddRow(8,
			text.NewCol(5, "Product", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(1, "Unit", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)

		for _, item := range section.Items {
			m.AddRow(7,
				text.NewCol(5, item.Product, props.Text{Size: 9}),
				text.NewCol(2, formatQuantity(item.Quantity), props.Text{Size: 9, Align: align.Right}),
				text.NewCol(1, item.Unit, props.Text{Size: 9}),
				text.NewCol(2, formatMoney(item.Rate), props.Text{Size: 9, Align: align.Right}),
				text.NewCol(2, formatMoney(item.Amount), props.Text{Size: 9, Align: align.Right}),
			)
		}

		m.AddRow(8,
			col.New(8),
			text.NewCol(2, "Subtotal", props.Text{Size: 9}),
			text.NewCol(2, formatMoney(section.Subtotal), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, formatMoney(bill.Total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate delivery bill pdf: %w", err)
	}

	return doc.GetBytes(), nil
}

func formatQuantity(q float64) string {
	return fmt.Sprintf("%.2f", q)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
