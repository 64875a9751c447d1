// Package export 财务报表导出（xlsx）
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/qs3c/gym_go_server/internal/model/dto"
)

// ContentTypeXLSX xlsx 文件的 MIME 类型
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var paymentHeader = []interface{}{
	"id",
	"student_id",
	"student_name",
	"plan_type",
	"amount",
	"currency",
	"due_date",
	"payment_date",
	"status",
	"effective_status",
	"payment_method",
	"notes",
}

// WritePayments 将账单写成单工作表 xlsx
func WritePayments(w io.Writer, payments []*dto.PaymentInfo, currency string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := paymentHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range payments {
		row := []interface{}{
			p.ID,
			p.StudentID,
			p.StudentName,
			p.PlanType,
			p.Amount.InexactFloat64(),
			currency,
			p.DueDate,
			p.PaymentDate,
			p.Status,
			p.EffectiveStatus,
			p.PaymentMethod,
			p.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "C", "C", 28); err != nil {
		return err
	}

	return f.Write(w)
}
