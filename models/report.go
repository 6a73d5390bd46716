package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// StatementRow is one line of a credit account statement: either a regular
// charge in the cycle or the monthly share of an installment purchase.
type StatementRow struct {
	TransactionDate time.Time       `json:"transaction_date"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Amount          decimal.Decimal `json:"amount"`
	Installment     string          `json:"installment"`
}

type StatementReport struct {
	AccountId   int             `json:"account_id"`
	AccountName string          `json:"account_name"`
	CycleStart  time.Time       `json:"cycle_start"`
	CycleCut    time.Time       `json:"cycle_cut"`
	Total       decimal.Decimal `json:"total"`
	Rows        []StatementRow  `json:"rows"`
}

// BuildStatementReport assembles the statement for the billing cycle that
// contains refDate. Installment purchases contribute their monthly share
// instead of the full purchase amount.
func BuildStatementReport(ctx context.Context, accountId int, refDate time.Time) (*StatementReport, error) {
	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}

	account, err := utils.FetchModel[Account](ctx, profileId, accountId)
	if err != nil {
		return nil, err
	}
	if account.Kind != AccountKindCredit {
		return nil, errors.New("statements only apply to credit accounts")
	}
	cycle, ok := ResolveBillingCycle(refDate, account.StatementCutDay)
	if !ok {
		return nil, errors.New("account has no statement cut day")
	}

	db := config.GetDB()
	var rows []*Transaction
	if err := db.WithContext(ctx).
		Where("account_id = ? AND is_deleted = 0 AND is_draft = 0 AND type = ?", accountId, TransactionTypeExpense).
		Where("transaction_date <= ?", cycle.CutDate).
		Order("transaction_date, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	report := StatementReport{
		AccountId:   account.ID,
		AccountName: account.Name,
		CycleStart:  cycle.Start,
		CycleCut:    cycle.CutDate,
		Total:       decimal.Zero,
	}

	for _, row := range rows {
		if row.InstallmentsTotal > 1 {
			status := CalculateInstallmentStatus(row.TransactionDate, row.Amount, row.InstallmentsTotal, account.StatementCutDay, cycle.CutDate)
			if status == nil {
				continue
			}
			// Fully billed purchases no longer appear on statements.
			if status.Paid.GreaterThanOrEqual(row.Amount) {
				continue
			}
			report.Rows = append(report.Rows, StatementRow{
				TransactionDate: row.TransactionDate,
				Description:     row.Description,
				Category:        row.Category,
				Amount:          status.Monthly,
				Installment:     fmt.Sprintf("%d/%d", status.Current, status.Total),
			})
			report.Total = report.Total.Add(status.Monthly)
			continue
		}

		// One-off charges only appear in their own cycle.
		if !cycle.Contains(row.TransactionDate) {
			continue
		}
		report.Rows = append(report.Rows, StatementRow{
			TransactionDate: row.TransactionDate,
			Description:     row.Description,
			Category:        row.Category,
			Amount:          row.Amount,
		})
		report.Total = report.Total.Add(row.Amount)
	}

	return &report, nil
}

// ExportStatementExcel renders the statement as an XLSX workbook.
func ExportStatementExcel(report *StatementReport) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Statement"
	if _, err := f.NewSheet(sheetName); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue(sheetName, "A1", "Account")
	f.SetCellValue(sheetName, "B1", report.AccountName)
	f.SetCellValue(sheetName, "A2", "Cycle")
	f.SetCellValue(sheetName, "B2", report.CycleStart.Format("2006-01-02")+" - "+report.CycleCut.Format("2006-01-02"))

	f.SetCellValue(sheetName, "A4", "Date")
	f.SetCellValue(sheetName, "B4", "Description")
	f.SetCellValue(sheetName, "C4", "Category")
	f.SetCellValue(sheetName, "D4", "Installment")
	f.SetCellValue(sheetName, "E4", "Amount")

	// Add data
	for i, row := range report.Rows {
		rowNo := fmt.Sprint(i + 5)
		f.SetCellValue(sheetName, "A"+rowNo, row.TransactionDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, "B"+rowNo, row.Description)
		f.SetCellValue(sheetName, "C"+rowNo, row.Category)
		f.SetCellValue(sheetName, "D"+rowNo, row.Installment)
		f.SetCellValue(sheetName, "E"+rowNo, row.Amount.StringFixed(2))
	}

	totalRow := fmt.Sprint(len(report.Rows) + 6)
	f.SetCellValue(sheetName, "D"+totalRow, "Total")
	f.SetCellValue(sheetName, "E"+totalRow, report.Total.StringFixed(2))

	return f, nil
}
