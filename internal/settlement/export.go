package settlement

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX - mutabakatı tek sayfalık Excel dosyasına yazar.
func (s *Service) ExportXLSX(settlementID uint) (*excelize.File, error) {
	settlement, err := s.Get(settlementID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Sheet1"

	// Başlık bilgileri
	f.SetCellValue(sheet, "A1", "Dükkan")
	f.SetCellValue(sheet, "B1", settlement.Shop.Name)
	f.SetCellValue(sheet, "A2", "Yıl")
	f.SetCellValue(sheet, "B2", settlement.Year)
	f.SetCellValue(sheet, "A3", "Mutabakat Tarihi")
	f.SetCellValue(sheet, "B3", settlement.SettlementDate.Format("2006-01-02"))
	f.SetCellValue(sheet, "A4", "Toplam Yatırım")
	f.SetCellValue(sheet, "B4", settlement.TotalInvested.InexactFloat64())
	f.SetCellValue(sheet, "A5", "Referans No")
	f.SetCellValue(sheet, "B5", settlement.ReferenceNo)

	// Satır başlıkları
	f.SetCellValue(sheet, "A7", "Yatırımcı")
	f.SetCellValue(sheet, "B7", "Pay (%)")
	f.SetCellValue(sheet, "C7", "Adil Pay")
	f.SetCellValue(sheet, "D7", "Ödenen")
	f.SetCellValue(sheet, "E7", "Bakiye")
	f.SetCellValue(sheet, "F7", "Kapatılan")

	for i, entry := range settlement.Entries {
		row := i + 8
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), entry.Investor.Name)
		f.SetCellValue(sheet, "B"+fmt.Sprint(row), entry.SharePercentage)
		f.SetCellValue(sheet, "C"+fmt.Sprint(row), entry.FairShareAmount.InexactFloat64())
		f.SetCellValue(sheet, "D"+fmt.Sprint(row), entry.ActualPaidAmount.InexactFloat64())
		f.SetCellValue(sheet, "E"+fmt.Sprint(row), entry.BalanceAmount.InexactFloat64())
		f.SetCellValue(sheet, "F"+fmt.Sprint(row), entry.SettlementPaidAmount.InexactFloat64())
	}

	return f, nil
}
