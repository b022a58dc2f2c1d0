// Package settlement - dönemsel mutabakat motoru. Ortakların adil payını
// (yüzde x toplam yatırım) ödedikleriyle karşılaştırır, sonucu değişmez bir
// fotoğraf olarak saklar.
package settlement

import (
	"sort"

	"dukkan-backend/internal/models"

	"github.com/shopspring/decimal"
)

// EntryDraft - henüz kaydedilmemiş mutabakat satırı.
// BalanceAmount = ActualPaidAmount - FairShareAmount
// (pozitif = fazla ödemiş, negatif = eksik ödemiş).
type EntryDraft struct {
	InvestorID       uint            `json:"investor_id"`
	InvestorName     string          `json:"investor_name"`
	SharePercentage  float64         `json:"share_percentage"`
	FairShareAmount  decimal.Decimal `json:"fair_share_amount"`
	ActualPaidAmount decimal.Decimal `json:"actual_paid_amount"`
	BalanceAmount    decimal.Decimal `json:"balance_amount"`
}

var hundred = decimal.NewFromInt(100)

// ComputeEntries - yüklenmiş pay listesi ve pay başına ödenen toplamlardan
// mutabakat satırlarını üretir. Ara hesaplar tam hassasiyetle yapılır,
// satırlar saklama hassasiyetine (4 ondalık) tek seferde yuvarlanır.
// Çıktı pay yüzdesine göre azalan, eşitlikte yatırımcı id'sine göre artan
// sıradadır; hiç pay yoksa boş liste döner (hata değil, "mutabakat yok").
func ComputeEntries(shares []models.OwnershipShare, paidByShare map[uint]decimal.Decimal, totalInvested decimal.Decimal) []EntryDraft {
	drafts := make([]EntryDraft, 0, len(shares))

	for i := range shares {
		share := &shares[i]

		actual := paidByShare[share.ID]
		fair := totalInvested.Mul(decimal.NewFromFloat(share.SharePercentage)).Div(hundred)

		drafts = append(drafts, EntryDraft{
			InvestorID:       share.InvestorID,
			InvestorName:     share.Investor.Name,
			SharePercentage:  share.SharePercentage,
			FairShareAmount:  fair.Round(4),
			ActualPaidAmount: actual.Round(4),
			BalanceAmount:    actual.Sub(fair).Round(4),
		})
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		if drafts[i].SharePercentage != drafts[j].SharePercentage {
			return drafts[i].SharePercentage > drafts[j].SharePercentage
		}
		return drafts[i].InvestorID < drafts[j].InvestorID
	})

	return drafts
}
