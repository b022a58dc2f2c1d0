package settlement

import (
	"testing"

	"dukkan-backend/internal/models"

	"github.com/shopspring/decimal"
)

func share(id, investorID uint, name string, pct float64) models.OwnershipShare {
	return models.OwnershipShare{
		ID:              id,
		InvestorID:      investorID,
		Investor:        models.Investor{ID: investorID, Name: name},
		SharePercentage: pct,
		Status:          models.ShareStatusActive,
	}
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestComputeEntriesBalances(t *testing.T) {
	// %40 ortak, 1000 + 500 ödemiş, toplam yatırım 5000:
	// adil pay 2000, bakiye -500 (eksik ödemiş).
	shares := []models.OwnershipShare{
		share(1, 10, "Ali", 40),
		share(2, 11, "Veli", 60),
	}
	paid := map[uint]decimal.Decimal{
		1: dec(1500),
		2: dec(3500),
	}

	entries := ComputeEntries(shares, paid, dec(5000))
	if len(entries) != 2 {
		t.Fatalf("2 satır bekleniyordu, %d geldi", len(entries))
	}

	// Veli (%60) önce gelmeli
	if entries[0].InvestorID != 11 {
		t.Errorf("ilk satır yüzdesi büyük olan olmalı, yatırımcı %d geldi", entries[0].InvestorID)
	}

	ali := entries[1]
	if !ali.FairShareAmount.Equal(dec(2000)) {
		t.Errorf("adil pay 2000 bekleniyordu, %s geldi", ali.FairShareAmount)
	}
	if !ali.BalanceAmount.Equal(dec(-500)) {
		t.Errorf("bakiye -500 bekleniyordu, %s geldi", ali.BalanceAmount)
	}

	veli := entries[0]
	if !veli.FairShareAmount.Equal(dec(3000)) {
		t.Errorf("adil pay 3000 bekleniyordu, %s geldi", veli.FairShareAmount)
	}
	if !veli.BalanceAmount.Equal(dec(500)) {
		t.Errorf("bakiye 500 bekleniyordu, %s geldi", veli.BalanceAmount)
	}
}

func TestComputeEntriesConservation(t *testing.T) {
	// Paylar tam 100 toplarken bakiyelerin toplamı,
	// toplam ödenen - toplam yatırım farkına eşit olmalı.
	shares := []models.OwnershipShare{
		share(1, 1, "A", 33.33),
		share(2, 2, "B", 33.33),
		share(3, 3, "C", 33.34),
	}
	paid := map[uint]decimal.Decimal{
		1: dec(1000),
		2: dec(1234.56),
		3: dec(765.44),
	}
	total := dec(3000)

	entries := ComputeEntries(shares, paid, total)

	balanceSum := decimal.Zero
	paidSum := decimal.Zero
	for _, e := range entries {
		balanceSum = balanceSum.Add(e.BalanceAmount)
		paidSum = paidSum.Add(e.ActualPaidAmount)
	}

	want := paidSum.Sub(total)
	if diff := balanceSum.Sub(want).Abs(); diff.GreaterThan(dec(0.01)) {
		t.Errorf("bakiye toplamı %s, beklenen %s (fark %s)", balanceSum, want, diff)
	}

	// Adil payların toplamı da (yüzdeler 100'ü bulduğu için) toplam yatırıma
	// eşit olmalı
	fairSum := decimal.Zero
	for _, e := range entries {
		fairSum = fairSum.Add(e.FairShareAmount)
	}
	if diff := fairSum.Sub(total).Abs(); diff.GreaterThan(dec(0.01)) {
		t.Errorf("adil pay toplamı %s, beklenen %s", fairSum, total)
	}
}

func TestComputeEntriesOrdering(t *testing.T) {
	shares := []models.OwnershipShare{
		share(1, 5, "A", 25),
		share(2, 3, "B", 50),
		share(3, 2, "C", 25),
	}

	entries := ComputeEntries(shares, nil, dec(1000))

	gotOrder := []uint{entries[0].InvestorID, entries[1].InvestorID, entries[2].InvestorID}
	wantOrder := []uint{3, 2, 5} // %50 önce, %25'lerde küçük yatırımcı id önce
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("sıralama %v bekleniyordu, %v geldi", wantOrder, gotOrder)
		}
	}
}

func TestComputeEntriesNoPayments(t *testing.T) {
	shares := []models.OwnershipShare{share(1, 1, "A", 100)}

	entries := ComputeEntries(shares, map[uint]decimal.Decimal{}, dec(2500))

	if !entries[0].ActualPaidAmount.Equal(decimal.Zero) {
		t.Errorf("ödenmemiş ortak için 0 bekleniyordu, %s geldi", entries[0].ActualPaidAmount)
	}
	if !entries[0].BalanceAmount.Equal(dec(-2500)) {
		t.Errorf("bakiye -2500 bekleniyordu, %s geldi", entries[0].BalanceAmount)
	}
}

func TestComputeEntriesEmpty(t *testing.T) {
	entries := ComputeEntries(nil, nil, dec(1000))
	if entries == nil || len(entries) != 0 {
		t.Fatalf("boş liste bekleniyordu, %v geldi", entries)
	}
}

func TestComputeEntriesRounding(t *testing.T) {
	// 1/3 pay x 1000: adil pay 4 ondalığa yuvarlanmalı.
	shares := []models.OwnershipShare{share(1, 1, "A", 33.3333)}

	entries := ComputeEntries(shares, nil, dec(1000))

	if entries[0].FairShareAmount.Exponent() < -4 {
		t.Errorf("adil pay 4 ondalığa yuvarlanmalıydı: %s", entries[0].FairShareAmount)
	}
	want := dec(333.333)
	if diff := entries[0].FairShareAmount.Sub(want).Abs(); diff.GreaterThan(dec(0.01)) {
		t.Errorf("adil pay ~%s bekleniyordu, %s geldi", want, entries[0].FairShareAmount)
	}
}
