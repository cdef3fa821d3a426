package models

import (
	"math/rand"
	"testing"

	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func expenseTxn(amount string) Transaction {
	return Transaction{AmountAccount: money(amount), IsIncome: utils.NewFalse()}
}

func incomeTxn(amount string) Transaction {
	return Transaction{AmountAccount: money(amount), IsIncome: utils.NewTrue()}
}

func TestSumSignedAmounts(t *testing.T) {
	transactions := []Transaction{
		incomeTxn("50000"),
		expenseTxn("1200.50"),
		expenseTxn("300"),
		incomeTxn("75.25"),
	}

	got := SumSignedAmounts(money("1000"), transactions)
	if !got.Equal(money("49574.75")) {
		t.Fatalf("balance = %s, want 49574.75", got)
	}
}

func TestSumSignedAmounts_EmptyHistoryIsInitialBalance(t *testing.T) {
	got := SumSignedAmounts(money("123.45"), nil)
	if !got.Equal(money("123.45")) {
		t.Fatalf("balance = %s, want 123.45", got)
	}
}

func TestSumSignedAmounts_NilIsIncomeCountsAsExpense(t *testing.T) {
	transactions := []Transaction{{AmountAccount: money("10")}}
	got := SumSignedAmounts(money("100"), transactions)
	if !got.Equal(money("90")) {
		t.Fatalf("balance = %s, want 90", got)
	}
}

func TestSumSignedAmounts_ReorderInvariant(t *testing.T) {
	transactions := []Transaction{
		incomeTxn("50000"),
		expenseTxn("1200.50"),
		expenseTxn("300"),
		incomeTxn("75.25"),
		expenseTxn("0.01"),
		incomeTxn("9999.99"),
	}
	want := SumSignedAmounts(money("1000"), transactions)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]Transaction(nil), transactions...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := SumSignedAmounts(money("1000"), shuffled); !got.Equal(want) {
			t.Fatalf("iteration %d: reordered sum %s != %s", i, got, want)
		}
	}
}
