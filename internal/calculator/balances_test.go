package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripledger/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tripMembers(names ...string) []models.Member {
	members := make([]models.Member, len(names))
	for i, name := range names {
		members[i] = models.Member{ID: "m-" + name, TripID: "trip-1", Name: name}
	}
	return members
}

// expenseWithEqualSplit builds an expense plus the split rows an equal split
// would persist for it.
func expenseWithEqualSplit(id, currency, total, payer string, participants ...string) (models.Expense, []models.ExpenseSplit) {
	shares, err := ComputeSplits(total, SplitEqual, participants, nil)
	if err != nil {
		panic(err)
	}
	expense := models.Expense{
		ID:             id,
		TripID:         "trip-1",
		Amount:         dec(total),
		Currency:       currency,
		PaidByMemberID: payer,
	}
	var splits []models.ExpenseSplit
	for memberID, share := range shares {
		splits = append(splits, models.ExpenseSplit{
			ID:          id + "-" + memberID,
			ExpenseID:   id,
			MemberID:    memberID,
			ShareAmount: share,
		})
	}
	return expense, splits
}

func TestComputeBalances(t *testing.T) {
	members := tripMembers("alice", "bob", "carol")

	// Alice pays 90 split three ways, Bob pays 30 split three ways.
	e1, s1 := expenseWithEqualSplit("e1", "USD", "90.00", "m-alice", "m-alice", "m-bob", "m-carol")
	e2, s2 := expenseWithEqualSplit("e2", "USD", "30.00", "m-bob", "m-alice", "m-bob", "m-carol")

	balances := ComputeBalances(members, []models.Expense{e1, e2}, append(s1, s2...), nil)

	require.Contains(t, balances, "USD")
	usd := balances["USD"]
	assert.True(t, usd["m-alice"].Equal(dec("50.00")), "alice = %s", usd["m-alice"])
	assert.True(t, usd["m-bob"].Equal(dec("-10.00")), "bob = %s", usd["m-bob"])
	assert.True(t, usd["m-carol"].Equal(dec("-40.00")), "carol = %s", usd["m-carol"])
}

func TestComputeBalancesConservation(t *testing.T) {
	members := tripMembers("alice", "bob", "carol", "dave")

	var expenses []models.Expense
	var splits []models.ExpenseSplit
	for i, total := range []string{"100.00", "33.40", "7.77", "250.01"} {
		payer := members[i%len(members)].ID
		e, s := expenseWithEqualSplit(
			"e"+string(rune('0'+i)), "EUR", total, payer,
			"m-alice", "m-bob", "m-carol", "m-dave",
		)
		expenses = append(expenses, e)
		splits = append(splits, s...)
	}

	balances := ComputeBalances(members, expenses, splits, nil)

	sum := decimal.Zero
	for _, balance := range balances["EUR"] {
		sum = sum.Add(balance)
	}
	// Each expense can leave up to participants x 0.01 of equal-split residue.
	bound := decimal.New(int64(len(expenses)*len(members)), -2)
	assert.True(t, sum.Abs().LessThanOrEqual(bound),
		"balance sum %s exceeds residue bound %s", sum, bound)
}

func TestComputeBalancesCurrencyIsolation(t *testing.T) {
	members := tripMembers("alice", "bob")

	e1, s1 := expenseWithEqualSplit("e1", "USD", "100.00", "m-alice", "m-alice", "m-bob")
	e2, s2 := expenseWithEqualSplit("e2", "VND", "500000.00", "m-bob", "m-alice", "m-bob")

	balances := ComputeBalances(members, []models.Expense{e1, e2}, append(s1, s2...), nil)

	require.Len(t, balances, 2)
	assert.True(t, balances["USD"]["m-alice"].Equal(dec("50.00")))
	assert.True(t, balances["USD"]["m-bob"].Equal(dec("-50.00")))
	assert.True(t, balances["VND"]["m-bob"].Equal(dec("250000.00")))
	assert.True(t, balances["VND"]["m-alice"].Equal(dec("-250000.00")))
}

func TestComputeBalancesRecordedSettlement(t *testing.T) {
	members := tripMembers("alice", "bob")

	e1, s1 := expenseWithEqualSplit("e1", "USD", "100.00", "m-alice", "m-alice", "m-bob")
	settlement := models.Settlement{
		ID:           "p1",
		TripID:       "trip-1",
		FromMemberID: "m-bob",
		ToMemberID:   "m-alice",
		Amount:       dec("50.00"),
		Currency:     "USD",
	}

	balances := ComputeBalances(members, []models.Expense{e1}, s1, []models.Settlement{settlement})

	assert.True(t, balances["USD"]["m-alice"].IsZero(), "alice = %s", balances["USD"]["m-alice"])
	assert.True(t, balances["USD"]["m-bob"].IsZero(), "bob = %s", balances["USD"]["m-bob"])
}

func TestSettleCurrency(t *testing.T) {
	names := map[string]string{"m-a": "Alice", "m-b": "Bob", "m-c": "Carol"}
	balances := map[string]decimal.Decimal{
		"m-a": dec("-30"),
		"m-b": dec("-10"),
		"m-c": dec("40"),
	}

	transfers := SettleCurrency(balances, names)

	require.Len(t, transfers, 2)
	assert.Equal(t, "m-a", transfers[0].FromMemberID)
	assert.Equal(t, "Alice", transfers[0].FromName)
	assert.Equal(t, "m-c", transfers[0].ToMemberID)
	assert.True(t, transfers[0].Amount.Equal(dec("30")), "first amount = %s", transfers[0].Amount)
	assert.Equal(t, "m-b", transfers[1].FromMemberID)
	assert.Equal(t, "m-c", transfers[1].ToMemberID)
	assert.True(t, transfers[1].Amount.Equal(dec("10")), "second amount = %s", transfers[1].Amount)

	// Applying the plan drives every balance to zero.
	applied := map[string]decimal.Decimal{}
	for id, b := range balances {
		applied[id] = b
	}
	for _, tr := range transfers {
		applied[tr.FromMemberID] = applied[tr.FromMemberID].Add(tr.Amount)
		applied[tr.ToMemberID] = applied[tr.ToMemberID].Sub(tr.Amount)
	}
	for id, b := range applied {
		assert.True(t, b.Abs().LessThanOrEqual(dec("0.01")), "%s left at %s", id, b)
	}
}

func TestSettleCurrencySkipsSettledMembers(t *testing.T) {
	balances := map[string]decimal.Decimal{
		"m-a": dec("-20"),
		"m-b": dec("0.005"),
		"m-c": dec("20"),
	}

	transfers := SettleCurrency(balances, map[string]string{})

	require.Len(t, transfers, 1)
	assert.Equal(t, "m-a", transfers[0].FromMemberID)
	assert.Equal(t, "m-c", transfers[0].ToMemberID)
}

func TestSettleCurrencyTransferBound(t *testing.T) {
	// N members with balances summing to zero settle in at most N-1 transfers.
	balances := map[string]decimal.Decimal{
		"m-a": dec("-25.00"),
		"m-b": dec("-25.00"),
		"m-c": dec("-10.00"),
		"m-d": dec("20.00"),
		"m-e": dec("15.00"),
		"m-f": dec("25.00"),
	}

	transfers := SettleCurrency(balances, map[string]string{})

	assert.LessOrEqual(t, len(transfers), len(balances)-1)
}

func TestSettleCurrencyDeterministicTieBreak(t *testing.T) {
	// Equal balances must be ordered by member ID, not map iteration order.
	balances := map[string]decimal.Decimal{
		"m-b": dec("-10"),
		"m-a": dec("-10"),
		"m-d": dec("10"),
		"m-c": dec("10"),
	}

	for range 20 {
		transfers := SettleCurrency(balances, map[string]string{})
		require.Len(t, transfers, 2)
		assert.Equal(t, "m-a", transfers[0].FromMemberID)
		assert.Equal(t, "m-c", transfers[0].ToMemberID)
		assert.Equal(t, "m-b", transfers[1].FromMemberID)
		assert.Equal(t, "m-d", transfers[1].ToMemberID)
	}
}

func TestBuildReport(t *testing.T) {
	members := tripMembers("alice", "bob")
	e1, s1 := expenseWithEqualSplit("e1", "USD", "100.00", "m-alice", "m-alice", "m-bob")

	report := BuildReport(members, []models.Expense{e1}, s1, nil)

	require.Len(t, report.Currencies, 1)
	usd := report.Currencies[0]
	assert.Equal(t, "USD", usd.Currency)
	require.Len(t, usd.Transfers, 1)
	assert.Equal(t, "Bob", usd.Transfers[0].FromName)
	assert.Equal(t, "Alice", usd.Transfers[0].ToName)
	assert.True(t, usd.Transfers[0].Amount.Equal(dec("50.00")))
}

func TestBuildReportEmptyVsSettled(t *testing.T) {
	members := tripMembers("alice", "bob")

	// No expenses at all: no currencies in the report.
	empty := BuildReport(members, nil, nil, nil)
	assert.Empty(t, empty.Currencies)

	// Expenses that net out: the currency appears with an empty plan.
	e1, s1 := expenseWithEqualSplit("e1", "USD", "50.00", "m-alice", "m-alice", "m-bob")
	e2, s2 := expenseWithEqualSplit("e2", "USD", "50.00", "m-bob", "m-alice", "m-bob")

	settled := BuildReport(members, []models.Expense{e1, e2}, append(s1, s2...), nil)
	require.Len(t, settled.Currencies, 1)
	assert.Empty(t, settled.Currencies[0].Transfers)
}

func TestBuildReportIdempotent(t *testing.T) {
	members := tripMembers("alice", "bob", "carol")
	e1, s1 := expenseWithEqualSplit("e1", "USD", "90.00", "m-alice", "m-alice", "m-bob", "m-carol")
	e2, s2 := expenseWithEqualSplit("e2", "INR", "4500.00", "m-bob", "m-bob", "m-carol")
	expenses := []models.Expense{e1, e2}
	splits := append(s1, s2...)

	first := BuildReport(members, expenses, splits, nil)
	second := BuildReport(members, expenses, splits, nil)

	assert.Equal(t, first, second)
}
