package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"tripledger/internal/models"
)

// Transfer is one suggested payment in a settlement plan: the debtor pays
// the creditor the given amount in the report's currency.
type Transfer struct {
	FromMemberID string
	FromName     string
	ToMemberID   string
	ToName       string
	Amount       decimal.Decimal
}

// CurrencyReport holds the derived view for a single currency: every
// member's net balance and the suggested transfers that drive those
// balances to zero.
type CurrencyReport struct {
	Currency string
	Balances map[string]decimal.Decimal
	// Transfers is empty when everyone is already settled in this currency.
	Transfers []Transfer
}

// Report is the full derived view of a trip, one entry per currency used.
// A report with no currencies means the trip has no expenses at all, which
// callers must render differently from "all settled".
type Report struct {
	Currencies []CurrencyReport
}

// ComputeBalances computes each member's net balance per currency.
//
// For every expense the payer's balance increases by the expense amount
// (they advanced money) and each split member's balance decreases by their
// share (they consumed that value). Recorded settlements then adjust the
// payer up and the receiver down in the settlement's currency.
//
// Expenses are grouped by exact currency string; when a currency is first
// seen, every known member starts at zero, so the per-currency balances
// always sum to zero within the equal-split rounding residue.
func ComputeBalances(members []models.Member, expenses []models.Expense, splits []models.ExpenseSplit, settlements []models.Settlement) map[string]map[string]decimal.Decimal {
	balances := make(map[string]map[string]decimal.Decimal)

	bucket := func(currency string) map[string]decimal.Decimal {
		b, ok := balances[currency]
		if !ok {
			b = make(map[string]decimal.Decimal, len(members))
			for _, m := range members {
				b[m.ID] = decimal.Zero
			}
			balances[currency] = b
		}
		return b
	}

	splitsByExpense := make(map[string][]models.ExpenseSplit, len(expenses))
	for _, s := range splits {
		splitsByExpense[s.ExpenseID] = append(splitsByExpense[s.ExpenseID], s)
	}

	for _, e := range expenses {
		b := bucket(e.Currency)
		b[e.PaidByMemberID] = b[e.PaidByMemberID].Add(e.Amount)
		for _, s := range splitsByExpense[e.ID] {
			b[s.MemberID] = b[s.MemberID].Sub(s.ShareAmount)
		}
	}

	for _, s := range settlements {
		b := bucket(s.Currency)
		b[s.FromMemberID] = b[s.FromMemberID].Add(s.Amount)
		b[s.ToMemberID] = b[s.ToMemberID].Sub(s.Amount)
	}

	return balances
}

// memberPosition is a working copy of one member's balance during matching.
type memberPosition struct {
	memberID string
	balance  decimal.Decimal
}

// SettleCurrency derives a settlement plan for one currency's balances
// using greedy largest-first matching. names maps member IDs to display
// names for the emitted transfers.
//
// Members within epsilon of zero are already settled and excluded. Debtors
// are walked most-indebted first, creditors most-owed first, both with ties
// broken by member ID so the output is deterministic. Each step settles
// min(|debt|, credit) and exhausts at least one side to within epsilon, so
// the plan has at most members-1 transfers. The greedy plan is not always
// the theoretical minimum, but it always terminates and always zeroes the
// balances.
func SettleCurrency(balances map[string]decimal.Decimal, names map[string]string) []Transfer {
	var debtors, creditors []memberPosition
	for memberID, balance := range balances {
		switch {
		case balance.LessThan(epsilon.Neg()):
			debtors = append(debtors, memberPosition{memberID, balance})
		case balance.GreaterThan(epsilon):
			creditors = append(creditors, memberPosition{memberID, balance})
		}
	}

	sort.Slice(debtors, func(i, j int) bool {
		if c := debtors[i].balance.Cmp(debtors[j].balance); c != 0 {
			return c < 0
		}
		return debtors[i].memberID < debtors[j].memberID
	})
	sort.Slice(creditors, func(i, j int) bool {
		if c := creditors[i].balance.Cmp(creditors[j].balance); c != 0 {
			return c > 0
		}
		return creditors[i].memberID < creditors[j].memberID
	})

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := decimal.Min(debtor.balance.Abs(), creditor.balance)
		if amount.GreaterThan(epsilon) {
			transfers = append(transfers, Transfer{
				FromMemberID: debtor.memberID,
				FromName:     names[debtor.memberID],
				ToMemberID:   creditor.memberID,
				ToName:       names[creditor.memberID],
				Amount:       amount,
			})
		}

		debtor.balance = debtor.balance.Add(amount)
		creditor.balance = creditor.balance.Sub(amount)

		if debtor.balance.Abs().LessThan(epsilon) {
			i++
		}
		if creditor.balance.Abs().LessThan(epsilon) {
			j++
		}
	}

	return transfers
}

// BuildReport computes balances and settlement plans for every currency in
// the trip, ordered by currency code. It is a pure function of its inputs:
// no I/O, no errors, and degenerate input (no expenses, members with no
// transactions) yields an empty report rather than a failure.
func BuildReport(members []models.Member, expenses []models.Expense, splits []models.ExpenseSplit, settlements []models.Settlement) Report {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	balances := ComputeBalances(members, expenses, splits, settlements)

	currencies := make([]string, 0, len(balances))
	for currency := range balances {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	report := Report{}
	for _, currency := range currencies {
		report.Currencies = append(report.Currencies, CurrencyReport{
			Currency:  currency,
			Balances:  balances[currency],
			Transfers: SettleCurrency(balances[currency], names),
		})
	}
	return report
}
