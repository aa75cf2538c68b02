package main

import (
	"math"
	"testing"
)

// Financial State Transition Tests
//
// These tests check one-year transitions against hand-computed cash flows.
// Unless stated otherwise every growth multiplier is 1 so the arithmetic is exact.

const moneyTolerance = 0.01

func assertMoneyEquals(t *testing.T, expected, actual float64, description string) {
	t.Helper()
	if math.Abs(expected-actual) > moneyTolerance {
		t.Errorf("%s: expected £%.2f, got £%.2f (diff: £%.2f)",
			description, expected, actual, actual-expected)
	}
}

func rentingPolicy() Policy {
	return Policy{IsBuying: false, Rules: DefaultRules()}
}

func buyingPolicy(stage MortgageStage) Policy {
	return Policy{IsBuying: true, Mortgage: stage, Rules: DefaultRules()}
}

// =============================================================================
// End-to-end Transition Tests
// =============================================================================

func TestTransition_RentingZeroGrowth(t *testing.T) {
	prior := FinancialSituation{
		CashValue:           50000,
		Salary:              3000,
		Rent:                1000,
		CumulativeInflation: 1,
	}

	next := NextFinancialSituation(prior, NoGrowth(), rentingPolicy())

	// cash = 50000 + 36000 (salary) - 12000 (rent) = 74000
	// all of it is invested: 20000 into the ISA, the remaining 54000 outside it
	assertMoneyEquals(t, 0, next.CashValue, "cash after investing")
	assertMoneyEquals(t, 20000, next.StockISAValue, "ISA contribution")
	assertMoneyEquals(t, 54000, next.StockNonISAValue, "non-ISA contribution")
	assertMoneyEquals(t, 54000, next.StockNonISAValuePaid, "non-ISA cost basis")
	assertMoneyEquals(t, 12000, next.MoneySpent, "rent is money spent")
	assertMoneyEquals(t, 1000, next.Rent, "rent unchanged at zero growth")
	if next.YearNumber != 1 {
		t.Errorf("expected year 1, got %d", next.YearNumber)
	}
	if next.Bankrupt {
		t.Error("solvent household marked bankrupt")
	}

	// The prior snapshot is untouched
	assertMoneyEquals(t, 50000, prior.CashValue, "prior cash")
}

func TestTransition_RentersPayFixedHouseCosts(t *testing.T) {
	policy := rentingPolicy()
	policy.GroundRent = 500
	policy.HomeInsurance = 300
	policy.MaintenanceRate = 1
	policy.ServiceCharge = 0.6

	prior := FinancialSituation{CashValue: 50000, Salary: 3000, Rent: 1000, CumulativeInflation: 1}
	next := NextFinancialSituation(prior, NoGrowth(), policy)

	// No house value, so only the flat costs apply: 12 × 1000 + 500 + 300
	assertMoneyEquals(t, 12800, next.MoneySpent, "rent plus ground rent and insurance")
	// 50000 + 36000 - 12800 = 73200 invested
	assertMoneyEquals(t, 73200, next.StockISAValue+next.StockNonISAValue, "invested surplus")
}

func TestTransition_BuyingZeroGrowth(t *testing.T) {
	policy := buyingPolicy(MortgageStage{InterestRate: 5, MonthlyPayment: 2000})
	policy.GroundRent = 500
	policy.MaintenanceRate = 1
	policy.ServiceCharge = 0.6

	prior := FinancialSituation{
		HouseValue:          500000,
		MortgageBalance:     400000,
		Salary:              5000,
		CumulativeInflation: 1,
	}
	next := NextFinancialSituation(prior, NoGrowth(), policy)

	// interest = 20000, payment = 24000, principal repaid = 4000
	// house costs = 5000 (maintenance) + 500 (ground rent) + 3000 (service charge) = 8500
	// cash = 60000 - 24000 - 8500 = 27500, all invested
	assertMoneyEquals(t, 396000, next.MortgageBalance, "balance after a year")
	assertMoneyEquals(t, 28500, next.MoneySpent, "interest plus house costs")
	assertMoneyEquals(t, 20000, next.StockISAValue, "ISA contribution")
	assertMoneyEquals(t, 7500, next.StockNonISAValue, "non-ISA contribution")
	assertMoneyEquals(t, 500000, next.HouseValue, "house value at zero growth")
}

func TestTransition_GrowthIsApplied(t *testing.T) {
	rules := DefaultRules()
	rules.ModelInflation = false
	policy := Policy{IsBuying: true, Rules: rules}

	prior := FinancialSituation{
		HouseValue:          100000,
		StockISAValue:       10000,
		StockNonISAValue:    10000,
		Salary:              1000,
		CumulativeInflation: 1,
	}
	draws := YearDraws{Inflation: 1.5, Salary: 1.02, Stock: 1.10, House: 1.05, Rent: 1}
	next := NextFinancialSituation(prior, draws, policy)

	assertMoneyEquals(t, 105000, next.HouseValue, "house growth")
	assertMoneyEquals(t, 1020, next.Salary, "pay rise after this year's salary")
	// 11000 in each pot after growth, then the 12000 salary fits inside this year's ISA allowance
	assertMoneyEquals(t, 23000, next.StockISAValue, "ISA after growth and contribution")
	assertMoneyEquals(t, 11000, next.StockNonISAValue, "non-ISA after growth")
	assertMoneyEquals(t, 1, next.CumulativeInflation, "inflation switched off")
}

func TestTransition_InflationCompounds(t *testing.T) {
	draws := NoGrowth()
	draws.Inflation = 1.1

	fs := FinancialSituation{CumulativeInflation: 1}
	for range 3 {
		fs = NextFinancialSituation(fs, draws, rentingPolicy())
	}
	assertMoneyEquals(t, 1.331, fs.CumulativeInflation, "three years at 10%")
	if fs.YearNumber != 3 {
		t.Errorf("expected year 3, got %d", fs.YearNumber)
	}
}

// =============================================================================
// Mortgage Step Tests
// =============================================================================

func TestMortgage_PaymentBelowInterestIsFlooredToInterestOnly(t *testing.T) {
	// 200000 at 5% costs 10000 a year; 500/month only pays 6000
	policy := buyingPolicy(MortgageStage{InterestRate: 5, MonthlyPayment: 500})
	prior := FinancialSituation{
		HouseValue:          250000,
		MortgageBalance:     200000,
		CashValue:           50000,
		CumulativeInflation: 1,
	}

	next := NextFinancialSituation(prior, NoGrowth(), policy)

	assertMoneyEquals(t, 200000, next.MortgageBalance, "balance must not grow")
	assertMoneyEquals(t, 10000, next.MoneySpent, "interest paid")
	assertMoneyEquals(t, 40000, next.StockISAValue+next.StockNonISAValue, "cash left after interest")
}

func TestMortgage_FinalPaymentIsCapped(t *testing.T) {
	// 24000 scheduled against 10000 owed at 0%
	policy := buyingPolicy(MortgageStage{InterestRate: 0, MonthlyPayment: 2000})
	prior := FinancialSituation{
		MortgageBalance:     10000,
		CashValue:           50000,
		CumulativeInflation: 1,
	}

	next := NextFinancialSituation(prior, NoGrowth(), policy)

	assertMoneyEquals(t, 0, next.MortgageBalance, "mortgage cleared")
	assertMoneyEquals(t, 40000, next.StockISAValue+next.StockNonISAValue, "only what was owed is paid")
}

func TestMortgage_PaidOffMortgageCostsNothing(t *testing.T) {
	fs := payMortgage(FinancialSituation{CashValue: 1000}, MortgageStage{InterestRate: 5, MonthlyPayment: 2000})
	assertMoneyEquals(t, 1000, fs.CashValue, "no payment without a balance")
	assertMoneyEquals(t, 0, fs.MoneySpent, "no interest without a balance")
}

func TestMortgage_Overpay(t *testing.T) {
	policy := buyingPolicy(MortgageStage{InterestRate: 0, MonthlyPayment: 1000})
	policy.MortgageOverpay = true

	prior := FinancialSituation{
		MortgageBalance:     100000,
		Salary:              3000,
		CumulativeInflation: 1,
	}
	next := NextFinancialSituation(prior, NoGrowth(), policy)

	// 36000 salary - 12000 payment leaves 24000, all of it overpaid
	assertMoneyEquals(t, 64000, next.MortgageBalance, "balance after overpaying")
	assertMoneyEquals(t, 0, next.StockISAValue+next.StockNonISAValue, "nothing left to invest")

	// Overpayment stops at the balance and the rest is invested
	prior.MortgageBalance = 15000
	next = NextFinancialSituation(prior, NoGrowth(), policy)
	assertMoneyEquals(t, 0, next.MortgageBalance, "overpayment clears the balance")
	assertMoneyEquals(t, 21000, next.StockISAValue+next.StockNonISAValue, "remainder invested")
}

// =============================================================================
// Running Cost Tests
// =============================================================================

func TestRunningHouseCosts(t *testing.T) {
	policy := Policy{
		GroundRent:        500,
		ServiceCharge:     0.6,
		ServiceChargeMode: ServiceChargeRate,
		MaintenanceRate:   1,
		HomeInsurance:     300,
	}
	// 5000 + 500 + 3000 + 300
	assertMoneyEquals(t, 8800, RunningHouseCosts(500000, policy), "service charge as a rate")

	policy.ServiceCharge = 1200
	policy.ServiceChargeMode = ServiceChargeFlat
	// 5000 + 500 + 1200 + 300
	assertMoneyEquals(t, 7000, RunningHouseCosts(500000, policy), "flat service charge")
}

// =============================================================================
// Investing and Liquidation Tests
// =============================================================================

func TestInvest_ISAAllowanceIsCapped(t *testing.T) {
	rules := DefaultRules()
	for _, cash := range []float64{0, 5000, 20000, 20001, 1000000} {
		fs := investSurplus(FinancialSituation{CashValue: cash}, rules)
		if fs.StockISAValue > rules.ISAAllowance {
			t.Errorf("cash £%.0f: ISA contribution £%.0f exceeds allowance", cash, fs.StockISAValue)
		}
		assertMoneyEquals(t, cash, fs.StockISAValue+fs.StockNonISAValue, "everything invested")
		assertMoneyEquals(t, 0, fs.CashValue, "no cash left")
	}
}

func TestInvest_NegativeCashIsNotInvested(t *testing.T) {
	fs := investSurplus(FinancialSituation{CashValue: -500, StockISAValue: 1000}, DefaultRules())
	assertMoneyEquals(t, -500, fs.CashValue, "deficit untouched")
	assertMoneyEquals(t, 1000, fs.StockISAValue, "ISA untouched")
}

func TestLiquidate_NonISASoldFirst(t *testing.T) {
	fs := FinancialSituation{
		CashValue:            -10000,
		StockNonISAValue:     8000,
		StockNonISAValuePaid: 8000,
		StockISAValue:        50000,
	}
	fs = liquidateStocks(fs, DefaultRules())

	assertMoneyEquals(t, 0, fs.CashValue, "deficit covered")
	assertMoneyEquals(t, 0, fs.StockNonISAValue, "non-ISA sold first")
	assertMoneyEquals(t, 48000, fs.StockISAValue, "ISA covers the rest")
}

func TestLiquidate_CapitalGainsTaxOnSale(t *testing.T) {
	fs := FinancialSituation{
		CashValue:            -10000,
		StockNonISAValue:     20000,
		StockNonISAValuePaid: 10000,
		StockISAValue:        1000,
	}
	fs = liquidateStocks(fs, DefaultRules())

	// Selling half realises a 5000 gain: (5000 - 3000) × 20% = 400 tax, paid from the ISA
	assertMoneyEquals(t, 10000, fs.StockNonISAValue, "half the pot sold")
	assertMoneyEquals(t, 5000, fs.StockNonISAValuePaid, "cost basis reduced proportionally")
	assertMoneyEquals(t, 600, fs.StockISAValue, "ISA covers the tax")
	assertMoneyEquals(t, 0, fs.CashValue, "deficit covered")
}

// =============================================================================
// Bankruptcy Tests
// =============================================================================

func TestBankruptcy_DeficitBeyondStocks(t *testing.T) {
	prior := FinancialSituation{
		CashValue:           0,
		StockISAValue:       5000,
		Rent:                1000,
		CumulativeInflation: 1.2,
		YearNumber:          4,
	}
	next := NextFinancialSituation(prior, NoGrowth(), rentingPolicy())

	if !next.Bankrupt {
		t.Fatal("expected bankruptcy when rent exceeds every asset")
	}
	assertMoneyEquals(t, 0, next.StockISAValue, "assets zeroed")
	assertMoneyEquals(t, 0, next.CashValue, "cash zeroed")
	assertMoneyEquals(t, 1.2, next.CumulativeInflation, "inflation index kept")
	if next.YearNumber != 5 {
		t.Errorf("expected year 5, got %d", next.YearNumber)
	}
}

func TestBankruptcy_WithinTolerance(t *testing.T) {
	fs := checkSolvency(FinancialSituation{CashValue: -0.5}, DefaultRules())
	if fs.Bankrupt {
		t.Error("a deficit within the tolerance is not bankruptcy")
	}
	fs = checkSolvency(FinancialSituation{CashValue: -1.5}, DefaultRules())
	if !fs.Bankrupt {
		t.Error("a deficit beyond the tolerance is bankruptcy")
	}
}

func TestInvariant_BankruptcyIsAbsorbing(t *testing.T) {
	fs := GoBankrupt(FinancialSituation{CashValue: 1234, HouseValue: 5678, CumulativeInflation: 1, YearNumber: 2})
	draws := YearDraws{Inflation: 1.03, Salary: 1.1, Stock: 1.2, House: 1.1, Rent: 1.05}

	for year := 3; year <= 10; year++ {
		fs = NextFinancialSituation(fs, draws, rentingPolicy())
		if !fs.Bankrupt {
			t.Fatalf("year %d: left bankruptcy", year)
		}
		if fs.YearNumber != year {
			t.Errorf("expected year %d, got %d", year, fs.YearNumber)
		}
		money := []float64{fs.HouseValue, fs.CashValue, fs.Salary, fs.Rent, fs.StockISAValue,
			fs.StockNonISAValue, fs.StockNonISAValuePaid, fs.MortgageBalance, fs.MoneySpent}
		for _, v := range money {
			if v != 0 {
				t.Fatalf("year %d: monetary field is %v, expected 0", year, v)
			}
		}
	}
	assertMoneyEquals(t, math.Pow(1.03, 8), fs.CumulativeInflation, "inflation keeps compounding")
}

// =============================================================================
// Purchase Tests
// =============================================================================

func TestBuyHouse_DefaultInputs(t *testing.T) {
	fs := BuyHouse(FinancialSituation{CashValue: 110000, Rent: 1875}, 500000, 400000, 5000, true)

	// 110000 - 100000 deposit - 3750 stamp duty - 5000 costs
	assertMoneyEquals(t, 1250, fs.CashValue, "cash after purchase")
	assertMoneyEquals(t, 8750, fs.MoneySpent, "stamp duty and costs")
	assertMoneyEquals(t, 400000, fs.MortgageBalance, "mortgage taken")
	assertMoneyEquals(t, 500000, fs.HouseValue, "house owned")
	assertMoneyEquals(t, 0, fs.Rent, "no rent once bought")
}

func TestBuyHouse_InsufficientCash(t *testing.T) {
	fs := BuyHouse(FinancialSituation{CashValue: 50000, CumulativeInflation: 1}, 500000, 400000, 5000, true)
	if !fs.Bankrupt {
		t.Fatal("expected bankruptcy when the deposit cannot be paid")
	}
	assertMoneyEquals(t, 0, fs.HouseValue, "no house")
	assertMoneyEquals(t, 0, fs.MortgageBalance, "no mortgage")
}

func TestInitialFinancialSituation(t *testing.T) {
	rules := DefaultRules()

	renting := InitialFinancialSituation(PurchaseParams{Cash: 110000, Salary: 5400, Rent: 1875}, rules)
	assertMoneyEquals(t, 20000, renting.StockISAValue, "renter fills the ISA")
	assertMoneyEquals(t, 90000, renting.StockNonISAValue, "renter invests the rest")
	assertMoneyEquals(t, 1875, renting.Rent, "renter keeps paying rent")
	if renting.YearNumber != 0 || renting.CumulativeInflation != 1 {
		t.Errorf("year 0 snapshot expected, got year %d inflation %v", renting.YearNumber, renting.CumulativeInflation)
	}

	buying := InitialFinancialSituation(PurchaseParams{
		IsBuying: true, HousePrice: 500000, Cash: 110000, Salary: 5400, Rent: 1875,
		Mortgage: 400000, BuyingCosts: 5000, FirstTimeBuyer: true,
	}, rules)
	assertMoneyEquals(t, 1250, buying.StockISAValue, "buyer invests what is left")
	assertMoneyEquals(t, 0, buying.CashValue, "no idle cash")
}

// =============================================================================
// Growth Composition Tests
// =============================================================================

func TestRules_Growth(t *testing.T) {
	draws := YearDraws{Inflation: 1.02, Salary: 1.01, Stock: 1.05, House: 1.03, Rent: 1.0}

	tests := []struct {
		name     string
		mutate   func(*Rules)
		expected GrowthFactors
	}{
		{
			name:     "real rates over inflation, rent coupled to house",
			mutate:   func(*Rules) {},
			expected: GrowthFactors{Inflation: 1.02, Salary: 1.0302, Stock: 1.071, House: 1.0506, Rent: 1.0506},
		},
		{
			name:     "nominal rates",
			mutate:   func(r *Rules) { r.RatesOverInflation = false },
			expected: GrowthFactors{Inflation: 1.02, Salary: 1.01, Stock: 1.05, House: 1.03, Rent: 1.03},
		},
		{
			name:     "rent decoupled tracks inflation",
			mutate:   func(r *Rules) { r.RentCoupledToHouse = false },
			expected: GrowthFactors{Inflation: 1.02, Salary: 1.0302, Stock: 1.071, House: 1.0506, Rent: 1.02},
		},
		{
			name:     "inflation off",
			mutate:   func(r *Rules) { r.ModelInflation = false },
			expected: GrowthFactors{Inflation: 1, Salary: 1.01, Stock: 1.05, House: 1.03, Rent: 1.03},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rules := DefaultRules()
			tc.mutate(&rules)
			got := rules.Growth(draws)
			pairs := []struct {
				field    string
				exp, got float64
			}{
				{"inflation", tc.expected.Inflation, got.Inflation},
				{"salary", tc.expected.Salary, got.Salary},
				{"stock", tc.expected.Stock, got.Stock},
				{"house", tc.expected.House, got.House},
				{"rent", tc.expected.Rent, got.Rent},
			}
			for _, p := range pairs {
				if math.Abs(p.exp-p.got) > 1e-12 {
					t.Errorf("%s: expected %v, got %v", p.field, p.exp, p.got)
				}
			}
		})
	}
}
