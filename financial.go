package main

import "math"

// InitialFinancialSituation builds the year-0 snapshot: buy the house if the scenario
// buys, put any surplus cash into stocks and check solvency.
func InitialFinancialSituation(p PurchaseParams, rules Rules) FinancialSituation {
	fs := FinancialSituation{
		CashValue:           p.Cash,
		Salary:              p.Salary,
		Rent:                p.Rent,
		CumulativeInflation: 1,
	}

	if p.IsBuying {
		fs = BuyHouse(fs, p.HousePrice, p.Mortgage, p.BuyingCosts, p.FirstTimeBuyer)
		if fs.Bankrupt {
			return fs
		}
	}

	fs = investSurplus(fs, rules)
	return checkSolvency(fs, rules)
}

// BuyHouse pays the deposit, stamp duty and buying costs and takes out the mortgage.
// A household that cannot cover the upfront cash goes bankrupt.
func BuyHouse(fs FinancialSituation, housePrice, mortgage, buyingCosts float64, firstTimeBuyer bool) FinancialSituation {
	stampDuty := ComputeStampDuty(housePrice, firstTimeBuyer)
	deposit := housePrice - mortgage
	cashNeeded := stampDuty + buyingCosts + deposit
	if cashNeeded > fs.CashValue {
		return GoBankrupt(fs)
	}

	fs.CashValue -= cashNeeded
	fs.MortgageBalance += mortgage
	fs.MoneySpent += stampDuty + buyingCosts
	fs.HouseValue += housePrice
	fs.Rent = 0
	return fs
}

// GoBankrupt zeroes every monetary field. Year number and cumulative inflation are kept
// so the trajectory stays aligned with the others.
func GoBankrupt(fs FinancialSituation) FinancialSituation {
	return FinancialSituation{
		CumulativeInflation: fs.CumulativeInflation,
		YearNumber:          fs.YearNumber,
		Bankrupt:            true,
	}
}

// NextFinancialSituation advances a snapshot by one year.
// The steps run in a fixed order: income, mortgage, running costs, rent, appreciation,
// pay and rent rises, overpayment, investing, liquidation, insolvency, then inflation.
func NextFinancialSituation(prior FinancialSituation, draws YearDraws, policy Policy) FinancialSituation {
	growth := policy.Rules.Growth(draws)
	next := prior

	if next.Bankrupt {
		next.CumulativeInflation *= growth.Inflation
		next.YearNumber++
		return next
	}

	next = receiveSalary(next)
	next = payMortgage(next, policy.Mortgage)
	next = payRunningHouseCosts(next, policy)
	if !policy.IsBuying {
		next = payRent(next)
	}
	next = appreciate(next, growth)
	next = applyRaises(next, growth)
	if policy.MortgageOverpay {
		next = overpayMortgage(next)
	}
	next = investSurplus(next, policy.Rules)
	if next.CashValue < 0 {
		next = liquidateStocks(next, policy.Rules)
	}
	next = checkSolvency(next, policy.Rules)

	next.CumulativeInflation *= growth.Inflation
	next.YearNumber++
	return next
}

func receiveSalary(fs FinancialSituation) FinancialSituation {
	fs.CashValue += fs.Salary * 12
	return fs
}

// payMortgage makes a year of payments. The last payment is cut to what is owed, and a
// payment below the interest due is raised to interest-only so the balance never grows.
func payMortgage(fs FinancialSituation, terms MortgageStage) FinancialSituation {
	if fs.MortgageBalance <= 0 {
		return fs
	}

	interest := fs.MortgageBalance * terms.InterestRate / 100
	payment := terms.MonthlyPayment * 12
	principalReduction := payment - interest
	if principalReduction > fs.MortgageBalance {
		principalReduction = fs.MortgageBalance
		payment = principalReduction + interest
	}
	if principalReduction < 0 {
		principalReduction = 0
		payment = interest
	}

	fs.MortgageBalance -= principalReduction
	fs.CashValue -= payment
	fs.MoneySpent += interest
	return fs
}

// RunningHouseCosts returns a year of maintenance, ground rent, service charge and insurance
func RunningHouseCosts(houseValue float64, policy Policy) float64 {
	maintenance := houseValue * policy.MaintenanceRate / 100
	serviceCharge := policy.ServiceCharge
	if policy.ServiceChargeMode == ServiceChargeRate {
		serviceCharge = houseValue * policy.ServiceCharge / 100
	}
	return maintenance + policy.GroundRent + serviceCharge + policy.HomeInsurance
}

func payRunningHouseCosts(fs FinancialSituation, policy Policy) FinancialSituation {
	costs := RunningHouseCosts(fs.HouseValue, policy)
	fs.CashValue -= costs
	fs.MoneySpent += costs
	return fs
}

func payRent(fs FinancialSituation) FinancialSituation {
	fs.CashValue -= fs.Rent * 12
	fs.MoneySpent += fs.Rent * 12
	return fs
}

func appreciate(fs FinancialSituation, growth GrowthFactors) FinancialSituation {
	fs.HouseValue *= growth.House
	fs.StockISAValue *= growth.Stock
	fs.StockNonISAValue *= growth.Stock
	return fs
}

func applyRaises(fs FinancialSituation, growth GrowthFactors) FinancialSituation {
	fs.Salary *= growth.Salary
	fs.Rent *= growth.Rent
	return fs
}

func overpayMortgage(fs FinancialSituation) FinancialSituation {
	if fs.CashValue <= 0 {
		return fs
	}
	overpayment := math.Min(fs.CashValue, fs.MortgageBalance)
	fs.CashValue -= overpayment
	fs.MortgageBalance -= overpayment
	return fs
}

// investSurplus moves positive cash into stocks, filling the ISA allowance first
func investSurplus(fs FinancialSituation, rules Rules) FinancialSituation {
	if fs.CashValue <= 0 {
		return fs
	}
	isaInvestment := math.Min(fs.CashValue, rules.ISAAllowance)
	nonISAInvestment := fs.CashValue - isaInvestment

	fs.CashValue -= isaInvestment + nonISAInvestment
	fs.StockISAValue += isaInvestment
	fs.StockNonISAValue += nonISAInvestment
	fs.StockNonISAValuePaid += nonISAInvestment
	return fs
}

// liquidateStocks covers negative cash by selling the non-ISA pot first, then the ISA.
// The non-ISA sale is sized before capital gains tax, so cash can stay slightly negative
// when no ISA is left to cover the tax.
func liquidateStocks(fs FinancialSituation, rules Rules) FinancialSituation {
	nonISAToSell := math.Min(fs.StockNonISAValue, -fs.CashValue)
	fraction := 0.0
	if fs.StockNonISAValue > 0 {
		fraction = nonISAToSell / fs.StockNonISAValue
	}
	costBasis := fs.StockNonISAValuePaid * fraction
	tax := ComputeCapitalGainsTax(nonISAToSell-costBasis, rules.CapitalGains)

	fs.CashValue += nonISAToSell - tax
	fs.StockNonISAValue -= nonISAToSell
	fs.StockNonISAValuePaid -= costBasis

	isaToSell := math.Min(fs.StockISAValue, -fs.CashValue)
	if isaToSell > 0 {
		fs.CashValue += isaToSell
		fs.StockISAValue -= isaToSell
	}
	return fs
}

func checkSolvency(fs FinancialSituation, rules Rules) FinancialSituation {
	if fs.CashValue < -rules.BankruptcyTolerance {
		return GoBankrupt(fs)
	}
	return fs
}
