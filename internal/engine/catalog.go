package engine

import "fmt"

// Kind selects the category index of a dataset.
type Kind string

const (
	KindRisk       Kind = "risk"
	KindStatements Kind = "statements"
)

// Risk report categories.
const (
	MarketShare      Category = "Market Share"
	AssetQuality     Category = "Asset Quality"
	Capitalization   Category = "Capitalization"
	Profitability    Category = "Profitability"
	FundingStructure Category = "Funding Structure"
	Liquidity        Category = "Liquidity"
)

// Financial statement categories.
const (
	BalanceSheet    Category = "Balance Sheet"
	IncomeStatement Category = "Income Statement"
	CreditRisk      Category = "Credit Risk"
)

var riskIndex = MustCategoryIndex(string(KindRisk),
	CategoryEntry{MarketShare, []string{"Total Assets Market Share", "Deposits Market Share", "Loans Market Share"}},
	CategoryEntry{AssetQuality, []string{"NPLs / Gross Loan Portfolio (GLP)", "YoY GLP Growth", "LLR/ NPLs", "LLR/GLP", "YoY Loan Growth"}},
	CategoryEntry{Capitalization, []string{"Regulatory CAR", "CAR Headroom", "Equity / Assets", "OCER (NPLs - LLRs) / Equity", "Internal Capital Generation"}},
	CategoryEntry{Profitability, []string{"ROAA", "ROAE", "Operating Profits / Average Assets"}},
	CategoryEntry{FundingStructure, []string{"(Savings + Current) / Total Liabilities", "Market Funds / Total Liabilities"}},
	CategoryEntry{Liquidity, []string{"(Cash and Deposits + Securities) / Total Assets", "GLP / Deposits"}},
)

var statementIndex = MustCategoryIndex(string(KindStatements),
	CategoryEntry{BalanceSheet, []string{"Total Assets", "Gross Loan Portfolio", "Total Deposits", "Total Equity"}},
	CategoryEntry{IncomeStatement, []string{"Net Interest Income", "Operating Profit", "Net Income"}},
	CategoryEntry{CreditRisk, []string{"Non-Performing Loans", "Loan Loss Reserves"}},
)

// IndexFor returns the static category index for k. Indexes are shared
// and read-only; IndicatorsFor hands out copies.
func IndexFor(k Kind) (*CategoryIndex, error) {
	switch k {
	case KindRisk:
		return riskIndex, nil
	case KindStatements:
		return statementIndex, nil
	}
	return nil, fmt.Errorf("unknown dataset kind %q", k)
}
