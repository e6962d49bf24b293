package nelnet

import (
	"encoding/json"
	"time"
)

// Snapshot is the result of one full extraction run. It is assembled
// top-down by the scraper and never mutated afterwards; the persister
// consumes it as a read-only value.
type Snapshot struct {
	ScrapeTimestamp time.Time `json:"scrape_timestamp"`
	// PastDueAmount and MonthlyPaymentRemaining are only rendered by
	// the past-due variant of the overview banner. They are empty
	// strings, never omitted, when the account is in good standing.
	PastDueAmount           string  `json:"past_due_amount"`
	MonthlyPaymentRemaining string  `json:"monthly_payment_remaining"`
	CurrentAmountDue        string  `json:"current_amount_due"`
	DueDate                 string  `json:"due_date"`
	CurrentBalance          string  `json:"current_balance"`
	LastPaymentReceived     string  `json:"last_payment_received"`
	Groups                  []Group `json:"groups"`
}

// Group is a borrower-defined loan grouping. Its name recurs across
// snapshots and identifies the same real-world grouping every time.
type Group struct {
	Name          string      `json:"group"`
	LoanType      string      `json:"loan_type"`
	Status        string      `json:"status"`
	RepaymentPlan string      `json:"repayment_plan"`
	PaymentInfo   PaymentInfo `json:"payment_information"`
	BalanceInfo   BalanceInfo `json:"balance_information"`
	Loans         []Loan      `json:"loans"`
}

type PaymentInfo struct {
	CurrentAmountDue      string `json:"current_amount_due"`
	DueDate               string `json:"due_date"`
	InterestRate          string `json:"interest_rate"`
	RegularMonthlyPayment string `json:"regular_monthly_payment_amount"`
	LastPaymentReceived   string `json:"last_payment_received"`
}

type BalanceInfo struct {
	PrincipalBalance   string `json:"principal_balance"`
	AccruedInterest    string `json:"accrued_interest"`
	Fees               string `json:"fees"`
	OutstandingBalance string `json:"outstanding_balance"`
}

// Loan is an individual loan within a group, recurring by name across
// snapshots just like its group.
type Loan struct {
	Name            string          `json:"name"`
	GroupPlacement  string          `json:"group_placement"`
	LoanType        string          `json:"loan_type"`
	LoanStatus      string          `json:"loan_status"`
	InterestSubsidy string          `json:"interest_subsidy"`
	LenderName      string          `json:"lender_name"`
	SchoolName      string          `json:"school_name"`
	CurrentInfo     CurrentInfo     `json:"current_information"`
	HistoricInfo    HistoricInfo    `json:"historic_information"`
	BenefitDetails  []BenefitDetail `json:"benefit_details"`
}

type CurrentInfo struct {
	DueDate             string `json:"due_date"`
	InterestRate        string `json:"interest_rate"`
	InterestRateType    string `json:"interest_rate_type"`
	LoanTerm            string `json:"loan_term"`
	PrincipalBalance    string `json:"principal_balance"`
	AccruedInterest     string `json:"accrued_interest"`
	CapitalizedInterest string `json:"capitalized_interest"`
}

type HistoricInfo struct {
	ConvertToRepayment string   `json:"convert_to_repayment"`
	OriginalLoanAmount string   `json:"original_loan_amount"`
	Disbursements      []string `json:"disbursements"`
}

// BenefitDetail serializes as a two element [name, status] tuple.
type BenefitDetail struct {
	Name   string
	Status string
}

func (b BenefitDetail) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{b.Name, b.Status})
}

func (b *BenefitDetail) UnmarshalJSON(data []byte) error {
	var tuple [2]string
	err := json.Unmarshal(data, &tuple)
	if err != nil {
		return err
	}
	b.Name = tuple[0]
	b.Status = tuple[1]
	return nil
}
