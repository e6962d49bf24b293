package nelnet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSnapshotJSONRoundTrip(t *testing.T) {
	original := Snapshot{
		ScrapeTimestamp:     time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC),
		CurrentAmountDue:    "$125.00",
		DueDate:             "09/15/2026",
		CurrentBalance:      "$10,250.33",
		LastPaymentReceived: "$125.00 on 08/01/2026",
		Groups: []Group{{
			Name:          "Group A",
			LoanType:      "Consolidation",
			Status:        "Current",
			RepaymentPlan: "Income-Based",
			PaymentInfo: PaymentInfo{
				CurrentAmountDue:      "$125.00",
				DueDate:               "09/15/2026",
				InterestRate:          "6.08%",
				RegularMonthlyPayment: "$125.00",
				LastPaymentReceived:   "$125.00 on 08/01/2026",
			},
			BalanceInfo: BalanceInfo{
				PrincipalBalance:   "$10,000.00",
				AccruedInterest:    "$250.33",
				Fees:               "$0.00",
				OutstandingBalance: "$10,250.33",
			},
			Loans: []Loan{{
				Name:            "Loan 1",
				GroupPlacement:  "1 of 1",
				LoanType:        "Direct Subsidized",
				LoanStatus:      "Repayment",
				InterestSubsidy: "Subsidized",
				LenderName:      "Dept of Education",
				SchoolName:      "State University",
				CurrentInfo: CurrentInfo{
					DueDate:             "09/15/2026",
					InterestRate:        "6.08% Fixed",
					InterestRateType:    "Fixed",
					LoanTerm:            "120 months",
					PrincipalBalance:    "$5,000.00",
					AccruedInterest:     "$20.00",
					CapitalizedInterest: "$0.00",
				},
				HistoricInfo: HistoricInfo{
					ConvertToRepayment: "11/15/2020",
					OriginalLoanAmount: "$4,500.00",
					Disbursements:      []string{"$2,250.00 on 08/15/2019"},
				},
				BenefitDetails: []BenefitDetail{{Name: "Auto Debit", Status: "Active"}},
			}},
		}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Empty(t, cmp.Diff(original, decoded))
}

func TestBenefitDetailTupleForm(t *testing.T) {
	data, err := json.Marshal(BenefitDetail{Name: "Auto Debit", Status: "Active"})
	require.NoError(t, err)
	require.JSONEq(t, `["Auto Debit","Active"]`, string(data))

	var detail BenefitDetail
	require.NoError(t, json.Unmarshal([]byte(`["Unemployment Deferment","Inactive"]`), &detail))
	require.Equal(t, BenefitDetail{Name: "Unemployment Deferment", Status: "Inactive"}, detail)

	require.Error(t, json.Unmarshal([]byte(`{"name":"Auto Debit"}`), &detail))
}

func TestAbsentOverviewFieldsSerializeExplicitly(t *testing.T) {
	data, err := json.Marshal(Snapshot{})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "past_due_amount")
	require.Contains(t, raw, "monthly_payment_remaining")
	require.JSONEq(t, `""`, string(raw["past_due_amount"]))
}
