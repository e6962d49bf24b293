package nelnet

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Homebrew-Software/nelnet-tracker/lib/dom"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// fixtures render the loan-details page the way the account site lays
// it out: an overview banner, then one collapsible panel per group with
// the loan cards inside.

type loanFixture struct {
	name          string
	disbursements []string
	benefits      []BenefitDetail
}

type groupFixture struct {
	name  string
	loans []loanFixture
}

type pageFixture struct {
	pastDue bool
	groups  []groupFixture
}

func buildPage(f pageFixture) string {
	var b strings.Builder
	b.WriteString(`<html><body><app-root><layout-content-layout>` +
		`<div id="mainContent"><main><loan-loan-details><loan-single-account><div>`)
	b.WriteString(`<div>Welcome back</div>`)
	b.WriteString(`<div>`)
	b.WriteString(`<div>Account summary</div>`)

	b.WriteString(`<div><div>`)
	if f.pastDue {
		b.WriteString(`<div>Amount Past Due</div><div>$50.00</div>` +
			`<div>Monthly Payments Remaining</div><div>3</div>` +
			`<div>Current Amount Due</div><div>$175.00</div>` +
			`<div>Due Date</div><div>09/15/2026</div>`)
	} else {
		b.WriteString(`<div>Current Amount Due</div><div>$125.00</div>` +
			`<div>Due Date</div><div>09/15/2026</div>`)
	}
	b.WriteString(`</div><div>` +
		`<div>Current Balance</div><div>$10,250.33</div>` +
		`<div>Last Payment Received</div><div><div>$125.00 on 08/01/2026</div></div>` +
		`</div></div>`)

	b.WriteString(`<div class="u-grid-container">`)
	for _, g := range f.groups {
		buildGroup(&b, g)
	}
	b.WriteString(`</div>`)

	b.WriteString(`</div></div></loan-single-account></loan-loan-details>` +
		`</main></div></layout-content-layout></app-root></body></html>`)
	return b.String()
}

func buildGroup(b *strings.Builder, g groupFixture) {
	fmt.Fprintf(b, `<div class="ng-star-inserted"><h2>%s</h2><div>`, g.name)
	fmt.Fprintf(b, `<div><div>Loan Type</div><div>Consolidation (%s)</div>`+
		`<div>Status</div><div>Current</div></div>`, g.name)
	b.WriteString(`<div><p>Repayment Plan</p><p>Income-Based</p></div>`)
	b.WriteString(`<div>` +
		`<div>Current Amount Due</div><div>$125.00</div>` +
		`<div>Due Date</div><div>09/15/2026</div>` +
		`<div>Interest Rate</div><div>6.08%</div>` +
		`<div>Regular Monthly Payment Amount</div><div>$125.00</div>` +
		`<div>Last Payment Received</div><div><div>$125.00 on 08/01/2026</div></div>` +
		`</div>`)
	b.WriteString(`<div>` +
		`<div>Principal Balance</div><div>$10,000.00</div>` +
		`<div>Accrued Interest</div><div>$250.33</div>` +
		`<div>Fees</div><div>$0.00</div>` +
		`<div>Outstanding Balance</div><div>$10,250.33</div>` +
		`</div>`)
	b.WriteString(`</div><u-panel-accordion><u-panel><div>` +
		`<u-panel-header><span><button>View Loans</button></span></u-panel-header>` +
		`<div><div><div>`)
	for i, l := range g.loans {
		buildLoan(b, l, i+1, len(g.loans))
	}
	b.WriteString(`</div></div></div></div></u-panel></u-panel-accordion></div>`)
}

func buildLoan(b *strings.Builder, l loanFixture, position, total int) {
	fmt.Fprintf(b, `<div><h3><strong>%s</strong> <span>%d of %d</span></h3>`,
		l.name, position, total)
	b.WriteString(`<u-card><u-card-content><div>`)
	b.WriteString(`<div><div>Loan Type</div><div>Direct Subsidized</div>` +
		`<div>Loan Status</div><div>Repayment</div>` +
		`<div>Interest Subsidy</div><div>Subsidized</div></div>`)
	b.WriteString(`<div><div>Lender Name</div><div>Dept of Education</div>` +
		`<div>School Name</div><div>State University</div></div>`)
	b.WriteString(`<div><div>Due Date</div><div>09/15/2026</div>` +
		`<div>Interest Rate</div><div>6.08% <span>Fixed</span></div>` +
		`<div>Loan Term</div><div><div>120 months</div></div></div>`)
	b.WriteString(`<div><div>Principal Balance</div><div>$5,000.00</div>` +
		`<div>Accrued Interest</div><div>$20.00</div>` +
		`<div>Capitalized Interest</div><div>$0.00</div></div>`)
	b.WriteString(`<div><div>Convert to Repayment</div><div>11/15/2020</div>` +
		`<div>Original Loan Amount</div><div>$4,500.00</div></div>`)
	b.WriteString(`<div><div>Disbursement(s)</div><div>`)
	for _, d := range l.disbursements {
		fmt.Fprintf(b, `<div><div>%s</div></div>`, d)
	}
	b.WriteString(`</div></div>`)
	b.WriteString(`<div><div>Benefit Details</div><div><table><tbody>`)
	for _, benefit := range l.benefits {
		fmt.Fprintf(b, `<tr><td>%s</td><td>%s</td></tr>`, benefit.Name, benefit.Status)
	}
	b.WriteString(`</tbody></table></div></div>`)
	b.WriteString(`</div></u-card-content></u-card></div>`)
}

func scrapeFixture(t *testing.T, f pageFixture) Snapshot {
	src, err := dom.NewStaticSource(strings.NewReader(buildPage(f)))
	require.NoError(t, err)
	snap, err := NewScraper(src).Scrape(context.Background())
	require.NoError(t, err)
	return snap
}

func TestScrapeStandardOverview(t *testing.T) {
	snap := scrapeFixture(t, pageFixture{
		groups: []groupFixture{{
			name: "Group A",
			loans: []loanFixture{{
				name:          "Loan 1",
				disbursements: []string{"$2,250.00 on 08/15/2019", "$2,250.00 on 01/15/2020"},
				benefits:      []BenefitDetail{{Name: "Auto Debit", Status: "Active"}},
			}},
		}},
	})

	require.Equal(t, "", snap.PastDueAmount)
	require.Equal(t, "", snap.MonthlyPaymentRemaining)
	require.Equal(t, "$125.00", snap.CurrentAmountDue)
	require.Equal(t, "09/15/2026", snap.DueDate)
	require.Equal(t, "$10,250.33", snap.CurrentBalance)
	require.Equal(t, "$125.00 on 08/01/2026", snap.LastPaymentReceived)
	require.WithinDuration(t, time.Now(), snap.ScrapeTimestamp, time.Minute)

	require.Len(t, snap.Groups, 1)
	group := snap.Groups[0]
	require.Equal(t, "Group A", group.Name)
	require.Equal(t, "Consolidation (Group A)", group.LoanType)
	require.Equal(t, "Current", group.Status)
	require.Equal(t, "Income-Based", group.RepaymentPlan)
	require.Equal(t, PaymentInfo{
		CurrentAmountDue:      "$125.00",
		DueDate:               "09/15/2026",
		InterestRate:          "6.08%",
		RegularMonthlyPayment: "$125.00",
		LastPaymentReceived:   "$125.00 on 08/01/2026",
	}, group.PaymentInfo)
	require.Equal(t, BalanceInfo{
		PrincipalBalance:   "$10,000.00",
		AccruedInterest:    "$250.33",
		Fees:               "$0.00",
		OutstandingBalance: "$10,250.33",
	}, group.BalanceInfo)

	require.Len(t, group.Loans, 1)
	loan := group.Loans[0]
	require.Equal(t, "Loan 1", loan.Name)
	require.Equal(t, "1 of 1", loan.GroupPlacement)
	require.Equal(t, "Direct Subsidized", loan.LoanType)
	require.Equal(t, "Repayment", loan.LoanStatus)
	require.Equal(t, "Subsidized", loan.InterestSubsidy)
	require.Equal(t, "Dept of Education", loan.LenderName)
	require.Equal(t, "State University", loan.SchoolName)
	require.Equal(t, CurrentInfo{
		DueDate:             "09/15/2026",
		InterestRate:        "6.08% Fixed",
		InterestRateType:    "Fixed",
		LoanTerm:            "120 months",
		PrincipalBalance:    "$5,000.00",
		AccruedInterest:     "$20.00",
		CapitalizedInterest: "$0.00",
	}, loan.CurrentInfo)
	require.Equal(t, "11/15/2020", loan.HistoricInfo.ConvertToRepayment)
	require.Equal(t, "$4,500.00", loan.HistoricInfo.OriginalLoanAmount)
	require.Equal(
		t,
		[]string{"$2,250.00 on 08/15/2019", "$2,250.00 on 01/15/2020"},
		loan.HistoricInfo.Disbursements,
	)
	require.Equal(t, []BenefitDetail{{Name: "Auto Debit", Status: "Active"}}, loan.BenefitDetails)
}

func TestScrapePastDueOverview(t *testing.T) {
	snap := scrapeFixture(t, pageFixture{pastDue: true})
	require.Equal(t, "$50.00", snap.PastDueAmount)
	require.Equal(t, "3", snap.MonthlyPaymentRemaining)
	require.Equal(t, "$175.00", snap.CurrentAmountDue)
	require.Equal(t, "09/15/2026", snap.DueDate)
	require.Equal(t, "$10,250.33", snap.CurrentBalance)
	require.Equal(t, "$125.00 on 08/01/2026", snap.LastPaymentReceived)
}

func TestScrapeUnknownOverview(t *testing.T) {
	page := strings.Replace(
		buildPage(pageFixture{}),
		"Current Amount Due", "Total Amount Due", 1,
	)
	src, err := dom.NewStaticSource(strings.NewReader(page))
	require.NoError(t, err)
	_, err = NewScraper(src).Scrape(context.Background())
	require.ErrorIs(t, err, ErrUnknownLayout)
}

func TestScrapeEnumeration(t *testing.T) {
	snap := scrapeFixture(t, pageFixture{})
	require.Empty(t, snap.Groups)

	fixture := pageFixture{}
	for g := 0; g < 5; g++ {
		group := groupFixture{name: fmt.Sprintf("Group %d", g+1)}
		for l := 0; l < g; l++ {
			loan := loanFixture{name: fmt.Sprintf("Loan %d-%d", g+1, l+1)}
			for d := 0; d < l; d++ {
				loan.disbursements = append(
					loan.disbursements,
					fmt.Sprintf("$1,000.00 on 0%d/15/2019", d+1),
				)
			}
			for n := 0; n < l; n++ {
				loan.benefits = append(loan.benefits, BenefitDetail{
					Name:   fmt.Sprintf("Benefit %d", n+1),
					Status: "Active",
				})
			}
			group.loans = append(group.loans, loan)
		}
		fixture.groups = append(fixture.groups, group)
	}

	snap = scrapeFixture(t, fixture)
	require.Len(t, snap.Groups, 5)
	for g, group := range snap.Groups {
		require.Equal(t, fmt.Sprintf("Group %d", g+1), group.Name)
		require.Len(t, group.Loans, g)
		for l, loan := range group.Loans {
			require.Equal(t, fmt.Sprintf("Loan %d-%d", g+1, l+1), loan.Name)
			require.Len(t, loan.HistoricInfo.Disbursements, l)
			require.Len(t, loan.BenefitDetails, l)
		}
	}
}

// recordingSource counts panel expansions and close calls on top of a
// static document.
type recordingSource struct {
	*dom.StaticSource
	triggered []string
	closed    bool
}

func (r *recordingSource) Trigger(ctx context.Context, path dom.Path) error {
	r.triggered = append(r.triggered, path.String())
	return r.StaticSource.Trigger(ctx, path)
}

func (r *recordingSource) Close() error {
	r.closed = true
	return r.StaticSource.Close()
}

func TestScrapeExpandsEveryGroup(t *testing.T) {
	static, err := dom.NewStaticSource(strings.NewReader(buildPage(pageFixture{
		groups: []groupFixture{
			{name: "Group A", loans: []loanFixture{{name: "Loan 1"}}},
			{name: "Group B", loans: []loanFixture{{name: "Loan 2"}}},
			{name: "Group C"},
		},
	})))
	require.NoError(t, err)

	src := &recordingSource{StaticSource: static}
	_, err = NewScraper(src).Scrape(context.Background())
	require.NoError(t, err)

	require.Len(t, src.triggered, 3)
	for _, path := range src.triggered {
		require.Contains(t, path, "u-panel-header")
	}
	require.True(t, src.closed)
}

// stalledSource simulates a panel whose content never renders after
// expansion.
type stalledSource struct {
	*dom.StaticSource
	closed bool
}

func (s *stalledSource) AwaitPresence(ctx context.Context, path dom.Path, timeout time.Duration) (*html.Node, error) {
	if strings.Contains(path.String(), "u-panel") {
		return nil, fmt.Errorf("%w: %s", dom.ErrTimedOut, path)
	}
	return s.StaticSource.AwaitPresence(ctx, path, timeout)
}

func (s *stalledSource) Close() error {
	s.closed = true
	return s.StaticSource.Close()
}

func TestScrapeAbortsWhenPanelNeverRenders(t *testing.T) {
	static, err := dom.NewStaticSource(strings.NewReader(buildPage(pageFixture{
		groups: []groupFixture{{name: "Group A", loans: []loanFixture{{name: "Loan 1"}}}},
	})))
	require.NoError(t, err)

	src := &stalledSource{StaticSource: static}
	_, err = NewScraper(src).Scrape(context.Background())
	require.ErrorIs(t, err, dom.ErrTimedOut)
	require.True(t, src.closed)
}
