package nelnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Homebrew-Software/nelnet-tracker/lib/dom"
	"github.com/Homebrew-Software/nelnet-tracker/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/nelnet")

// ErrUnknownLayout reports that the overview section matched neither
// known banner variant. The page structure has likely changed and the
// run cannot continue.
var ErrUnknownLayout = fmt.Errorf("unrecognized overview layout")

const awaitTimeout = time.Second * 10

// Scraper extracts one loan-details snapshot from a document tree that
// is already positioned on the account page. It owns the source for the
// duration of one run and closes it on every exit path.
type Scraper struct {
	src dom.ElementSource
}

func NewScraper(src dom.ElementSource) Scraper {
	return Scraper{src: src}
}

func mainContentPath() dom.Path {
	return dom.Root("html").
		Child("body").
		Child("app-root").
		Child("layout-content-layout").
		Id("div", "mainContent").
		Child("main").
		Child("loan-loan-details").
		Child("loan-single-account").
		Child("div").
		Nth("div", 2)
}

func (s Scraper) text(path dom.Path) (string, error) {
	n, err := s.src.Locate(path)
	if err != nil {
		return "", err
	}
	return s.src.Text(n), nil
}

// Scrape walks the whole page and assembles a Snapshot. Lookup
// failures inside enumeration probes terminate their level normally;
// every other failure aborts the run.
func (s Scraper) Scrape(ctx context.Context) (snap Snapshot, err error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	defer func() {
		closeErr := s.src.Close()
		if err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	mainNode := mainContentPath()
	_, err = s.src.AwaitPresence(ctx, mainNode, awaitTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "main content never rendered")
		return Snapshot{}, fmt.Errorf("main content: %w", err)
	}

	snap, err = s.scrapeOverview(ctx, mainNode.Nth("div", 2))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape overview")
		return Snapshot{}, err
	}

	groups := []Group{}
	for i := 1; ; i++ {
		groupPath := mainNode.
			Class("div", "u-grid-container").
			ClassNth("div", "ng-star-inserted", i)
		_, probeErr := s.src.Locate(groupPath)
		if errors.Is(probeErr, dom.ErrNotFound) {
			break
		}

		group, err := s.scrapeGroup(ctx, groupPath)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to scrape group")
			return Snapshot{}, fmt.Errorf("group %d: %w", i, err)
		}

		// loan detail hides behind a collapsed accordion, expand it
		// and wait for the subtree before probing
		loansPath := groupPath.
			Child("u-panel-accordion").
			Child("u-panel").
			Child("div")
		err = s.src.Trigger(ctx, loansPath.
			Child("u-panel-header").
			Child("span").
			Child("button"))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to expand accordion")
			return Snapshot{}, fmt.Errorf("group %d accordion: %w", i, err)
		}
		_, err = s.src.AwaitPresence(ctx, loansPath.Child("div"), awaitTimeout)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "accordion content never rendered")
			return Snapshot{}, fmt.Errorf("group %d accordion content: %w", i, err)
		}

		group.Loans, err = s.scrapeLoans(ctx, loansPath.
			Child("div").
			Child("div").
			Child("div"))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to scrape loans")
			return Snapshot{}, fmt.Errorf("group %d loans: %w", i, err)
		}

		groups = append(groups, group)
	}
	snap.Groups = groups
	snap.ScrapeTimestamp = time.Now()

	span.SetAttributes(attribute.Int("groups", len(groups)))
	slog.Debug("scraped snapshot", "groups", len(groups))

	return snap, nil
}

// the overview renders one of two banners: an account that is past due
// shows four payment fields, one in good standing shows two. the label
// of the first field tells the variants apart.
func (s Scraper) scrapeOverview(ctx context.Context, overview dom.Path) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "scrapeOverview")
	defer span.End()

	payment := overview.Nth("div", 1)
	marker, err := s.text(payment.Nth("div", 1))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "overview marker missing")
		return Snapshot{}, fmt.Errorf("overview marker: %w", err)
	}

	var snap Snapshot
	switch textutil.NormalizeName(marker) {
	case "amountpastdue":
		fields := [4]*string{
			&snap.PastDueAmount,
			&snap.MonthlyPaymentRemaining,
			&snap.CurrentAmountDue,
			&snap.DueDate,
		}
		for i, field := range fields {
			*field, err = s.text(payment.Nth("div", (i+1)*2))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "past-due overview field missing")
				return Snapshot{}, fmt.Errorf("past-due overview: %w", err)
			}
		}
	case "currentamountdue":
		snap.CurrentAmountDue, err = s.text(payment.Nth("div", 2))
		if err == nil {
			snap.DueDate, err = s.text(payment.Nth("div", 4))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "overview field missing")
			return Snapshot{}, fmt.Errorf("overview: %w", err)
		}
	default:
		span.SetStatus(codes.Error, "unrecognized overview layout")
		return Snapshot{}, fmt.Errorf("%w: marker %q", ErrUnknownLayout, marker)
	}

	balances := overview.Nth("div", 2)
	snap.CurrentBalance, err = s.text(balances.Nth("div", 2))
	if err == nil {
		snap.LastPaymentReceived, err = s.text(balances.Nth("div", 4).Child("div"))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "overview balance field missing")
		return Snapshot{}, fmt.Errorf("overview balances: %w", err)
	}

	return snap, nil
}

func (s Scraper) scrapeGroup(ctx context.Context, groupPath dom.Path) (Group, error) {
	ctx, span := tracer.Start(ctx, "scrapeGroup")
	defer span.End()

	var group Group
	var err error
	data := groupPath.Child("div")

	fields := []struct {
		dest *string
		path dom.Path
	}{
		{&group.Name, groupPath.Child("h2")},
		{&group.LoanType, data.Nth("div", 1).Nth("div", 2)},
		{&group.Status, data.Nth("div", 1).Nth("div", 4)},
		{&group.RepaymentPlan, data.Nth("div", 2).Nth("p", 2)},
		{&group.PaymentInfo.CurrentAmountDue, data.Nth("div", 3).Nth("div", 2)},
		{&group.PaymentInfo.DueDate, data.Nth("div", 3).Nth("div", 4)},
		{&group.PaymentInfo.InterestRate, data.Nth("div", 3).Nth("div", 6)},
		{&group.PaymentInfo.RegularMonthlyPayment, data.Nth("div", 3).Nth("div", 8)},
		{&group.PaymentInfo.LastPaymentReceived, data.Nth("div", 3).Nth("div", 10).Child("div")},
		{&group.BalanceInfo.PrincipalBalance, data.Nth("div", 4).Nth("div", 2)},
		{&group.BalanceInfo.AccruedInterest, data.Nth("div", 4).Nth("div", 4)},
		{&group.BalanceInfo.Fees, data.Nth("div", 4).Nth("div", 6)},
		{&group.BalanceInfo.OutstandingBalance, data.Nth("div", 4).Nth("div", 8)},
	}
	for _, f := range fields {
		*f.dest, err = s.text(f.path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "group field missing")
			return Group{}, err
		}
	}

	span.SetAttributes(attribute.String("group", group.Name))
	return group, nil
}

func (s Scraper) scrapeLoans(ctx context.Context, loansPath dom.Path) ([]Loan, error) {
	ctx, span := tracer.Start(ctx, "scrapeLoans")
	defer span.End()

	loans := []Loan{}
	for i := 1; ; i++ {
		loanPath := loansPath.Nth("div", i)
		_, probeErr := s.src.Locate(loanPath)
		if errors.Is(probeErr, dom.ErrNotFound) {
			break
		}

		loan, err := s.scrapeLoan(ctx, loanPath)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to scrape loan")
			return nil, fmt.Errorf("loan %d: %w", i, err)
		}
		loans = append(loans, loan)
	}

	span.SetAttributes(attribute.Int("loans", len(loans)))
	return loans, nil
}

func (s Scraper) scrapeLoan(ctx context.Context, loanPath dom.Path) (Loan, error) {
	ctx, span := tracer.Start(ctx, "scrapeLoan")
	defer span.End()

	var loan Loan
	var err error
	data := loanPath.
		Child("u-card").
		Child("u-card-content").
		Child("div")

	fields := []struct {
		dest *string
		path dom.Path
	}{
		{&loan.Name, loanPath.Child("h3").Child("strong")},
		{&loan.GroupPlacement, loanPath.Child("h3").Child("span")},
		{&loan.LoanType, data.Nth("div", 1).Nth("div", 2)},
		{&loan.LoanStatus, data.Nth("div", 1).Nth("div", 4)},
		{&loan.InterestSubsidy, data.Nth("div", 1).Nth("div", 6)},
		{&loan.LenderName, data.Nth("div", 2).Nth("div", 2)},
		{&loan.SchoolName, data.Nth("div", 2).Nth("div", 4)},
		{&loan.CurrentInfo.DueDate, data.Nth("div", 3).Nth("div", 2)},
		{&loan.CurrentInfo.InterestRate, data.Nth("div", 3).Nth("div", 4)},
		{&loan.CurrentInfo.InterestRateType, data.Nth("div", 3).Nth("div", 4).Child("span")},
		{&loan.CurrentInfo.LoanTerm, data.Nth("div", 3).Nth("div", 6).Child("div")},
		{&loan.CurrentInfo.PrincipalBalance, data.Nth("div", 4).Nth("div", 2)},
		{&loan.CurrentInfo.AccruedInterest, data.Nth("div", 4).Nth("div", 4)},
		{&loan.CurrentInfo.CapitalizedInterest, data.Nth("div", 4).Nth("div", 6)},
		{&loan.HistoricInfo.ConvertToRepayment, data.Nth("div", 5).Nth("div", 2)},
		{&loan.HistoricInfo.OriginalLoanAmount, data.Nth("div", 5).Nth("div", 4)},
	}
	for _, f := range fields {
		*f.dest, err = s.text(f.path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "loan field missing")
			return Loan{}, err
		}
	}

	loan.HistoricInfo.Disbursements = []string{}
	for i := 1; ; i++ {
		disbursement, err := s.text(data.
			Nth("div", 6).
			Nth("div", 2).
			Nth("div", i).
			Child("div"))
		if errors.Is(err, dom.ErrNotFound) {
			break
		}
		if err != nil {
			span.RecordError(err)
			return Loan{}, err
		}
		loan.HistoricInfo.Disbursements = append(loan.HistoricInfo.Disbursements, disbursement)
	}

	loan.BenefitDetails = []BenefitDetail{}
	benefitsBody := data.
		Nth("div", 7).
		Nth("div", 2).
		Child("table").
		Child("tbody")
	for i := 1; ; i++ {
		row := benefitsBody.Nth("tr", i)
		name, err := s.text(row.Nth("td", 1))
		if errors.Is(err, dom.ErrNotFound) {
			break
		}
		if err != nil {
			span.RecordError(err)
			return Loan{}, err
		}
		status, err := s.text(row.Nth("td", 2))
		if errors.Is(err, dom.ErrNotFound) {
			break
		}
		if err != nil {
			span.RecordError(err)
			return Loan{}, err
		}
		loan.BenefitDetails = append(loan.BenefitDetails, BenefitDetail{
			Name:   name,
			Status: status,
		})
	}

	span.SetAttributes(attribute.String("loan", loan.Name))
	return loan, nil
}
