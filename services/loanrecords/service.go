package loanrecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Homebrew-Software/nelnet-tracker/lib/scrapers/nelnet"
	"github.com/Homebrew-Software/nelnet-tracker/lib/textutil"
	"github.com/Homebrew-Software/nelnet-tracker/services/loanrecords/db"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/loanrecords")

// Service writes scraped snapshots into the record store and reads
// aggregates back out. The store is assumed single-writer: the
// lookup-or-insert dedup below is a plain check-then-act and a second
// concurrent writer could race it into duplicate dimension rows.
type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

// Push persists one snapshot inside a single transaction. Group and
// loan dimension rows are reused by name when they already exist;
// every fact row is stamped with the identifiers of the snapshot and
// dimension rows it belongs to. On any failure the whole run rolls
// back and the store is left untouched.
func (s Service) Push(ctx context.Context, snap nelnet.Snapshot) error {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()

	span.SetAttributes(attribute.Int("groups", len(snap.Groups)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	mainRecordId, err := txqry.CreateMainRecord(ctx, db.CreateMainRecordParams{
		ScrapeTimestamp:         snap.ScrapeTimestamp.Format(time.RFC3339),
		PastDueAmount:           snap.PastDueAmount,
		MonthlyPaymentRemaining: snap.MonthlyPaymentRemaining,
		CurrentAmountDue:        snap.CurrentAmountDue,
		DueDate:                 snap.DueDate,
		CurrentBalance:          snap.CurrentBalance,
		LastPaymentReceived:     snap.LastPaymentReceived,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("main record: %w", err)
	}

	for _, group := range snap.Groups {
		err := s.pushGroup(ctx, txqry, mainRecordId, group)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Service) pushGroup(ctx context.Context, txqry *db.Queries, mainRecordId int64, group nelnet.Group) error {
	ctx, span := tracer.Start(ctx, "pushGroup")
	defer span.End()
	span.SetAttributes(attribute.String("group", group.Name))

	groupId, err := s.lookupOrInsertGroup(ctx, txqry, group.Name)
	if err != nil {
		return fmt.Errorf("group %q: %w", group.Name, err)
	}

	err = txqry.CreateGroupRecord(ctx, db.CreateGroupRecordParams{
		MainRecordID:  mainRecordId,
		GroupID:       groupId,
		LoanType:      group.LoanType,
		Status:        group.Status,
		RepaymentPlan: group.RepaymentPlan,
	})
	if err != nil {
		return fmt.Errorf("group record %q: %w", group.Name, err)
	}
	err = txqry.CreatePaymentInformation(ctx, db.CreatePaymentInformationParams{
		MainRecordID:          mainRecordId,
		GroupID:               groupId,
		CurrentAmountDue:      group.PaymentInfo.CurrentAmountDue,
		DueDate:               group.PaymentInfo.DueDate,
		InterestRate:          group.PaymentInfo.InterestRate,
		RegularMonthlyPayment: group.PaymentInfo.RegularMonthlyPayment,
		LastPaymentReceived:   group.PaymentInfo.LastPaymentReceived,
	})
	if err != nil {
		return fmt.Errorf("payment information %q: %w", group.Name, err)
	}
	err = txqry.CreateBalanceInformation(ctx, db.CreateBalanceInformationParams{
		MainRecordID:       mainRecordId,
		GroupID:            groupId,
		PrincipalBalance:   group.BalanceInfo.PrincipalBalance,
		AccruedInterest:    group.BalanceInfo.AccruedInterest,
		Fees:               group.BalanceInfo.Fees,
		OutstandingBalance: group.BalanceInfo.OutstandingBalance,
	})
	if err != nil {
		return fmt.Errorf("balance information %q: %w", group.Name, err)
	}

	for position, loan := range group.Loans {
		err := s.pushLoan(ctx, txqry, mainRecordId, groupId, int64(position+1), loan)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s Service) pushLoan(ctx context.Context, txqry *db.Queries, mainRecordId, groupId, position int64, loan nelnet.Loan) error {
	ctx, span := tracer.Start(ctx, "pushLoan")
	defer span.End()
	span.SetAttributes(attribute.String("loan", loan.Name))

	loanId, err := s.lookupOrInsertLoan(ctx, txqry, groupId, position, loan.Name)
	if err != nil {
		return fmt.Errorf("loan %q: %w", loan.Name, err)
	}

	err = txqry.CreateLoanRecord(ctx, db.CreateLoanRecordParams{
		MainRecordID:    mainRecordId,
		LoanID:          loanId,
		LoanType:        loan.LoanType,
		LoanStatus:      loan.LoanStatus,
		InterestSubsidy: loan.InterestSubsidy,
		LenderName:      loan.LenderName,
		SchoolName:      loan.SchoolName,
	})
	if err != nil {
		return fmt.Errorf("loan record %q: %w", loan.Name, err)
	}
	err = txqry.CreateLoanCurrentInformation(ctx, db.CreateLoanCurrentInformationParams{
		MainRecordID:        mainRecordId,
		LoanID:              loanId,
		DueDate:             loan.CurrentInfo.DueDate,
		InterestRate:        loan.CurrentInfo.InterestRate,
		InterestRateType:    loan.CurrentInfo.InterestRateType,
		LoanTerm:            loan.CurrentInfo.LoanTerm,
		PrincipalBalance:    loan.CurrentInfo.PrincipalBalance,
		AccruedInterest:     loan.CurrentInfo.AccruedInterest,
		CapitalizedInterest: loan.CurrentInfo.CapitalizedInterest,
	})
	if err != nil {
		return fmt.Errorf("loan current information %q: %w", loan.Name, err)
	}

	historicId, err := txqry.CreateLoanHistoricInformation(ctx, db.CreateLoanHistoricInformationParams{
		MainRecordID:       mainRecordId,
		LoanID:             loanId,
		ConvertToRepayment: loan.HistoricInfo.ConvertToRepayment,
		OriginalLoanAmount: loan.HistoricInfo.OriginalLoanAmount,
	})
	if err != nil {
		return fmt.Errorf("loan historic information %q: %w", loan.Name, err)
	}

	for _, disbursement := range loan.HistoricInfo.Disbursements {
		err := txqry.CreateLoanDisbursement(ctx, db.CreateLoanDisbursementParams{
			LoanHistoricInformationID: historicId,
			DisbursementInfo:          disbursement,
		})
		if err != nil {
			return fmt.Errorf("disbursement for %q: %w", loan.Name, err)
		}
	}
	for _, benefit := range loan.BenefitDetails {
		err := txqry.CreateLoanBenefitDetail(ctx, db.CreateLoanBenefitDetailParams{
			MainRecordID: mainRecordId,
			LoanID:       loanId,
			Name:         benefit.Name,
			Status:       benefit.Status,
		})
		if err != nil {
			return fmt.Errorf("benefit detail for %q: %w", loan.Name, err)
		}
	}
	return nil
}

// dimension rows hold identity only. when a name already exists its
// row is reused and the snapshot's other attributes go to fact tables,
// so attribute drift on a recurring name is silently absorbed.
func (s Service) lookupOrInsertGroup(ctx context.Context, txqry *db.Queries, name string) (int64, error) {
	id, err := txqry.GetLoanGroupId(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	existing, err := txqry.ListLoanGroupNames(ctx)
	if err != nil {
		return 0, err
	}
	warnSimilarNames(ctx, "group", name, existing)

	id, err = txqry.CreateLoanGroup(ctx, name)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s Service) lookupOrInsertLoan(ctx context.Context, txqry *db.Queries, groupId, position int64, name string) (int64, error) {
	id, err := txqry.GetLoanId(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	existing, err := txqry.ListLoanNames(ctx)
	if err != nil {
		return 0, err
	}
	warnSimilarNames(ctx, "loan", name, existing)

	id, err = txqry.CreateLoan(ctx, db.CreateLoanParams{
		GroupID:       groupId,
		Name:          name,
		GroupPosition: position,
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// a brand new dimension name that sits a couple of edits away from an
// existing one is usually a rename or a typo upstream, which would
// silently fork the entity's history. surface it to the operator.
func warnSimilarNames(ctx context.Context, kind, name string, existing []string) {
	normalized := textutil.NormalizeName(name)
	for _, other := range existing {
		distance := matchr.Levenshtein(normalized, textutil.NormalizeName(other))
		if distance > 0 && distance <= 2 {
			slog.WarnContext(ctx, "new dimension name closely resembles an existing one",
				"kind", kind, "new", name, "existing", other)
		}
	}
}

// BalancePoint is one snapshot's aggregate balance.
type BalancePoint struct {
	Time    string
	Balance string
}

// Balances returns the (timestamp, aggregate balance) series across
// all snapshots in insertion order.
func (s Service) Balances(ctx context.Context) ([]BalancePoint, error) {
	ctx, span := tracer.Start(ctx, "Balances")
	defer span.End()

	rows, err := s.qry.GetAggregateBalances(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	points := make([]BalancePoint, len(rows))
	for i, r := range rows {
		points[i] = BalancePoint{
			Time:    r.ScrapeTimestamp,
			Balance: r.CurrentBalance,
		}
	}
	return points, nil
}
