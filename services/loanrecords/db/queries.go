package db

import (
	"context"
	"fmt"
)

// ErrNoRowId reports that the store accepted an insert but did not
// hand back a generated identifier, which makes the row unusable for
// identifier propagation.
var ErrNoRowId = fmt.Errorf("store returned no row identifier")

func insertReturningId(ctx context.Context, db DBTX, query string, args ...interface{}) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNoRowId, err)
	}
	return id, nil
}

const createMainRecord = `
INSERT INTO main_record (
    scrape_timestamp,
    past_due_amount,
    monthly_payment_remaining,
    current_amount_due,
    due_date,
    current_balance,
    last_payment_received
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateMainRecordParams struct {
	ScrapeTimestamp         string
	PastDueAmount           string
	MonthlyPaymentRemaining string
	CurrentAmountDue        string
	DueDate                 string
	CurrentBalance          string
	LastPaymentReceived     string
}

func (q *Queries) CreateMainRecord(ctx context.Context, arg CreateMainRecordParams) (int64, error) {
	return insertReturningId(ctx, q.db, createMainRecord,
		arg.ScrapeTimestamp,
		arg.PastDueAmount,
		arg.MonthlyPaymentRemaining,
		arg.CurrentAmountDue,
		arg.DueDate,
		arg.CurrentBalance,
		arg.LastPaymentReceived,
	)
}

const getLoanGroupId = `
SELECT row_id FROM loan_group WHERE name = ?
`

// GetLoanGroupId returns sql.ErrNoRows when no group dimension row
// exists under the name.
func (q *Queries) GetLoanGroupId(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getLoanGroupId, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createLoanGroup = `
INSERT INTO loan_group (name) VALUES (?)
`

func (q *Queries) CreateLoanGroup(ctx context.Context, name string) (int64, error) {
	return insertReturningId(ctx, q.db, createLoanGroup, name)
}

const listLoanGroupNames = `
SELECT name FROM loan_group ORDER BY row_id
`

func (q *Queries) ListLoanGroupNames(ctx context.Context) ([]string, error) {
	return q.listNames(ctx, listLoanGroupNames)
}

const getLoanId = `
SELECT row_id FROM loan WHERE name = ?
`

func (q *Queries) GetLoanId(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getLoanId, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createLoan = `
INSERT INTO loan (group_id, name, group_position) VALUES (?, ?, ?)
`

type CreateLoanParams struct {
	GroupID       int64
	Name          string
	GroupPosition int64
}

func (q *Queries) CreateLoan(ctx context.Context, arg CreateLoanParams) (int64, error) {
	return insertReturningId(ctx, q.db, createLoan, arg.GroupID, arg.Name, arg.GroupPosition)
}

const listLoanNames = `
SELECT name FROM loan ORDER BY row_id
`

func (q *Queries) ListLoanNames(ctx context.Context) ([]string, error) {
	return q.listNames(ctx, listLoanNames)
}

func (q *Queries) listNames(ctx context.Context, query string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		err := rows.Scan(&name)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

const createGroupRecord = `
INSERT INTO group_record (
    main_record_id,
    group_id,
    loan_type,
    status,
    repayment_plan
) VALUES (?, ?, ?, ?, ?)
`

type CreateGroupRecordParams struct {
	MainRecordID  int64
	GroupID       int64
	LoanType      string
	Status        string
	RepaymentPlan string
}

func (q *Queries) CreateGroupRecord(ctx context.Context, arg CreateGroupRecordParams) error {
	_, err := q.db.ExecContext(ctx, createGroupRecord,
		arg.MainRecordID,
		arg.GroupID,
		arg.LoanType,
		arg.Status,
		arg.RepaymentPlan,
	)
	return err
}

const createPaymentInformation = `
INSERT INTO payment_information (
    main_record_id,
    group_id,
    current_amount_due,
    due_date,
    interest_rate,
    regular_monthly_payment_amount,
    last_payment_received
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreatePaymentInformationParams struct {
	MainRecordID          int64
	GroupID               int64
	CurrentAmountDue      string
	DueDate               string
	InterestRate          string
	RegularMonthlyPayment string
	LastPaymentReceived   string
}

func (q *Queries) CreatePaymentInformation(ctx context.Context, arg CreatePaymentInformationParams) error {
	_, err := q.db.ExecContext(ctx, createPaymentInformation,
		arg.MainRecordID,
		arg.GroupID,
		arg.CurrentAmountDue,
		arg.DueDate,
		arg.InterestRate,
		arg.RegularMonthlyPayment,
		arg.LastPaymentReceived,
	)
	return err
}

const createBalanceInformation = `
INSERT INTO balance_information (
    main_record_id,
    group_id,
    principal_balance,
    accrued_interest,
    fees,
    outstanding_balance
) VALUES (?, ?, ?, ?, ?, ?)
`

type CreateBalanceInformationParams struct {
	MainRecordID       int64
	GroupID            int64
	PrincipalBalance   string
	AccruedInterest    string
	Fees               string
	OutstandingBalance string
}

func (q *Queries) CreateBalanceInformation(ctx context.Context, arg CreateBalanceInformationParams) error {
	_, err := q.db.ExecContext(ctx, createBalanceInformation,
		arg.MainRecordID,
		arg.GroupID,
		arg.PrincipalBalance,
		arg.AccruedInterest,
		arg.Fees,
		arg.OutstandingBalance,
	)
	return err
}

const createLoanRecord = `
INSERT INTO loan_record (
    main_record_id,
    loan_id,
    loan_type,
    loan_status,
    interest_subsidy,
    lender_name,
    school_name
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateLoanRecordParams struct {
	MainRecordID    int64
	LoanID          int64
	LoanType        string
	LoanStatus      string
	InterestSubsidy string
	LenderName      string
	SchoolName      string
}

func (q *Queries) CreateLoanRecord(ctx context.Context, arg CreateLoanRecordParams) error {
	_, err := q.db.ExecContext(ctx, createLoanRecord,
		arg.MainRecordID,
		arg.LoanID,
		arg.LoanType,
		arg.LoanStatus,
		arg.InterestSubsidy,
		arg.LenderName,
		arg.SchoolName,
	)
	return err
}

const createLoanCurrentInformation = `
INSERT INTO loan_current_information (
    main_record_id,
    loan_id,
    due_date,
    interest_rate,
    interest_rate_type,
    loan_term,
    principal_balance,
    accrued_interest,
    capitalized_interest
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateLoanCurrentInformationParams struct {
	MainRecordID        int64
	LoanID              int64
	DueDate             string
	InterestRate        string
	InterestRateType    string
	LoanTerm            string
	PrincipalBalance    string
	AccruedInterest     string
	CapitalizedInterest string
}

func (q *Queries) CreateLoanCurrentInformation(ctx context.Context, arg CreateLoanCurrentInformationParams) error {
	_, err := q.db.ExecContext(ctx, createLoanCurrentInformation,
		arg.MainRecordID,
		arg.LoanID,
		arg.DueDate,
		arg.InterestRate,
		arg.InterestRateType,
		arg.LoanTerm,
		arg.PrincipalBalance,
		arg.AccruedInterest,
		arg.CapitalizedInterest,
	)
	return err
}

const createLoanHistoricInformation = `
INSERT INTO loan_historic_information (
    main_record_id,
    loan_id,
    convert_to_repayment,
    original_loan_amount
) VALUES (?, ?, ?, ?)
`

type CreateLoanHistoricInformationParams struct {
	MainRecordID       int64
	LoanID             int64
	ConvertToRepayment string
	OriginalLoanAmount string
}

func (q *Queries) CreateLoanHistoricInformation(ctx context.Context, arg CreateLoanHistoricInformationParams) (int64, error) {
	return insertReturningId(ctx, q.db, createLoanHistoricInformation,
		arg.MainRecordID,
		arg.LoanID,
		arg.ConvertToRepayment,
		arg.OriginalLoanAmount,
	)
}

const createLoanDisbursement = `
INSERT INTO loan_disbursements (
    loan_historic_information_id,
    disbursement_info
) VALUES (?, ?)
`

type CreateLoanDisbursementParams struct {
	LoanHistoricInformationID int64
	DisbursementInfo          string
}

func (q *Queries) CreateLoanDisbursement(ctx context.Context, arg CreateLoanDisbursementParams) error {
	_, err := q.db.ExecContext(ctx, createLoanDisbursement,
		arg.LoanHistoricInformationID,
		arg.DisbursementInfo,
	)
	return err
}

const createLoanBenefitDetail = `
INSERT INTO loan_benefit_details (
    main_record_id,
    loan_id,
    name,
    status
) VALUES (?, ?, ?, ?)
`

type CreateLoanBenefitDetailParams struct {
	MainRecordID int64
	LoanID       int64
	Name         string
	Status       string
}

func (q *Queries) CreateLoanBenefitDetail(ctx context.Context, arg CreateLoanBenefitDetailParams) error {
	_, err := q.db.ExecContext(ctx, createLoanBenefitDetail,
		arg.MainRecordID,
		arg.LoanID,
		arg.Name,
		arg.Status,
	)
	return err
}

const getAggregateBalances = `
SELECT scrape_timestamp, current_balance FROM main_record ORDER BY row_id
`

type GetAggregateBalancesRow struct {
	ScrapeTimestamp string
	CurrentBalance  string
}

func (q *Queries) GetAggregateBalances(ctx context.Context) ([]GetAggregateBalancesRow, error) {
	rows, err := q.db.QueryContext(ctx, getAggregateBalances)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GetAggregateBalancesRow
	for rows.Next() {
		var r GetAggregateBalancesRow
		err := rows.Scan(&r.ScrapeTimestamp, &r.CurrentBalance)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
