package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cockroachdb/errors"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/settings/domain"
	"github.com/smallbiznis/timeoff/internal/validation"
	"github.com/smallbiznis/timeoff/pkg/db"
	"github.com/smallbiznis/timeoff/pkg/usererror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	msgBankHolidaysSaved       = "Changes to bank holidays were saved"
	msgBankHolidaysFailed      = "Failed to update bank holidayes details, please contact customer service"
	msgBankHolidayImportFailed = "Failed to import bank holidays"
	msgBankHolidayBadParams    = "Cannot remove bank holiday: wronge parameters"
	msgBankHolidayRemoved      = "Bank holiday was successfully removed"
	msgBankHolidayDatesClash   = "Bank holidays cannot share the same date"
	newBankHolidayItem         = "New Bank Holiday"
)

type bankHolidayUpdate struct {
	holiday *companydomain.BankHoliday
	day     time.Time
	attrs   map[string]any
}

// UpdateBankHolidays validates every submitted row first. Existing rows are
// only updated when no row at all failed; the new row is created whenever its
// own fields are valid. No two holidays of a company may share a date.
func (s *Service) UpdateBankHolidays(ctx context.Context, req domain.UpdateBankHolidaysRequest) *domain.Result {
	const op = "update_bank_holidays"
	res := domain.NewResult(domain.PathGeneral)
	defer s.observe(ctx, op, res)

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, req.Actor, true)
	if err != nil {
		return s.rejectLoad(res, op, req.Actor, err, msgBankHolidaysFailed)
	}

	res.Enter(domain.StateValidate)
	report := &validation.Report{}

	var created *companydomain.BankHoliday
	if req.New != nil && validation.Text(req.New.Name) != "" {
		own := &validation.Report{}
		day := validation.Date(req.New.Date, company.ParseDate, "New day for "+newBankHolidayItem+" should be date", own)
		if own.HasErrors() {
			for _, msg := range own.Errors() {
				report.Add(msg)
			}
		} else {
			created = &companydomain.BankHoliday{
				ID:        s.genID.Generate(),
				CompanyID: company.ID,
				Name:      validation.Text(req.New.Name),
				Date:      datatypes.Date(day),
			}
		}
	}

	rows := make(map[string]domain.BankHolidayRow, len(req.Rows))
	for _, row := range req.Rows {
		rows[row.ID.String()] = row
	}
	var updates []bankHolidayUpdate
	for i := range company.BankHolidays {
		holiday := &company.BankHolidays[i]
		row, ok := rows[holiday.ID.String()]
		if !ok {
			continue
		}
		day := validation.Date(row.Date, company.ParseDate, "New day for "+holiday.Name+" should be date", report)
		name := validation.Text(row.Name)
		if name == "" {
			name = holiday.Name
		}
		updates = append(updates, bankHolidayUpdate{
			holiday: holiday,
			day:     day,
			attrs:   map[string]any{"name": name, "date": datatypes.Date(day)},
		})
	}
	if created != nil && hasHolidayOn(company.BankHolidays, created.Day()) {
		report.Add(bankHolidayTaken(company, created.Day()))
		created = nil
	}
	if !report.HasErrors() {
		for _, day := range collidingHolidayDates(company.BankHolidays, updates, created) {
			report.Add(bankHolidayTaken(company, day))
			if created != nil && created.DateKey() == day.Format(companydomain.ISODateLayout) {
				created = nil
			}
		}
	}
	if report.HasErrors() {
		res.AddErrors(report.Errors())
		updates = nil
	}

	res.Enter(domain.StatePersist)
	var g errgroup.Group
	if created != nil {
		g.Go(func() error {
			return s.companies.BankHolidays().Create(ctx, created)
		})
	}
	for _, update := range updates {
		g.Go(func() error {
			return s.companies.BankHolidays().Update(ctx, update.holiday, update.attrs)
		})
	}
	if err := g.Wait(); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.log.Warn("bank holiday dates clashed while saving",
				zap.String("company_id", req.Actor.CompanyID.String()), zap.Error(err))
			return res.Reject(msgBankHolidayDatesClash)
		}
		return s.rejectSystem(res, op, req.Actor, err, msgBankHolidaysFailed)
	}

	if res.HasErrors() {
		return res.Reject()
	}
	return res.Succeed(msgBankHolidaysSaved)
}

// ImportBankHolidays adds the country's default holidays whose dates the
// company does not have yet.
func (s *Service) ImportBankHolidays(ctx context.Context, actor domain.Actor) *domain.Result {
	const op = "import_bank_holidays"
	res := domain.NewResult(domain.PathGeneral)
	defer s.observe(ctx, op, res)

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, actor, true)
	if err != nil {
		return s.rejectLoad(res, op, actor, err, msgBankHolidayImportFailed)
	}

	res.Enter(domain.StateMutate)
	templates, ok := s.holidays.ForCountry(company.Country)
	if !ok {
		err := usererror.Newf("There are no default bank holidays for country %s", company.Country)
		res.AddError(usererror.Message(err))
		return s.rejectSystem(res, op, actor, err, msgBankHolidayImportFailed)
	}

	existing := make(map[string]struct{}, len(company.BankHolidays))
	for i := range company.BankHolidays {
		existing[company.BankHolidays[i].DateKey()] = struct{}{}
	}

	var (
		toCreate []*companydomain.BankHoliday
		names    []string
	)
	for _, template := range templates {
		day, err := time.ParseInLocation(companydomain.ISODateLayout, template.Date, time.UTC)
		if err != nil {
			return s.rejectSystem(res, op, actor, errors.Wrapf(err, "bank holiday template %q", template.Name), msgBankHolidayImportFailed)
		}
		key := day.Format(companydomain.ISODateLayout)
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		toCreate = append(toCreate, &companydomain.BankHoliday{
			ID:        s.genID.Generate(),
			CompanyID: company.ID,
			Name:      template.Name,
			Date:      datatypes.Date(day),
		})
		names = append(names, template.Name)
	}

	res.Enter(domain.StatePersist)
	if len(toCreate) == 0 {
		return res.Succeed("No more new bank holidays exist")
	}
	if err := s.companies.BankHolidays().BatchCreate(ctx, toCreate); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.log.Warn("bank holidays changed during import",
				zap.String("company_id", actor.CompanyID.String()), zap.Error(err))
			return res.Reject(msgBankHolidayDatesClash, msgBankHolidayImportFailed)
		}
		return s.rejectSystem(res, op, actor, err, msgBankHolidayImportFailed)
	}
	return res.Succeed("New bank holidays were added: " + strings.Join(names, ", "))
}

func bankHolidayTaken(company *companydomain.Company, day time.Time) string {
	return "Bank holiday date " + company.FormatDate(day) + " already exists"
}

func hasHolidayOn(holidays []companydomain.BankHoliday, day time.Time) bool {
	for i := range holidays {
		if holidays[i].DateKey() == day.Format(companydomain.ISODateLayout) {
			return true
		}
	}
	return false
}

// collidingHolidayDates lists, in date order, the days more than one holiday
// would fall on once updates and created are applied.
func collidingHolidayDates(holidays []companydomain.BankHoliday, updates []bankHolidayUpdate, created *companydomain.BankHoliday) []time.Time {
	moved := make(map[snowflake.ID]time.Time, len(updates))
	for _, update := range updates {
		moved[update.holiday.ID] = update.day
	}

	counts := make(map[string]int, len(holidays)+1)
	days := make(map[string]time.Time, len(holidays)+1)
	count := func(day time.Time) {
		key := day.Format(companydomain.ISODateLayout)
		counts[key]++
		days[key] = day
	}
	for i := range holidays {
		day := holidays[i].Day()
		if next, ok := moved[holidays[i].ID]; ok {
			day = next
		}
		count(day)
	}
	if created != nil {
		count(created.Day())
	}

	var keys []string
	for key, n := range counts {
		if n > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := make([]time.Time, 0, len(keys))
	for _, key := range keys {
		out = append(out, days[key])
	}
	return out
}

// DeleteBankHoliday removes the holiday at position number of the
// date-ordered list shown on the settings page.
func (s *Service) DeleteBankHoliday(ctx context.Context, actor domain.Actor, number string) *domain.Result {
	const op = "delete_bank_holiday"
	res := domain.NewResult(domain.PathGeneral)
	defer s.observe(ctx, op, res)

	index, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil || index < 0 {
		s.log.Warn("non-int bank holiday number submitted",
			zap.String("user_id", actor.UserID.String()), zap.String("number", number))
		return res.Reject(msgBankHolidayBadParams)
	}

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, actor, true)
	if err != nil {
		return s.rejectLoad(res, op, actor, err, msgBankHolidaysFailed)
	}
	if index >= len(company.BankHolidays) {
		s.log.Warn("tried to remove non-existing bank holiday",
			zap.String("user_id", actor.UserID.String()), zap.String("number", number), zap.Int("total", len(company.BankHolidays)))
		return res.Reject(msgBankHolidayBadParams)
	}

	res.Enter(domain.StatePersist)
	if err := s.companies.BankHolidays().Delete(ctx, &company.BankHolidays[index]); err != nil {
		return s.rejectSystem(res, op, actor, err, msgBankHolidaysFailed)
	}
	return res.Succeed(msgBankHolidayRemoved)
}
