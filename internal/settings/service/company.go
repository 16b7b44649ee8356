package service

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	auditdomain "github.com/smallbiznis/timeoff/internal/audit/domain"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"github.com/smallbiznis/timeoff/internal/settings/domain"
	"github.com/smallbiznis/timeoff/internal/validation"
)

const (
	msgCompanyUpdated      = "Company was successfully updated"
	msgCompanyUpdateFailed = "Failed to update company details, please contact customer service"
	msgUnknownDateFormat   = "Unknown date format was provided"
	msgBadCountry          = "Country should contain only letters and numbers"
	msgUnknownTimezone     = "Time zone is unknown"
	msgBadCarryOver        = "Carried over allowance has to be a number"
)

// CarryOverOptions are the choices offered for the company carry-over policy.
func CarryOverOptions() []domain.CarryOverOption {
	options := []domain.CarryOverOption{{Days: 0, Label: "None"}}
	for i := 1; i <= 20; i++ {
		options = append(options, domain.CarryOverOption{Days: i, Label: strconv.Itoa(i)})
	}
	return append(options, domain.CarryOverOption{Days: 1000, Label: "All"})
}

func (s *Service) GeneralSettings(ctx context.Context, actor domain.Actor) (domain.GeneralView, error) {
	company, err := s.loadCompany(ctx, actor, true)
	if err != nil {
		return domain.GeneralView{}, err
	}

	schedule, err := s.companies.CompanySchedule(ctx, company.ID)
	if err != nil {
		return domain.GeneralView{}, errors.Wrap(err, "load company schedule")
	}
	if schedule == nil {
		schedule = companydomain.DefaultSchedule()
	}

	countries, err := s.reference.ListCountries(ctx)
	if err != nil {
		return domain.GeneralView{}, errors.Wrap(err, "list countries")
	}
	zones, err := s.reference.ListTimezones(ctx)
	if err != nil {
		return domain.GeneralView{}, errors.Wrap(err, "list timezones")
	}

	view := domain.GeneralView{
		Company:          company,
		Schedule:         schedule,
		Countries:        make([]domain.Country, 0, len(countries)),
		Timezones:        make([]string, 0, len(zones)),
		DateFormats:      companydomain.AvailableDateFormats(),
		CarryOverOptions: CarryOverOptions(),
		YearCurrent:      s.clock.Now().UTC().Year(),
	}
	view.YearPrev = view.YearCurrent - 1
	for _, c := range countries {
		view.Countries = append(view.Countries, domain.Country{Code: c.Code, Name: c.Name})
	}
	for _, z := range zones {
		view.Timezones = append(view.Timezones, z.Name)
	}
	return view, nil
}

func (s *Service) UpdateCompany(ctx context.Context, req domain.UpdateCompanyRequest) *domain.Result {
	const op = "update_company"
	res := domain.NewResult(domain.PathGeneral)
	defer s.observe(ctx, op, res)

	report := &validation.Report{}
	name := validation.Text(req.Name)
	country := s.validator.Alphanumeric(req.Country, msgBadCountry, report)
	timezone := s.validator.Timezone(req.Timezone, msgUnknownTimezone, report)
	carryOver := s.validator.Numeric(req.CarryOver, msgBadCarryOver, report)
	dateFormat := validation.Text(req.DateFormat)
	shareAllAbsences := validation.Bool(req.ShareAllAbsences)
	isTeamViewHidden := validation.Bool(req.IsTeamViewHidden)
	if report.HasErrors() {
		return res.Reject(report.Errors()...)
	}

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, req.Actor, false)
	if err != nil {
		return s.rejectLoad(res, op, req.Actor, err, msgCompanyUpdateFailed)
	}

	res.Enter(domain.StateMutate)
	if !companydomain.IsKnownDateFormat(dateFormat) {
		return res.Reject(msgUnknownDateFormat, msgCompanyUpdateFailed)
	}

	before := company.ProfileSnapshot()
	company.Name = name
	company.Country = country
	company.DateFormat = dateFormat
	company.Timezone = timezone
	company.CarryOver = carryOver
	company.ShareAllAbsences = shareAllAbsences
	company.IsTeamViewHidden = isTeamViewHidden

	res.Enter(domain.StatePersist)
	if err := s.companies.Companies().Save(ctx, company); err != nil {
		return s.rejectSystem(res, op, req.Actor, err, msgCompanyUpdateFailed)
	}

	s.recordChanges(ctx, req.Actor, auditdomain.Subject{Type: auditdomain.EntityCompany, ID: company.ID}, before, company.ProfileSnapshot())
	return res.Succeed(msgCompanyUpdated)
}

func (s *Service) CarryOverUnusedAllowance(ctx context.Context, actor domain.Actor) *domain.Result {
	const op = "carry_over"
	res := domain.NewResult(domain.PathGeneral)
	defer s.observe(ctx, op, res)

	const failure = "Failed to carry over unused allowances, please contact customer service and provide incident ID: %s"

	res.Enter(domain.StateLoad)
	company, err := s.loadCompany(ctx, actor, false)
	if err != nil {
		return s.rejectIncident(res, op, actor, err, failure)
	}
	users, err := s.users.ListByCompany(ctx, company.ID)
	if err != nil {
		return s.rejectIncident(res, op, actor, err, failure)
	}

	res.Enter(domain.StatePersist)
	if _, err := s.carryOver.RunForToday(ctx, company, users, s.clock.Now()); err != nil {
		return s.rejectIncident(res, op, actor, err, failure)
	}
	return res.Succeed("Unused allowance was successfully carried over")
}
