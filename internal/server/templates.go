package server

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	companydomain "github.com/smallbiznis/timeoff/internal/company/domain"
	"gorm.io/datatypes"
)

var templateFuncs = template.FuncMap{
	"formatDate": func(company *companydomain.Company, d datatypes.Date) string {
		return company.FormatDate(time.Time(d))
	},
	"weekdays": func() []time.Weekday {
		return companydomain.Weekdays
	},
	"works": func(schedule *companydomain.Schedule, day time.Weekday) bool {
		return schedule != nil && schedule.Works(day)
	},
	"dayName": func(day time.Weekday) string {
		return strings.ToLower(day.String())
	},
	"carryOverSelected": func(company *companydomain.Company, days int) bool {
		return company.CarryOver.Equal(decimal.NewFromInt(int64(days)))
	},
}
