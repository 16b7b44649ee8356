package server

import (
	"net/url"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	settingsdomain "github.com/smallbiznis/timeoff/internal/settings/domain"
)

const rowSeparator = "__"

// rowIDs lists the entity ids of the form rows named "<field>__<id>",
// smallest id first. The "new" row and malformed ids are left out.
func rowIDs(form url.Values, field string) []snowflake.ID {
	prefix := field + rowSeparator
	ids := make([]snowflake.ID, 0)
	for key := range form {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(key, prefix)
		if suffix == settingsdomain.NewRowKey {
			continue
		}
		id, err := snowflake.ParseString(suffix)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func rowValue(form url.Values, field, suffix string) string {
	return form.Get(field + rowSeparator + suffix)
}

func hasRow(form url.Values, field, suffix string) bool {
	_, ok := form[field+rowSeparator+suffix]
	return ok
}

func bankHolidayRow(form url.Values, id snowflake.ID, suffix string) settingsdomain.BankHolidayRow {
	return settingsdomain.BankHolidayRow{
		ID:   id,
		Name: rowValue(form, "name", suffix),
		Date: rowValue(form, "date", suffix),
	}
}

func bankHolidaysFromForm(actor settingsdomain.Actor, form url.Values) settingsdomain.UpdateBankHolidaysRequest {
	req := settingsdomain.UpdateBankHolidaysRequest{Actor: actor}
	for _, id := range rowIDs(form, "name") {
		req.Rows = append(req.Rows, bankHolidayRow(form, id, id.String()))
	}
	if hasRow(form, "name", settingsdomain.NewRowKey) {
		row := bankHolidayRow(form, 0, settingsdomain.NewRowKey)
		req.New = &row
	}
	return req
}

func leaveTypeRow(form url.Values, id snowflake.ID, suffix string) settingsdomain.LeaveTypeRow {
	return settingsdomain.LeaveTypeRow{
		ID:           id,
		Name:         rowValue(form, "name", suffix),
		Color:        rowValue(form, "color", suffix),
		Limit:        rowValue(form, "limit", suffix),
		UseAllowance: rowValue(form, "use_allowance", suffix),
		AutoApprove:  rowValue(form, "auto_approve", suffix),
	}
}

func leaveTypesFromForm(actor settingsdomain.Actor, form url.Values) settingsdomain.UpdateLeaveTypesRequest {
	req := settingsdomain.UpdateLeaveTypesRequest{
		Actor:       actor,
		FirstRecord: strings.TrimSpace(form.Get("first_record")),
	}
	for _, id := range rowIDs(form, "name") {
		req.Rows = append(req.Rows, leaveTypeRow(form, id, id.String()))
	}
	if hasRow(form, "name", settingsdomain.NewRowKey) {
		row := leaveTypeRow(form, 0, settingsdomain.NewRowKey)
		req.New = &row
	}
	return req
}

var scheduleDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func scheduleFromForm(actor settingsdomain.Actor, form url.Values) settingsdomain.UpdateScheduleRequest {
	days := make(map[string]string, len(scheduleDays))
	for _, day := range scheduleDays {
		if value, ok := form[day]; ok && len(value) > 0 {
			days[day] = value[0]
		}
	}
	_, revoke := form["revoke_user_specific_schedule"]
	return settingsdomain.UpdateScheduleRequest{
		Actor:  actor,
		UserID: strings.TrimSpace(form.Get("user_id")),
		Days:   days,
		Revoke: revoke,
	}
}
