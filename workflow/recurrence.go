package workflow

import (
	"time"

	"bitbucket.org/mmdatafocus/fintrack_backend/models"
	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
)

// maxOccurrences caps occurrence expansion so a bad rule (or a huge window)
// cannot spin the projector.
const maxOccurrences = 1000

// NextOccurrence advances a schedule date by exactly one step: interval
// units of the given frequency ("every 2 weeks" = weekly, 2). Intervals
// below 1 are treated as 1. Month-based steps use calendar months
// (time.AddDate normalization), so a Jan 31 monthly rule lands on Mar 2/3
// for February; that matches how the rest of the engine derives dates.
func NextOccurrence(frequency models.Frequency, interval int, from time.Time) (time.Time, error) {
	if interval < 1 {
		interval = 1
	}
	switch frequency {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, interval), nil
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7*interval), nil
	case models.FrequencyBiweekly:
		return from.AddDate(0, 0, 14*interval), nil
	case models.FrequencyMonthly:
		return from.AddDate(0, interval, 0), nil
	case models.FrequencyBimonthly:
		return from.AddDate(0, 2*interval, 0), nil
	case models.FrequencyQuarterly:
		return from.AddDate(0, 3*interval, 0), nil
	case models.FrequencySemiannually:
		return from.AddDate(0, 6*interval, 0), nil
	case models.FrequencyAnnually:
		return from.AddDate(interval, 0, 0), nil
	}
	return time.Time{}, utils.ErrorUnknownFrequency
}

// GenerateOccurrences expands a rule's schedule inside [from, to], starting
// at the rule's next run date. The rule's end date bounds the expansion. An
// unknown frequency yields no occurrences rather than an error: projection
// callers treat such rules as inert.
func GenerateOccurrences(rule *models.RecurringRule, from time.Time, to time.Time) []time.Time {
	if !utils.DereferencePtr(rule.IsActive, true) {
		return nil
	}

	occurrences := make([]time.Time, 0)
	cursor := rule.NextRunDate
	for i := 0; i < maxOccurrences; i++ {
		if cursor.After(to) {
			break
		}
		if rule.EndDate != nil && cursor.After(*rule.EndDate) {
			break
		}
		if !cursor.Before(from) {
			occurrences = append(occurrences, cursor)
		}
		next, err := NextOccurrence(rule.Frequency, rule.Interval, cursor)
		if err != nil {
			return nil
		}
		cursor = next
	}
	return occurrences
}

// IsRuleDue reports whether a rule has an occurrence to settle on runDate:
// active, and the next run date is not past end-of-day.
func IsRuleDue(rule *models.RecurringRule, runDate time.Time) bool {
	if !utils.DereferencePtr(rule.IsActive, true) {
		return false
	}
	if rule.EndDate != nil && rule.NextRunDate.After(*rule.EndDate) {
		return false
	}
	return !rule.NextRunDate.After(utils.EndOfDay(runDate))
}
