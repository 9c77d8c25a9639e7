package service

import "time"

// billingAnchor returns the billing date for the given month, at UTC
// midnight, with the billing day clamped to the month's length (billing day
// 31 lands on Feb 28/29 and so on).
func billingAnchor(year int, month time.Month, billingDay int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := billingDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// firstAnchorOnOrAfter finds the earliest billing anchor not before start.
func firstAnchorOnOrAfter(start time.Time, billingDay int) time.Time {
	start = dateOf(start)
	anchor := billingAnchor(start.Year(), start.Month(), billingDay)
	if anchor.Before(start) {
		anchor = billingAnchor(start.Year(), start.Month()+1, billingDay)
	}
	return anchor
}

// periodEndFor returns the inclusive end of the period opening at anchor:
// the day before the next month's billing anchor.
func periodEndFor(anchor time.Time, billingDay int) time.Time {
	next := billingAnchor(anchor.Year(), anchor.Month()+1, billingDay)
	return next.AddDate(0, 0, -1)
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
