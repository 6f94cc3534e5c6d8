// Package lifecycle holds the status transition tables of the marketplace
// entities and the booking overlap predicate.  It is pure: the service
// layer loads rows, asks this package whether a change is legal, and
// writes the result inside its transaction.
package lifecycle

import (
	"time"

	"github.com/iliyamo/fixer-backend/internal/model"
)

var requestTransitions = map[model.RequestStatus][]model.RequestStatus{
	model.RequestOpen:       {model.RequestQuoted, model.RequestCancelled},
	model.RequestQuoted:     {model.RequestBooked, model.RequestCancelled},
	model.RequestBooked:     {model.RequestInProgress, model.RequestCancelled},
	model.RequestInProgress: {model.RequestCompleted, model.RequestCancelled},
	model.RequestCompleted:  nil,
	model.RequestCancelled:  nil,
}

var bookingTransitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingScheduled:  {model.BookingInProgress, model.BookingCancelled},
	model.BookingInProgress: {model.BookingCompleted, model.BookingCancelled},
	model.BookingCompleted:  nil,
	model.BookingCancelled:  nil,
}

// CanTransitionRequest reports whether a service request may move from
// one status to another.
func CanTransitionRequest(from, to model.RequestStatus) bool {
	for _, s := range requestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionBooking reports whether a booking may move from one status
// to another.
func CanTransitionBooking(from, to model.BookingStatus) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RequestTerminal reports whether no transition leaves s.
func RequestTerminal(s model.RequestStatus) bool {
	return s == model.RequestCompleted || s == model.RequestCancelled
}

// BookingTerminal reports whether no transition leaves s.
func BookingTerminal(s model.BookingStatus) bool {
	return s == model.BookingCompleted || s == model.BookingCancelled
}

// NextRequestStatuses lists the legal targets from s.
func NextRequestStatuses(s model.RequestStatus) []model.RequestStatus {
	return append([]model.RequestStatus(nil), requestTransitions[s]...)
}

// RequestStatusForBooking maps a booking status change onto the status the
// parent service request follows to.  ok is false for booking statuses
// that do not cascade.
func RequestStatusForBooking(s model.BookingStatus) (model.RequestStatus, bool) {
	switch s {
	case model.BookingInProgress:
		return model.RequestInProgress, true
	case model.BookingCompleted:
		return model.RequestCompleted, true
	case model.BookingCancelled:
		return model.RequestCancelled, true
	}
	return "", false
}

// Overlaps is the half-open interval test between [aStart, aEnd) and
// [bStart, bEnd).  Touching windows do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// BookingOverlaps reports whether an existing booking blocks the
// candidate window [start, start+d).  Only active bookings block.
func BookingOverlaps(existing *model.Booking, start time.Time, d time.Duration) bool {
	if !existing.Status.Active() {
		return false
	}
	return Overlaps(existing.ScheduledTime, existing.End(), start, start.Add(d))
}
