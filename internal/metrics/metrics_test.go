package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCountersAccumulate(t *testing.T) {
	Register()

	created := testutil.ToFloat64(reservationsCreated)
	IncReservationCreated()
	assert.Equal(t, created+1, testutil.ToFloat64(reservationsCreated))

	rejected := testutil.ToFloat64(reservationsRejected.WithLabelValues("slot_full"))
	IncReservationRejected("slot_full")
	assert.Equal(t, rejected+1, testutil.ToFloat64(reservationsRejected.WithLabelValues("slot_full")))

	moved := testutil.ToFloat64(reservationMoves.WithLabelValues("confirmed"))
	IncReservationMoved("confirmed")
	assert.Equal(t, moved+1, testutil.ToFloat64(reservationMoves.WithLabelValues("confirmed")))

	reconciled := testutil.ToFloat64(recordsReconciled)
	AddRecordsReconciled(3)
	assert.Equal(t, reconciled+3, testutil.ToFloat64(recordsReconciled))

	requests := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/slots"))
	IncHTTP("/api/v1/slots")
	assert.Equal(t, requests+1, testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/slots")))
}
