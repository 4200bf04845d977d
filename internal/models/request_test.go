package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		kind   RequestKind
		target RequestStatus
		ok     bool
	}{
		{KindBooking, StatusApproved, true},
		{KindBooking, StatusRejected, true},
		{KindBooking, StatusResolved, false},
		{KindBooking, StatusPending, false},
		{KindComplaint, StatusResolved, true},
		{KindComplaint, StatusRejected, true},
		{KindComplaint, StatusApproved, false},
		{KindHelpRequest, StatusResolved, true},
		{KindHelpRequest, StatusApproved, false},
		{KindHelpRequest, StatusRejected, false},
		{KindOutingRequest, StatusApproved, true},
		{KindOutingRequest, StatusRejected, true},
		{KindOutingRequest, StatusResolved, false},
		{RequestKind("unknown"), StatusApproved, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidTransition(tc.kind, tc.target), "%s -> %s", tc.kind, tc.target)
	}
}

func TestValidKind(t *testing.T) {
	for _, kind := range RequestKinds {
		assert.True(t, ValidKind(kind))
	}
	assert.False(t, ValidKind("rooms"))
}
