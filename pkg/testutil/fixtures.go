package testutil

import (
	"github.com/google/uuid"
)

// Fixed UUIDs for deterministic testing
var (
	TestMemberID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestMemberID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestLoanID    = uuid.MustParse("00000000-0000-0000-0000-000000000030")
	TestPaymentID = uuid.MustParse("00000000-0000-0000-0000-000000000040")
)
