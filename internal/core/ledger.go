package core

// Sentinel transaction IDs tag ledger rows the system created itself from a
// paid-amount field on an entity form. Lookups go through the origin column;
// the sentinel string is kept so the ledger view still shows where a row
// came from.
const InternEnrollmentTxnID = "INITIAL_ENROLLMENT"

// ProjectInitTxnID returns the sentinel transaction ID for a project's
// auto-created milestone row.
func ProjectInitTxnID(projectID string) string {
	return "PROJECT_INIT_" + projectID
}

// PaymentStatusFor derives an intern's payment status from the reconciled
// paid total and the agreed fee. Paid requires a positive agreed fee; an
// intern with total_fee 0 can never be Paid, only Unpaid or Partial.
func PaymentStatusFor(paidFee, totalFee Money) PaymentStatus {
	switch {
	case totalFee.Paise > 0 && paidFee.Paise >= totalFee.Paise:
		return PaymentPaid
	case paidFee.Paise > 0:
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

// DefaultMethodFor is the payment method stamped onto synthetic records:
// interns enroll over UPI, project initiations settle by bank transfer.
func DefaultMethodFor(origin PaymentOrigin) string {
	if origin == OriginAutoProject {
		return "Bank Transfer"
	}
	return "UPI"
}
