package commission

const (
	StatusPending  = "pending"
	StatusEligible = "eligible"
	StatusPaid     = "paid"

	TargetM1         = "m1"
	TargetM2         = "m2"
	TargetOverrideM1 = "override_m1"
	TargetOverrideM2 = "override_m2"

	Table = "sales_commissions"
)

var Targets = []string{TargetM1, TargetM2, TargetOverrideM1, TargetOverrideM2}

func ValidTarget(target string) bool {
	for _, candidate := range Targets {
		if candidate == target {
			return true
		}
	}
	return false
}

func ValidStatus(status string) bool {
	return status == StatusPending || status == StatusEligible || status == StatusPaid
}
