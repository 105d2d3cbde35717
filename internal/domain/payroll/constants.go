package payroll

const (
	BasisBattery = "battery"
	BasisPerWatt = "per_watt"
	BasisNone    = "none"

	TicketTypeInstallation = "installation"

	// BatteryBucketMax is the quantity from which every install pays the "4+" rate.
	BatteryBucketMax = 4

	cacheKeyPrefix = "payroll:summary:"
)
