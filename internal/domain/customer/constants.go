package customer

const (
	KindCRM                    = "crm"
	KindSubcontractNewInstall  = "subcontract_new_install"
	KindSubcontractDetachReset = "subcontract_detach_reset"

	AdderFixed    = "fixed"
	AdderPerWatt  = "per_watt"
	AdderPerPanel = "per_panel"

	Table          = "customers"
	TimelineTable  = "project_timeline"
	DocumentsTable = "customer_documents"
)

// Project timeline milestones.
const (
	MilestoneSiteSurveyComplete = "site_survey_complete"
	MilestoneInstallComplete    = "install_complete"
	MilestoneInspectionPassed   = "inspection_passed"
	MilestoneInspectionFailed   = "inspection_failed"
	MilestoneServiceComplete    = "service_complete"
)

var Milestones = []string{
	MilestoneSiteSurveyComplete,
	MilestoneInstallComplete,
	MilestoneInspectionPassed,
	MilestoneInspectionFailed,
	MilestoneServiceComplete,
}

func ValidKind(kind string) bool {
	return kind == KindCRM || kind == KindSubcontractNewInstall || kind == KindSubcontractDetachReset
}

func ValidAdderType(t string) bool {
	return t == AdderFixed || t == AdderPerWatt || t == AdderPerPanel
}

func ValidMilestone(milestone string) bool {
	for _, candidate := range Milestones {
		if candidate == milestone {
			return true
		}
	}
	return false
}
