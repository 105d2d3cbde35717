package checklist

import "solarops/internal/platform/storage"

const (
	PhaseSiteSurvey   = "site_survey"
	PhaseInstallation = "installation"
	PhaseInspection   = "inspection"
	PhaseDetach       = "detach"
	PhaseReset        = "reset"
	PhaseService      = "service"
)

var Phases = []string{
	PhaseSiteSurvey,
	PhaseInstallation,
	PhaseInspection,
	PhaseDetach,
	PhaseReset,
	PhaseService,
}

type phaseInfo struct {
	table  string
	bucket string
	items  []Item
}

var phases = map[string]phaseInfo{
	PhaseSiteSurvey: {
		table:  "site_survey_checklists",
		bucket: storage.BucketSiteSurveyPhotos,
		items: []Item{
			{ID: "front_of_house", Label: "Front of house", Section: "exterior"},
			{ID: "roof_overview", Label: "Roof overview", Section: "roof"},
			{ID: "roof_pitch", Label: "Roof pitch measurement", Section: "roof"},
			{ID: "rafters", Label: "Attic rafters", Section: "roof"},
			{ID: "main_panel", Label: "Main service panel", Section: "electrical"},
			{ID: "main_breaker", Label: "Main breaker rating", Section: "electrical"},
			{ID: "meter", Label: "Utility meter", Section: "electrical"},
		},
	},
	PhaseInstallation: {
		table:  "installation_checklists",
		bucket: storage.BucketInstallationPhotos,
		items: []Item{
			{ID: "array_complete", Label: "Completed array", Section: "roof"},
			{ID: "attachments", Label: "Attachments and flashing", Section: "roof"},
			{ID: "wire_management", Label: "Wire management", Section: "roof"},
			{ID: "inverter", Label: "Inverter / optimizers", Section: "electrical"},
			{ID: "battery", Label: "Battery installation", Section: "electrical"},
			{ID: "disconnect", Label: "AC disconnect", Section: "electrical"},
			{ID: "labels", Label: "Placards and labels", Section: "electrical"},
		},
	},
	PhaseInspection: {
		table:  "inspection_checklists",
		bucket: storage.BucketInspectionPhotos,
		items: []Item{
			{ID: "inspector_signoff", Label: "Inspector sign-off card", Section: "documents"},
			{ID: "correction_notice", Label: "Correction notice", Section: "documents"},
			{ID: "array_overview", Label: "Array overview", Section: "roof"},
			{ID: "panel_interior", Label: "Panel interior", Section: "electrical"},
		},
	},
	PhaseDetach: {
		table:  "detach_checklists",
		bucket: storage.BucketDetachPhotos,
		items: []Item{
			{ID: "array_before", Label: "Array before detach", Section: "roof"},
			{ID: "panel_serials", Label: "Panel serial numbers", Section: "roof"},
			{ID: "stored_panels", Label: "Stored panels", Section: "storage"},
			{ID: "roof_after", Label: "Roof after detach", Section: "roof"},
		},
	},
	PhaseReset: {
		table:  "reset_checklists",
		bucket: storage.BucketDetachPhotos,
		items: []Item{
			{ID: "attachments", Label: "New attachments", Section: "roof"},
			{ID: "array_after", Label: "Array after reset", Section: "roof"},
			{ID: "system_online", Label: "System producing", Section: "electrical"},
		},
	},
	PhaseService: {
		table:  "service_checklists",
		bucket: storage.BucketServicePhotos,
		items: []Item{
			{ID: "issue_before", Label: "Issue before repair", Section: "diagnosis"},
			{ID: "monitoring", Label: "Monitoring screen", Section: "diagnosis"},
			{ID: "repair_after", Label: "Repair complete", Section: "repair"},
			{ID: "system_online", Label: "System producing", Section: "repair"},
		},
	},
}

func ValidPhase(phase string) bool {
	_, ok := phases[phase]
	return ok
}

// Items lists the phase's checklist items in display order.
func Items(phase string) []Item {
	return phases[phase].items
}

func ValidItem(phase, itemID string) bool {
	for _, item := range phases[phase].items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func Bucket(phase string) string {
	return phases[phase].bucket
}

func table(phase string) string {
	return phases[phase].table
}
