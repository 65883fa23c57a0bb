package messages

import (
	"fmt"
)

// MessageDetail explains one reconciliation outcome to a human reader.
type MessageDetail struct {
	Title   string
	Message string
	Hint    string
}

// decisionMessages is keyed by versionid.Decision values.
var decisionMessages = map[string]MessageDetail{
	"none": {
		Title:   "No Evidence",
		Message: "None of the fetched files matched a known signature.",
		Hint:    "Check that the target runs this product and that static files are not rewritten by a CDN or optimiser.",
	},
	"single_fetched_version": {
		Title:   "Exact Match",
		Message: "The fetched files agree on exactly one version.",
	},
	"lowest_fetched_version": {
		Title:   "Lowest Fetched Version",
		Message: "The fetched files narrow the site to several versions and no page exposed a version; the oldest candidate is reported.",
		Hint:    "Fetch the version-exposing pages to narrow the range further.",
	},
	"lowest_common_version": {
		Title:   "Confirmed By Page Content",
		Message: "Page content exposes a version that the fetched files also allow; the oldest such version is reported.",
	},
	"trusted_fetched_over_source": {
		Title:   "Fetched Files Trusted",
		Message: "Page content disagrees with the fetched files; at full confidence the oldest fetched candidate is reported.",
		Hint:    "Lower the confidence level to let page content decide close versions.",
	},
	"source_same_minor": {
		Title:   "Page Version, Same Minor Release",
		Message: "Page content exposes a version in the same minor release as a fetched candidate; the oldest such page version is reported.",
	},
	"source_same_major": {
		Title:   "Page Version, Same Major Release",
		Message: "Page content exposes a version in the same major release as a fetched candidate; the oldest such page version is reported.",
	},
	"irreconcilable": {
		Title:   "Inconclusive",
		Message: "Page content and fetched files share no major release.",
		Hint:    "The site may serve assets from another install; compare the file trail by hand.",
	},
}

var uiMessages = map[string]string{
	"ScanStart":            "Identifying %s version of %s",
	"ScanCancelled":        "Scan cancelled by user.",
	"FetchingFiles":        "Fetching %d reference files...",
	"FetchingPages":        "Reading %d version-exposing pages...",
	"ResultTitle":          "--- Result ---",
	"ResultVersion":        "Version",
	"ResultStatus":         "Status",
	"ResultDecision":       "Decision",
	"ResultConfidence":     "Confidence level",
	"ResultFetched":        "Fetched evidence",
	"ResultSource":         "Page evidence",
	"FilesTitle":           "--- File Trail ---",
	"FilesSummary":         "%d matched, %d outliers, %d unmatched",
	"MetricsLine":          "Requests: %d (failed %d) in %s",
	"PagesTitle":           "Pages read",
	"ErrorsTitle":          "Errors",
	"JSONReportSaved":      "JSON Report saved: %s",
	"ReportStored":         "Result stored as %s",
	"StoreUnavailable":     "Result store unavailable: %v",
	"CollectionLoaded":     "Loaded collection %q (%d files, %s)",
	"DBInfoTitle":          "--- Fingerprint Database ---",
	"ServerListening":      "API listening on %s",
	"ServerStopped":        "API stopped",
	"NoEvidenceWarning":    "[!] No version could be identified.",
	"InconclusiveWarning":  "[!] Evidence is contradictory; no version reported.",
	"IdentifiedVersion":    "[OK] %s %s",
	"OfflineManifestError": "Invalid offline manifest: %v",
}

// GetDecisionMessage returns the explanation for a reconciliation decision.
func GetDecisionMessage(decision string) MessageDetail {
	if msg, ok := decisionMessages[decision]; ok {
		return msg
	}
	return MessageDetail{
		Title:   decision,
		Message: fmt.Sprintf("No description for decision '%s'.", decision),
	}
}

func GetUIMessage(id string, args ...interface{}) string {
	format, ok := uiMessages[id]
	if !ok || format == "" {
		return id
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
