package model

import "time"

// BanRecord is the metadata stored alongside a banned IP (spec §3, §6.4
// hash ban_details:<ip>).
type BanRecord struct {
	IP        string    `json:"ip"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportRecord is one entry in a subject IP's report log (spec §3, §6.4
// list reports:<ip>, TTL 24h).
type ReportRecord struct {
	ReporterConnID string    `json:"reporter_connection_id"`
	ReporterIP     string    `json:"reporter_ip"`
	SubjectIP      string    `json:"subject_ip"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}

// ReportWindow is the TTL of a report log before it resets (spec §3).
const ReportWindow = 24 * time.Hour

// AutoBanThreshold is the report count that triggers an automatic ban
// (spec §4.5, §8 boundary: 4 accepted, 5th triggers).
const AutoBanThreshold = 5
