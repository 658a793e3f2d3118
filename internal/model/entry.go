package model

// TrackerEntry records that a tracker was completed on a calendar day.
// Date is stored as YYYY-MM-DD text; at most one entry exists per
// (TrackerID, Date) pair.
type TrackerEntry struct {
	ID        int64   `json:"id"`
	TrackerID int64   `json:"trackerId"`
	Date      string  `json:"date"`
	Note      *string `json:"note"`
	PhotoURL  *string `json:"photoUrl"`
}

// TrackerEntryPatch carries a partial update. Unset fields are left
// unchanged; an explicit null clears note or photoUrl.
type TrackerEntryPatch struct {
	TrackerID Opt[int64]  `json:"trackerId,omitzero"`
	Date      Opt[string] `json:"date,omitzero"`
	Note      Opt[string] `json:"note,omitzero"`
	PhotoURL  Opt[string] `json:"photoUrl,omitzero"`
}
