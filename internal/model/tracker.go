package model

// Tracker is a habit the user checks off per day. Deleting a tracker
// archives it instead of removing the row, so its entry history survives.
type Tracker struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FamilyID    *int64  `json:"familyId"`
	Color       string  `json:"color"`
	Description *string `json:"description"`
	Order       int     `json:"order"`
	IsArchived  bool    `json:"isArchived"`
}

// TrackerPatch carries a partial update. Unset fields are left unchanged;
// an explicit null clears familyId or description. Clearing familyId is how
// a tracker is un-assigned from its family.
type TrackerPatch struct {
	Name        Opt[string] `json:"name,omitzero"`
	FamilyID    Opt[int64]  `json:"familyId,omitzero"`
	Color       Opt[string] `json:"color,omitzero"`
	Description Opt[string] `json:"description,omitzero"`
	Order       Opt[int]    `json:"order,omitzero"`
	IsArchived  Opt[bool]   `json:"isArchived,omitzero"`
}
