package model

// Family is a named category grouping trackers for display.
type Family struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Icon  *string `json:"icon"`
	Order int     `json:"order"`
}

// FamilyPatch carries a partial update. Unset fields are left unchanged;
// an explicit null clears icon.
type FamilyPatch struct {
	Name  Opt[string] `json:"name,omitzero"`
	Icon  Opt[string] `json:"icon,omitzero"`
	Order Opt[int]    `json:"order,omitzero"`
}
