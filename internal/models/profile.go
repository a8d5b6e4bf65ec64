package models

// Preferences are per-owner display settings
type Preferences struct {
	Currency          Currency `json:"currency"`
	Notifications     bool     `json:"notifications"`
	PrivateCollection bool     `json:"private_collection"`
}

// Profile is the owner's public collector profile
type Profile struct {
	DisplayName    string      `json:"display_name"`
	Location       string      `json:"location,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	CollectorSince string      `json:"collector_since,omitempty"`
	Preferences    Preferences `json:"preferences"`
}

type ProfileUpdate struct {
	DisplayName    *string      `json:"display_name"`
	Location       *string      `json:"location"`
	Bio            *string      `json:"bio"`
	CollectorSince *string      `json:"collector_since"`
	Preferences    *Preferences `json:"preferences"`
}

// Fields returns the update as top-level JSON fields for a shallow merge
func (u ProfileUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if u.DisplayName != nil {
		fields["display_name"] = *u.DisplayName
	}
	if u.Location != nil {
		fields["location"] = *u.Location
	}
	if u.Bio != nil {
		fields["bio"] = *u.Bio
	}
	if u.CollectorSince != nil {
		fields["collector_since"] = *u.CollectorSince
	}
	if u.Preferences != nil {
		fields["preferences"] = *u.Preferences
	}
	return fields
}
