package model

// All returns every persisted model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserDocument{},
		&LeadStatus{},
		&ReferenceSource{},
		&PropertyCategory{},
		&PropertyStatus{},
		&Lead{},
		&LeadReferral{},
		&Property{},
		&PropertyImage{},
		&PropertyReferral{},
		&Viewing{},
		&ViewingUpdate{},
		&Notification{},
	}
}
