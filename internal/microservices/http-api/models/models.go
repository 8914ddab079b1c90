package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&ConfirmationCode{},
		&Category{},
		&Genre{},
		&Title{},
		&Review{},
		&Comment{},
	}
}
