package domain

// Models lists every persisted record, in foreign key order.
func Models() []any {
	return []any{
		&User{},
		&Store{},
		&Category{},
		&Product{},
		&ChatRoomRecord{},
		&ChatMessage{},
	}
}
