package models

// Classroom is a bookable room.
type Classroom struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name" validate:"required"`
	Capacity int    `db:"capacity" json:"capacity" validate:"gte=1"`
	Type     string `db:"type" json:"type" validate:"required"`
}
