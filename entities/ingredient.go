package entities

import (
	"github.com/google/uuid"
)

type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name            string    `gorm:"index;not null;uniqueIndex:idx_name_unit" json:"name"`
	MeasurementUnit string    `gorm:"not null;uniqueIndex:idx_name_unit" json:"measurement_unit"`

	Timestamp
}
