package domain

import "fmt"

var (
	MessageSuccessGetIngredients   = "success get ingredients"
	MessageSuccessGetIngredient    = "success get ingredient"
	MessageSuccessImportIngredient = "ingredient import finished"
	MessageFailedGetIngredients    = "failed to get ingredients"
	MessageFailedGetIngredient     = "failed to get ingredient"
	MessageFailedImportIngredient  = "failed to import ingredients"

	ErrIngredientNotFound = fmt.Errorf("%w: ingredient not found", ErrNotFound)
)

type (
	IngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}

	// ImportSummary reports the per-record outcome of a catalog import.
	// Malformed and duplicate rows are skipped, never fatal.
	ImportSummary struct {
		Imported  int `json:"imported"`
		Malformed int `json:"malformed"`
		Duplicate int `json:"duplicate"`
	}
)
