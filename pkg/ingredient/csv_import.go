package ingredient

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"gorm.io/gorm"
)

// ImportIngredients loads (name, measurement_unit) records from a two-column
// CSV source. Malformed and duplicate records are counted and skipped, so a
// re-run over the same source inserts nothing and is safe after a partial
// failure. Records are committed one by one, not as a single transaction.
func (s *ingredientService) ImportIngredients(ctx context.Context, source io.Reader) (domain.ImportSummary, error) {
	reader := csv.NewReader(source)
	reader.FieldsPerRecord = -1

	var summary domain.ImportSummary
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.Malformed++
			continue
		}

		if len(record) != 2 || record[0] == "" || record[1] == "" {
			summary.Malformed++
			continue
		}

		name, unit := record[0], record[1]
		exists, err := s.ingredientRepository.ExistsByNameAndUnit(ctx, name, unit)
		if err != nil {
			return summary, err
		}
		if exists {
			summary.Duplicate++
			continue
		}

		ing := &entities.Ingredient{Name: name, MeasurementUnit: unit}
		if err := s.ingredientRepository.CreateIngredient(ctx, ing); err != nil {
			// A concurrent import may have inserted the same pair between
			// the existence check and the insert.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				summary.Duplicate++
				continue
			}
			return summary, err
		}
		summary.Imported++
	}

	return summary, nil
}
