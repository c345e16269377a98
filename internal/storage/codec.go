package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
)

var emptyCollection = []byte("[]")

// decode parses a serialized collection. Blank input is an empty collection.
func decode(data []byte) ([]models.Note, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Note{}, nil
	}
	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCorrupt, err)
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, nil
}

func encode(notes []models.Note) ([]byte, error) {
	if len(notes) == 0 {
		return emptyCollection, nil
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	return data, nil
}
