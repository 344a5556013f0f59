package session

import (
	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
)

// selectionDTO is the stored JSON shape of a selection.
// Null values are encoded as JSON null.
type selectionDTO struct {
	Version    int                         `json:"v"`
	Categories map[string][]category.Value `json:"categories"`
}

const dtoVersion = 1

func selectionToDTO(sel selection.Selection) selectionDTO {
	return selectionDTO{Version: dtoVersion, Categories: sel.Map()}
}

func selectionFromDTO(d selectionDTO) selection.Selection {
	return selection.Reconstruct(d.Categories)
}
