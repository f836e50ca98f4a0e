package usecase

import (
	"github.com/strokeguard/strokeguard/internal/application/dto"
	"github.com/strokeguard/strokeguard/internal/domain/port"
)

// GetModelInfo reports the provenance of the model serving predictions.
type GetModelInfo struct {
	model port.RiskModel
}

// NewGetModelInfo creates a new GetModelInfo use case.
func NewGetModelInfo(m port.RiskModel) *GetModelInfo {
	return &GetModelInfo{model: m}
}

// Execute returns the model description.
func (uc *GetModelInfo) Execute() dto.ModelInfoResponse {
	return dto.FromModelInfo(uc.model.Info())
}
