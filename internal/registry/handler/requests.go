package handler

import (
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

type AddIssuerRequest struct {
	Address  string            `json:"address"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r *AddIssuerRequest) Validate() error {
	if _, err := id.ParseAddress(r.Address); err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid issuer address")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer name is required")
	}
	return nil
}

type TransferAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}

func (r *TransferAdminRequest) Validate() error {
	if _, err := id.ParseAddress(r.NewAdmin); err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid admin address")
	}
	return nil
}
