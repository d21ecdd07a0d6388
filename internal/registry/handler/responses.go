package handler

import (
	"time"

	"certmint/internal/registry"
)

type IssuerResponse struct {
	Address      string            `json:"address"`
	Name         string            `json:"name"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Authorized   bool              `json:"authorized"`
	RegisteredAt time.Time         `json:"registered_at"`
}

func toIssuerResponse(issuer *registry.Issuer) *IssuerResponse {
	return &IssuerResponse{
		Address:      issuer.Address.String(),
		Name:         issuer.Name,
		Metadata:     issuer.Metadata,
		Authorized:   issuer.Authorized,
		RegisteredAt: issuer.RegisteredAt,
	}
}

type CountResponse struct {
	TotalIssuers int `json:"total_issuers"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
