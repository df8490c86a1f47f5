package handler

import (
	"time"

	"github.com/holiman/uint256"

	"dropspace/internal/sale/models"
	"dropspace/internal/sale/service"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/num"
)

// Amounts travel as decimal strings so 256-bit values survive JSON without
// float truncation.

type buyRequest struct {
	Amount string `json:"amount"`
	Value  string `json:"value"`
}

type reserveRequest struct {
	Amount string `json:"amount"`
}

type setValueRequest struct {
	Value string `json:"value"`
}

type setStartRequest struct {
	Start uint64 `json:"start"`
}

type setAddressRequest struct {
	Address string `json:"address"`
}

type transferOwnerRequest struct {
	NextOwner string `json:"next_owner"`
}

type receiptResponse struct {
	ID          string    `json:"id"`
	Buyer       string    `json:"buyer"`
	Amount      string    `json:"amount"`
	TotalPaid   string    `json:"total_paid"`
	FirstItemID string    `json:"first_item_id"`
	LastItemID  string    `json:"last_item_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type reserveResponse struct {
	FirstItemID string `json:"first_item_id"`
	LastItemID  string `json:"last_item_id"`
	Issued      string `json:"issued"`
}

type configResponse struct {
	BasePath           string `json:"base_path"`
	Cap                string `json:"cap"`
	PerRequestLimit    string `json:"per_request_limit"`
	UnitPrice          string `json:"unit_price"`
	UnitFee            string `json:"unit_fee"`
	BeneficiaryPrimary string `json:"beneficiary_primary,omitempty"`
	BeneficiaryFee     string `json:"beneficiary_fee,omitempty"`
	SaleStart          uint64 `json:"sale_start"`
}

type statusResponse struct {
	Collection collectionResponse `json:"collection"`
	Config     configResponse     `json:"config"`
	Issued     string             `json:"issued"`
	Active     bool               `json:"active"`
	Owner      string             `json:"owner"`
	Policy     string             `json:"policy"`
}

type collectionResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Symbol     string            `json:"symbol"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type locatorResponse struct {
	ItemID  string `json:"item_id"`
	Locator string `json:"locator"`
	Owner   string `json:"owner,omitempty"`
}

func toReceiptResponse(r *models.Receipt) receiptResponse {
	return receiptResponse{
		ID:          string(r.ID),
		Buyer:       string(r.Buyer),
		Amount:      num.String(r.Amount),
		TotalPaid:   num.String(r.TotalPaid),
		FirstItemID: num.String(r.FirstItemID),
		LastItemID:  num.String(r.LastItemID),
		CreatedAt:   r.CreatedAt,
	}
}

func toReserveResponse(r *service.IssueResult) reserveResponse {
	return reserveResponse{
		FirstItemID: num.String(r.FirstItemID),
		LastItemID:  num.String(r.LastItemID),
		Issued:      num.String(r.Issued),
	}
}

func toConfigResponse(c *models.Config) configResponse {
	resp := configResponse{
		BasePath:        c.BasePath,
		Cap:             num.String(c.Cap),
		PerRequestLimit: num.String(c.PerRequestLimit),
		UnitPrice:       num.String(c.UnitPrice),
		UnitFee:         num.String(c.UnitFee),
		SaleStart:       c.SaleStart,
	}
	if c.BeneficiaryPrimary != nil {
		resp.BeneficiaryPrimary = string(*c.BeneficiaryPrimary)
	}
	if c.BeneficiaryFee != nil {
		resp.BeneficiaryFee = string(*c.BeneficiaryFee)
	}
	return resp
}

func parseAmount(field, raw string) (*uint256.Int, error) {
	if raw == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, field+" is required")
	}
	v, err := num.Parse(raw)
	if err != nil {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, field+" must be a decimal integer")
	}
	return v, nil
}
