package domain

type ToolStatus string

const (
	ToolStatusAvailable   ToolStatus = "AVAILABLE"
	ToolStatusUnavailable ToolStatus = "UNAVAILABLE"
	ToolStatusRented      ToolStatus = "RENTED"
)

// Tool is the catalog projection the booking core depends on. Catalog CRUD
// and photo management live outside this service.
type Tool struct {
	ID                 string     `json:"id"`
	OwnerID            string     `json:"owner_id"`
	Name               string     `json:"name"`
	BasePriceCents     int64      `json:"base_price_cents"` // per rental day
	DepositAmountCents int64      `json:"deposit_amount_cents"`
	Status             ToolStatus `json:"status"`
}
