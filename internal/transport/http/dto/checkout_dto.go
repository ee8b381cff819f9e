package dto

type CheckoutCreateResponse struct {
	PurchaseID int64  `json:"purchase_id"`
	SessionID  string `json:"session_id"`
	URL        string `json:"url"`
}
