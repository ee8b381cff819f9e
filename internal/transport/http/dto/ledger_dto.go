package dto

import "time"

type LedgerEntryResponse struct {
	ID            int64     `json:"id"`
	ResourceID    int64     `json:"resource_id"`
	ResourceTitle string    `json:"resource_title"`
	PriceCents    int64     `json:"price_cents"`
	UserID        int64     `json:"user_id"`
	SessionID     string    `json:"session_id"`
	Paid          bool      `json:"paid"`
	CreatedAt     time.Time `json:"created_at"`
}

type LedgerListResponse struct {
	Purchases []LedgerEntryResponse `json:"purchases"`
}

type LedgerMarkPaidResponse struct {
	PurchaseID int64 `json:"purchase_id"`
	Paid       bool  `json:"paid"`
}

type LedgerDeleteRequest struct {
	ConfirmationCode string `json:"confirmation_code,omitempty"`
}

type LedgerConfirmSetupResponse struct {
	Secret    string `json:"secret"`
	OTPURL    string `json:"otp_url"`
	QRDataURL string `json:"qr_data_url"`
}
