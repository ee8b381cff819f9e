package model

import "time"

// Purchase is one checkout attempt against one resource by one user.
// SessionID is the gateway's checkout-session token and correlates the
// asynchronous confirmation event with this row. Paid flips false to true
// exactly once; nothing reverses it.
type Purchase struct {
	ID         int64     `json:"id"`
	ResourceID int64     `json:"resource_id"`
	UserID     int64     `json:"user_id"`
	SessionID  string    `json:"session_id"`
	Paid       bool      `json:"paid"`
	CreatedAt  time.Time `json:"created_at"`
}
