// Package email delivers operational mail for the dashboard.
package email

import (
	"context"
	"time"
)

// StaleDeal is one entry in the stale-deal digest.
type StaleDeal struct {
	DealID         string
	BuyerName      string
	PropertyLabel  string
	Stage          string
	LastActivityAt time.Time
}

// Sender delivers operational mail.
type Sender interface {
	// SendStaleDealDigest mails the list of deals that have gone quiet.
	SendStaleDealDigest(ctx context.Context, toEmail string, deals []StaleDeal) error
	// SendTransitionFailureAlert notifies the operator that a stage change
	// could not be applied upstream.
	SendTransitionFailureAlert(ctx context.Context, toEmail, dealID, fromStage, toStage, reason string) error
}
