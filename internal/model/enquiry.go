// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model contains domain models and constants for the application.
package model

import (
	"regexp"
	"strings"
	"time"
)

// Enquiry statuses
const (
	EnquiryStatusPending   = "pending"
	EnquiryStatusContacted = "contacted"
	EnquiryStatusResolved  = "resolved"
	EnquiryStatusSpam      = "spam"
)

// EnquiryStatusAll is the sentinel value that disables status filtering
// in admin listings.
const EnquiryStatusAll = "all"

// MinPhoneLength is the minimum number of characters in a phone number.
const MinPhoneLength = 10

// emailRegex matches the basic local@domain.tld shape. Full RFC 5322
// validation is deliberately out of scope; the address is never used for
// automated delivery without an admin reading it first.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEnquiryStatuses returns all valid enquiry statuses.
func ValidEnquiryStatuses() []string {
	return []string{
		EnquiryStatusPending,
		EnquiryStatusContacted,
		EnquiryStatusResolved,
		EnquiryStatusSpam,
	}
}

// IsValidEnquiryStatus checks if a status is one of the enumerated values.
func IsValidEnquiryStatus(status string) bool {
	for _, s := range ValidEnquiryStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Enquiry is the API representation of a customer enquiry.
type Enquiry struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phoneNumber"`
	Email      string    `json:"email"`
	Message    string    `json:"message,omitempty"`
	Status     string    `json:"status"`
	AdminNotes string    `json:"adminNotes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EnquiryInput holds the fields of a public enquiry submission.
type EnquiryInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phoneNumber"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate checks the submission fields and returns per-field error
// messages. An empty map means the input is valid.
func (in *EnquiryInput) Validate() map[string]string {
	errs := make(map[string]string)

	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" {
		errs["name"] = "Name is required"
	}

	switch {
	case in.Phone == "":
		errs["phoneNumber"] = "Phone number is required"
	case len(in.Phone) < MinPhoneLength:
		errs["phoneNumber"] = "Phone number must be at least 10 digits"
	}

	switch {
	case in.Email == "":
		errs["email"] = "Email is required"
	case !emailRegex.MatchString(in.Email):
		errs["email"] = "Invalid email address"
	}

	return errs
}
