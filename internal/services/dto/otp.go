package dto

import "time"

type IssueOtpRequest struct {
	Subject string `json:"subject" validate:"required,max=255,public-otp-subject"`
}

type VerifyOtpRequest struct {
	Subject string `json:"subject" validate:"required,max=255,public-otp-subject"`
	Code    string `json:"code" validate:"required,numeric,len=6"`
}

type IssueOtpResponse struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
	// Code возвращается только вне production
	Code string `json:"code,omitempty"`
}

type VerifyOtpResponse struct {
	Result string `json:"result"`
}
