package dto

// InboundMessageRequest represents a carrier webhook delivery of one SMS
type InboundMessageRequest struct {
	FromNumber   string `json:"fromNumber" binding:"required,min=7,max=16"`
	FromLocation string `json:"fromLocation" binding:"omitempty,max=128"`
	ToNumber     string `json:"toNumber" binding:"required,min=7,max=16"`
	Body         string `json:"body" binding:"omitempty,max=1600"`
	MessageSid   string `json:"messageSid" binding:"omitempty,max=64"`
}
