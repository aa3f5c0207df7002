package dto

type DispatchResponse struct {
	OK             bool    `json:"ok"`
	Message        string  `json:"message"`
	PlanURL        string  `json:"plan_url,omitempty"`
	DeliveryPoints int     `json:"delivery_points"`
	TotalTonnage   float64 `json:"total_tonnage"`
	TotalAmount    float64 `json:"total_amount"`
}
