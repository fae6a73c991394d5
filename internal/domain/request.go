package domain

// QueryRequest is the gateway request to query an agent.
type QueryRequest struct {
	AgentID       uint32 `json:"agent_id"`
	Query         string `json:"query"`
	WalletAddress string `json:"wallet_address"`
}

// QueryResponse is returned once a query has been accepted.
type QueryResponse struct {
	InteractionID uint64            `json:"interaction_id"`
	Status        InteractionStatus `json:"status"`
	EstimatedTime int               `json:"estimated_time"`
}

// PredictRequest is the agent service request.
type PredictRequest struct {
	InteractionID uint64 `json:"interaction_id"`
	AgentID       uint32 `json:"agent_id"`
	Query         string `json:"query"`
}

// PredictResponse is the agent service response.
type PredictResponse struct {
	InteractionID  uint64  `json:"interaction_id"`
	AgentID        uint32  `json:"agent_id"`
	Result         string  `json:"result"`
	ProcessingTime float64 `json:"processing_time"`
}

// ErrorResponse is the body of every non-2xx HTTP response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}
