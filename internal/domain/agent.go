package domain

// Agent is a catalog entry describing one marketplace agent.
type Agent struct {
	ID            uint32     `json:"id" yaml:"id"`
	Owner         string     `json:"owner" yaml:"owner"`
	Capability    Capability `json:"capability" yaml:"capability"`
	Name          string     `json:"name" yaml:"name"`
	Description   string     `json:"description" yaml:"description"`
	ModelInfo     string     `json:"model_info" yaml:"model_info"`
	Version       string     `json:"version" yaml:"version"`
	PricePerQuery uint64     `json:"price_per_query" yaml:"price_per_query"`
	StakeAmount   uint64     `json:"stake_amount" yaml:"stake_amount"`
	Active        bool       `json:"active" yaml:"active"`
	CreatedAt     int64      `json:"created_at" yaml:"created_at"`
}
