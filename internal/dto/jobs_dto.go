package dto

// JobsRunRequest is the body of POST /v1/jobs/run — the externally scheduled
// worker invocation. Limit defaults to 10 and is capped at 50.
type JobsRunRequest struct {
	PedidoID *string `json:"order_id" validate:"omitempty,uuid"`
	Limit    int     `json:"limit"    validate:"omitempty,min=1,max=50"`
}

type JobResult struct {
	JobID         string `json:"job_id"`
	PedidoID      string `json:"order_id"`
	Tipo          string `json:"tipo"`
	Status        string `json:"status"`
	Attempts      int    `json:"attempts"`
	Erro          string `json:"error,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

type JobsRunResponse struct {
	OK        bool        `json:"ok"`
	Processed int         `json:"processed"`
	Results   []JobResult `json:"results"`
}
