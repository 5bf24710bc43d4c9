package inspection

type clientIDInput struct {
	ClientID string `path:"client_id" doc:"Client-generated record identifier"`
}

type actionOutput struct {
	Body ActionResponse
}

// ActionResponse результат операции над записью
type ActionResponse struct {
	Status   string `json:"status" example:"OK"`
	ClientID string `json:"client_id"`
}
