package health

type Input struct{}

type Output struct {
	Body Response
}

type Response struct {
	Status string `json:"status" example:"OK" doc:"Health status of the agent"`
	Online bool   `json:"online" doc:"Whether the remote system is reachable"`
}
