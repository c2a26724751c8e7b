package http

type PredicateDTO struct {
	Field  string   `json:"field"`
	Op     string   `json:"op"`
	Values []string `json:"values"`
}

type CheckAccessRequest struct {
	Collection string `json:"collection"`
	Operation  string `json:"operation"`
	TargetID   string `json:"target_id,omitempty"`
}

type CheckAccessResponse struct {
	Effect string         `json:"effect"`
	Reason string         `json:"reason"`
	Filter []PredicateDTO `json:"filter,omitempty"`
	// TargetAllowed is set only when the request named a target id.
	TargetAllowed *bool `json:"target_allowed,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
