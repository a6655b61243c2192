package contacts

type rowErrorView struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type uploadResponse struct {
	Inserted  int            `json:"inserted"`
	RowErrors []rowErrorView `json:"row_errors,omitempty"`
}
