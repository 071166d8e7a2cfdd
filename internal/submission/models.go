package submission

// Input is the raw send-pdf body. Fields are pointers so an absent key and an
// empty string can be told apart in logs, although validation treats both
// the same way.
type Input struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// Request is a validated submission. Phone is empty when the client did not
// send one.
type Request struct {
	Name  string
	Email string
	Phone string
}
