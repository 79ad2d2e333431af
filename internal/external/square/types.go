package square

// Money mirrors Square's amount_money object: integer minor units plus a
// currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Payment is the nested payment object in Square's responses.
type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id"`
	AmountMoney Money  `json:"amount_money"`
	CreatedAt   string `json:"created_at"`
}

type createPaymentRequest struct {
	SourceID       string `json:"source_id"`
	IdempotencyKey string `json:"idempotency_key"`
	AmountMoney    Money  `json:"amount_money"`
	LocationID     string `json:"location_id"`
	Autocomplete   bool   `json:"autocomplete"`
	ReferenceID    string `json:"reference_id,omitempty"`
	Note           string `json:"note,omitempty"`
}

type paymentEnvelope struct {
	Payment Payment `json:"payment"`
}

type listPaymentsEnvelope struct {
	Payments []Payment `json:"payments"`
}

// listPaymentsQuery is encoded with go-querystring into the list endpoint's
// query parameters.
type listPaymentsQuery struct {
	LocationID string `url:"location_id"`
	BeginTime  string `url:"begin_time"`
	EndTime    string `url:"end_time"`
	SortOrder  string `url:"sort_order"`
	Limit      int    `url:"limit"`
}

// Location is the subset of Square's location object the gateway reports.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type locationEnvelope struct {
	Location Location `json:"location"`
}

type apiErrorBody struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

type errorEnvelope struct {
	Errors []apiErrorBody `json:"errors"`
	Detail string         `json:"detail"`
}
