package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MOrdersPlaced            MetricKey = "orders_placed_total"
	MPaymentConfirmations    MetricKey = "payment_confirmations_total"
)

// CounterKeys lists every counter the chat, payment and HTTP layers report.
func CounterKeys() []MetricKey {
	return []MetricKey{
		MUsecaseRequests,
		MHTTPRequests,
		MExternalRequests,
		MOrdersPlaced,
		MPaymentConfirmations,
	}
}

func HistogramKeys() []MetricKey {
	return []MetricKey{
		MUsecaseDuration,
		MHTTPRequestDuration,
		MExternalRequestDuration,
	}
}
