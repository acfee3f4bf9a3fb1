package v1

type Client struct {
	Transport *Transport
	Auth      *AuthEndpoint
	Time      *TimeEndpoint
}

// NewClient initializes the API client. baseURL includes the /api prefix.
func NewClient(baseURL string, token string) *Client {
	t := NewTransport(baseURL, token)
	return &Client{
		Transport: t,
		Auth:      &AuthEndpoint{transport: t},
		Time:      &TimeEndpoint{transport: t},
	}
}
