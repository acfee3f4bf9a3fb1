package helper

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
)

// BuildFunc constructs the handler for a warm execution environment.
type BuildFunc func(ctx context.Context) (http.Handler, error)

// Lazy builds its handler on the first invocation and keeps it while the
// environment stays warm. A failed build is not kept, so the next
// invocation tries again.
type Lazy struct {
	build BuildFunc

	mu      sync.Mutex
	handler http.Handler
}

func NewLazy(build BuildFunc) *Lazy {
	return &Lazy{build: build}
}

func (l *Lazy) get(ctx context.Context) (http.Handler, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handler != nil {
		return l.handler, nil
	}
	handler, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.handler = handler
	return handler, nil
}

func (l *Lazy) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	handler, err := l.get(ctx)
	if err != nil {
		fmt.Printf("[ERROR] failed to initialise api: %v\n", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"success":false,"error":"Server error"}`,
		}, nil
	}
	return Serve(ctx, handler, event)
}
