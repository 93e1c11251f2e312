package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/webwerkstatt-nord/lead-service/internal/app/bootstrap"
	appconfig "github.com/webwerkstatt-nord/lead-service/internal/config"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting lead-service lambda", "env", cfg.Env)

	runtime := bootstrap.New(context.Background(), cfg, logger)

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return serve(ctx, runtime.Handler, evt)
	})
}

// serve adapts one API Gateway event onto the shared HTTP handler.
func serve(ctx context.Context, handler http.Handler, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := buildRequest(ctx, evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"Ungültige Anfrage"}`,
		}, nil
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	headers := make(map[string]string, len(rec.Header()))
	for name, values := range rec.Header() {
		headers[name] = strings.Join(values, ",")
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: rec.Code,
		Headers:    headers,
		Body:       rec.Body.String(),
	}, nil
}

func buildRequest(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := evt.RawPath
	if path == "" {
		path = evt.RequestContext.HTTP.Path
	}
	if path == "" {
		path = "/"
	}

	body := evt.Body
	if evt.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		body = string(decoded)
	}

	url := path
	if evt.RawQueryString != "" {
		url += "?" + evt.RawQueryString
	}

	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	for name, value := range evt.Headers {
		req.Header.Set(name, value)
	}
	if ip := evt.RequestContext.HTTP.SourceIP; ip != "" {
		req.RemoteAddr = ip + ":0"
		if req.Header.Get("X-Real-Ip") == "" {
			req.Header.Set("X-Real-Ip", ip)
		}
	}
	return req, nil
}
