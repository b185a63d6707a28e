// Package client 封装 vehicles-api 对 pricing / maps 两个下游服务的
// HTTP 访问：Consul 选址（静态地址兜底）、单次调用超时、熔断。
// 失败一律以 error 返回，由聚合层决定如何降级。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/VehicleMesh/VehicleMesh/internal/common/config"
	"github.com/VehicleMesh/VehicleMesh/internal/common/discovery"
	"github.com/VehicleMesh/VehicleMesh/internal/common/logger"
	"github.com/VehicleMesh/VehicleMesh/internal/common/middleware"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// remote 单个下游服务的访问通道。
type remote struct {
	service string
	baseURL string
	timeout time.Duration
	httpc   *http.Client
	cb      *middleware.CircuitBreaker
	picker  *discovery.Picker
	log     logger.Logger
}

func newRemote(name string, cfg config.ClientConfig, picker *discovery.Picker, log logger.Logger) *remote {
	timeout := time.Duration(cfg.ClientTimeout()) * time.Millisecond
	return &remote{
		service: cfg.Service,
		baseURL: cfg.BaseURL,
		timeout: timeout,
		httpc:   &http.Client{Timeout: timeout},
		cb: middleware.NewCircuitBreaker(
			name,
			cfg.MaxFailures,
			time.Duration(cfg.ResetSec)*time.Second,
		),
		picker: picker,
		log:    log,
	}
}

// endpoint 优先通过 Consul 解析实例地址，失败回退到静态配置。
func (r *remote) endpoint() string {
	if r.picker != nil && r.service != "" {
		if addr, err := r.picker.Pick(r.service); err == nil {
			return "http://" + addr
		}
	}
	return r.baseURL
}

// call 发起一次带超时与熔断的 HTTP 调用，把响应体交给 decode 处理。
// 单次尝试，不做重试；超时 / 非 2xx / 熔断开启都以 error 返回。
func (r *remote) call(ctx context.Context, operation, method, path string, body []byte, decode func([]byte) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.cb.Call(ctx, func() error {
		url := r.endpoint() + path

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		span, _ := opentracing.StartSpanFromContext(ctx, operation)
		defer span.Finish()
		ext.SpanKindRPCClient.Set(span)
		ext.HTTPMethod.Set(span, method)
		ext.HTTPUrl.Set(span, url)
		_ = opentracing.GlobalTracer().Inject(
			span.Context(),
			opentracing.HTTPHeaders,
			opentracing.HTTPHeadersCarrier(req.Header),
		)

		resp, err := r.httpc.Do(req)
		if err != nil {
			ext.Error.Set(span, true)
			return err
		}
		defer resp.Body.Close()

		ext.HTTPStatusCode.Set(span, uint16(resp.StatusCode))
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			ext.Error.Set(span, true)
			return fmt.Errorf("%s: unexpected status %d", operation, resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if decode == nil {
			return nil
		}
		return decode(data)
	})
}

func decodeJSON(out interface{}) func([]byte) error {
	return func(data []byte) error {
		return json.Unmarshal(data, out)
	}
}
