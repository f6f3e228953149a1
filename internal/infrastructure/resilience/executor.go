package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Outcome 錯誤分類結果
type Outcome struct {
	Retry  bool // 可重試
	Record bool // 計入斷路器失敗
}

// Classifier 依錯誤決定重試與斷路器行為
type Classifier func(err error) Outcome

// StateListener 斷路器狀態改變時呼叫
type StateListener func(operation string, from, to gobreaker.State)

// MaxBreakers 單一執行器保留的斷路器上限
const MaxBreakers = 4096

// Executor 依操作名稱維護獨立斷路器
type Executor struct {
	policy   Policy
	listener StateListener

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// NewExecutor 創建執行器
func NewExecutor(p Policy) *Executor {
	return &Executor{
		policy:   p.withDefaults(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// OnStateChange 設定斷路器狀態監聽，須在第一次 Do 之前呼叫
func (e *Executor) OnStateChange(l StateListener) *Executor {
	e.listener = l
	return e
}

// Do 執行 fn，失敗時依分類重試；斷路器開啟時直接回傳 gobreaker.ErrOpenState
func (e *Executor) Do(ctx context.Context, operation string, fn func(context.Context) error, classify Classifier) error {
	if fn == nil {
		return errors.New("resilience: nil operation")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = ClassifyHTTP
	}

	cb := e.breaker(op, classify)
	if cb == nil {
		return e.retry(ctx, op, fn, classify)
	}

	_, err := cb.Execute(func() (struct{}, error) {
		return struct{}{}, e.retry(ctx, op, fn, classify)
	})
	return err
}

func (e *Executor) retry(ctx context.Context, op string, fn func(context.Context) error, classify Classifier) error {
	var err error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		if !classify(err).Retry || attempt == e.policy.MaxAttempts {
			return err
		}

		wait := e.policy.backoff(attempt)
		common.LogWarn("外部呼叫失敗，準備重試",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.policy.MaxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// breaker 取得操作的斷路器；停用或數量已達上限時回傳 nil
func (e *Executor) breaker(op string, classify Classifier) *gobreaker.CircuitBreaker[struct{}] {
	if !e.policy.BreakerEnabled {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[op]; ok {
		return cb
	}
	if len(e.breakers) >= MaxBreakers {
		common.LogWarn("斷路器數量已達上限，不再新增", zap.String("operation", op), zap.Int("max", MaxBreakers))
		return nil
	}

	p := e.policy
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        op,
		MaxRequests: p.BreakerProbeCalls,
		Timeout:     p.BreakerOpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < p.BreakerMinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= p.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).Record
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("斷路器狀態改變",
				zap.String("operation", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if e.listener != nil {
				e.listener(name, from, to)
			}
		},
	})
	e.breakers[op] = cb
	return cb
}

// IsCircuitOpen 是否為斷路器拒絕
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// StatusError 上游回應非 2xx
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		return fmt.Sprintf("%s: upstream status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Operation, e.StatusCode, body)
}

// ClassifyHTTP 預設分類：逾時與 5xx/429 可重試，4xx 不重試也不計入斷路器
func ClassifyHTTP(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{}
	case errors.Is(err, context.Canceled):
		return Outcome{Retry: false, Record: false}
	case errors.Is(err, context.DeadlineExceeded):
		return Outcome{Retry: false, Record: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return Outcome{Retry: retryableStatus(statusErr.StatusCode), Record: statusErr.StatusCode >= 500}
	}
	return Outcome{Retry: true, Record: true}
}

func retryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}
