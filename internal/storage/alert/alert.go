// Package alert notifies the SMS gateway when a cycle fails. The gateway
// owns delivery, retries, and the modem; this engine only posts the
// failed cycle to its HTTP endpoint.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/weldtech/weldwatch/internal/log"
	"github.com/weldtech/weldwatch/internal/types"
)

// Engine posts FAIL cycles to the configured gateway.
type Engine struct {
	gatewayURL string
	recipients []string
	client     *http.Client
}

// New creates an alert engine targeting gatewayURL.
func New(gatewayURL string, recipients []string) *Engine {
	return &Engine{
		gatewayURL: gatewayURL,
		recipients: recipients,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// StartStorageEngine creates a goroutine loop to receive cycle results
// and raise alerts for failures
func (e *Engine) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.CycleResult {
	log.Info("starting FAIL alert engine...")
	resultChan := make(chan types.CycleResult, 10)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case r := <-resultChan:
				if r.PassFail != types.VerdictFail {
					continue
				}
				if err := e.send(ctx, r); err != nil {
					log.Error("could not deliver FAIL alert:", err)
				}
			case <-ctx.Done():
				log.Info("cancellation request received, stopping alert engine")
				return
			}
		}
	}()

	return resultChan
}

type alertPayload struct {
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
	CycleID    string   `json:"cycle_id"`
}

func (e *Engine) send(ctx context.Context, r types.CycleResult) error {
	payload := alertPayload{
		Recipients: e.recipients,
		Message: fmt.Sprintf("WELD FAIL: model %s depth %.2fmm at %s",
			r.ModelName, r.WeldDepth, r.Timestamp.Format("15:04:05")),
		CycleID: r.ID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("could not encode alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %s", resp.Status)
	}

	log.Infof("FAIL alert delivered for cycle %s", r.ID)
	return nil
}
