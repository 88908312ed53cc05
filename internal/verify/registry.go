package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/supplier-risk/internal/model"
	"github.com/sells-group/supplier-risk/internal/resilience"
	"github.com/sells-group/supplier-risk/internal/risk"
)

// RegistryClient answers one automated verification question about a
// supplier. Implementations return an error only when the check could not be
// performed; an adverse outcome is a result with findings, not an error.
type RegistryClient interface {
	Check(ctx context.Context, verificationType string, supplier model.Supplier) (*model.VerificationResult, error)
}

// SimulatedRegistry answers checks deterministically from the risk tables,
// with no external dependency. It is the default client and the one tests
// run against.
type SimulatedRegistry struct {
	tables  *risk.Tables
	latency time.Duration
}

// NewSimulatedRegistry builds a simulated registry. latency is added to each
// check to mimic a remote call; zero disables it.
func NewSimulatedRegistry(tables *risk.Tables, latency time.Duration) *SimulatedRegistry {
	return &SimulatedRegistry{tables: tables, latency: latency}
}

func (r *SimulatedRegistry) Check(ctx context.Context, verificationType string, supplier model.Supplier) (*model.VerificationResult, error) {
	if r.latency > 0 {
		select {
		case <-time.After(r.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	result := &model.VerificationResult{CheckType: verificationType}
	country := r.tables.CountryScore(supplier.Country)
	sector := r.tables.SectorScore(supplier.IndustryCode)

	switch verificationType {
	case CheckSanctionsList:
		if country >= 85 {
			result.Findings = append(result.Findings, model.Finding{
				Code:     "sanctions_match",
				Detail:   fmt.Sprintf("supplier %s matched a sanctions list entry for %s", supplier.Name, supplier.Country),
				HighRisk: true,
			})
		}
	case CheckDeforestation:
		if country >= 60 {
			result.Findings = append(result.Findings, model.Finding{
				Code:     "deforestation_signal",
				Detail:   fmt.Sprintf("satellite imagery shows canopy loss near sourcing regions in %s", supplier.Country),
				HighRisk: country >= 75,
			})
		}
	case CheckCertification:
		if country >= 80 {
			result.Findings = append(result.Findings, model.Finding{
				Code:   "unverifiable_certification",
				Detail: fmt.Sprintf("no accreditation registry coverage for %s", supplier.Country),
			})
		}
	case CheckPFASRegistry:
		if sector >= 65 {
			result.Findings = append(result.Findings, model.Finding{
				Code:     "registry_mismatch",
				Detail:   fmt.Sprintf("industry code %s is listed as a PFAS handler", supplier.IndustryCode),
				HighRisk: sector >= 75,
			})
		}
	default:
		return nil, eris.Errorf("verify: unknown verification type %q", verificationType)
	}

	result.Passed = len(result.Findings) == 0
	return result, nil
}

// HTTPRegistry calls a remote verification service. Requests are rate
// limited; 5xx and 429 responses surface as transient errors so the
// simulator's retry policy applies.
type HTTPRegistry struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPRegistry builds a client for the registry service at baseURL.
func NewHTTPRegistry(baseURL string, timeout time.Duration, perSec float64) *HTTPRegistry {
	if perSec <= 0 {
		perSec = 5
	}
	return &HTTPRegistry{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

type checkRequest struct {
	VerificationType string `json:"verification_type"`
	SupplierID       string `json:"supplier_id"`
	Name             string `json:"name"`
	Country          string `json:"country"`
	IndustryCode     string `json:"industry_code"`
}

func (r *HTTPRegistry) Check(ctx context.Context, verificationType string, supplier model.Supplier) (*model.VerificationResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "verify: registry rate limit wait")
	}

	body, err := json.Marshal(checkRequest{
		VerificationType: verificationType,
		SupplierID:       supplier.ID,
		Name:             supplier.Name,
		Country:          supplier.Country,
		IndustryCode:     supplier.IndustryCode,
	})
	if err != nil {
		return nil, eris.Wrap(err, "verify: marshal check request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/check", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "verify: build check request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return nil, resilience.NewTransientError(eris.Errorf("verify: registry returned %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, eris.Errorf("verify: registry returned %d", resp.StatusCode)
	}

	var result model.VerificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, eris.Wrap(err, "verify: decode registry response")
	}
	return &result, nil
}
