package vin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"yard-sniper/models"
	"yard-sniper/utils"
)

// Decoder looks VINs up against an NHTSA vPIC compatible service.
type Decoder struct {
	baseURL string
	client  *resty.Client
	logger  *utils.Logger
}

// NewDecoder creates a Decoder for baseURL (for example
// https://vpic.nhtsa.dot.gov/api/vehicles) with the given request timeout.
func NewDecoder(baseURL string, timeout time.Duration, logger *utils.Logger) *Decoder {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0")

	return &Decoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

type decodeResponse struct {
	Results []decodeResult `json:"Results"`
}

type decodeResult struct {
	ModelYear        string `json:"ModelYear"`
	Make             string `json:"Make"`
	Model            string `json:"Model"`
	EngineModel      string `json:"EngineModel"`
	DisplacementL    string `json:"DisplacementL"`
	EngineCylinders  string `json:"EngineCylinders"`
	DriveType        string `json:"DriveType"`
	DriveTypePrimary string `json:"DriveTypePrimary"`
}

// Decode returns what the service knows about v. It never fails: inputs
// shorter than MinDecodeLength and every transport or parse error yield a
// zero VinInfo.
func (d *Decoder) Decode(ctx context.Context, v string) models.VinInfo {
	v = strings.ToUpper(strings.TrimSpace(v))
	if len(v) < MinDecodeLength {
		return models.VinInfo{}
	}

	res, err := d.lookup(ctx, v)
	if err != nil {
		d.logger.Warn("[vin] Decode failed for %s: %v", v, err)
		return models.VinInfo{}
	}

	info := models.VinInfo{
		Make:       strings.TrimSpace(res.Make),
		Model:      strings.TrimSpace(res.Model),
		Engine:     Engine(res.EngineModel, res.DisplacementL, res.EngineCylinders),
		Drivetrain: Canonicalize(firstNonEmpty(res.DriveType, res.DriveTypePrimary)),
	}
	if y, err := strconv.Atoi(strings.TrimSpace(res.ModelYear)); err == nil && y > 0 {
		info.Year = y
	}
	return info
}

func (d *Decoder) lookup(ctx context.Context, v string) (*decodeResult, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("format", "json").
		Get(fmt.Sprintf("%s/decodevinvalues/%s", d.baseURL, v))
	if err != nil {
		return nil, fmt.Errorf("vin: request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("vin: status %d", resp.StatusCode())
	}

	var body decodeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("vin: parse: %w", err)
	}
	if len(body.Results) == 0 {
		return &decodeResult{}, nil
	}
	return &body.Results[0], nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
