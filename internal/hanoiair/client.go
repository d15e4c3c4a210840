// Package hanoiair is a typed client for the HanoiAir public API, the
// upstream source of every ingestion feed.
package hanoiair

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/ingest"
)

// DefaultBaseURL is the production HanoiAir host.
const DefaultBaseURL = "https://geoi.com.vn"

// Province identifiers as the upstream knows them. The numeric id selects the
// internal district id format, the GADM id the administrative format.
const (
	ProvinceNumericID = "12"
	ProvinceGADMID    = "VNM.27_1"
)

var (
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Client calls the HanoiAir endpoints with a timeout, retries with
// exponential backoff, and a circuit breaker shared across all feeds.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	backoff    time.Duration
}

// New creates a Client for the given base URL (DefaultBaseURL when empty).
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "hanoiair",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
		}),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

// envelope is the common response wrapper of the analysis endpoints.
type envelope struct {
	Code int `json:"Code"`
	Data struct {
		Comps json.RawMessage `json:"comps"`
	} `json:"Data"`
}

// DistrictsInternal lists the province's districts keyed by internal id
// (ID_XXXXX format).
func (c *Client) DistrictsInternal(ctx context.Context) ([]ingest.DistrictRow, error) {
	items, err := c.districts(ctx, ProvinceNumericID)
	if err != nil {
		return nil, err
	}
	rows := make([]ingest.DistrictRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, ingest.DistrictRow{
			InternalID: it.ID,
			Name:       it.Name,
			Type:       it.Type,
			MinX:       it.MinX.String(),
			MinY:       it.MinY.String(),
			MaxX:       it.MaxX.String(),
			MaxY:       it.MaxY.String(),
		})
	}
	return rows, nil
}

// DistrictsAdministrative lists the same districts keyed by administrative id
// (VNM.27.X_1 format).
func (c *Client) DistrictsAdministrative(ctx context.Context) ([]ingest.DistrictRow, error) {
	items, err := c.districts(ctx, ProvinceGADMID)
	if err != nil {
		return nil, err
	}
	rows := make([]ingest.DistrictRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, ingest.DistrictRow{
			AdministrativeID: it.ID,
			Name:             it.Name,
			Type:             it.Type,
			MinX:             it.MinX.String(),
			MinY:             it.MinY.String(),
			MaxX:             it.MaxX.String(),
			MaxY:             it.MaxY.String(),
		})
	}
	return rows, nil
}

type districtItem struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type string      `json:"type"`
	MinX json.Number `json:"minx"`
	MinY json.Number `json:"miny"`
	MaxX json.Number `json:"maxx"`
	MaxY json.Number `json:"maxy"`
}

func (c *Client) districts(ctx context.Context, provinceID string) ([]districtItem, error) {
	q := url.Values{}
	q.Set("province_id", provinceID)
	q.Set("lang_id", "vi")

	var items []districtItem
	err := c.getJSON(ctx, "/api/administrative/administrative_province_district", q, &items)
	if err != nil {
		return nil, err
	}

	districts := make([]districtItem, 0, len(items))
	for _, it := range items {
		if it.Type == "district" {
			districts = append(districts, it)
		}
	}
	return districts, nil
}

// CurrentStatistics returns the per-district daily AQI averages for one date.
func (c *Client) CurrentStatistics(ctx context.Context, date time.Time) ([]ingest.CurrentRow, error) {
	day := date.Format("2006-01-02")
	payload := map[string]any{
		"id":           ProvinceNumericID,
		"from_date":    day + " 00:00:00",
		"to_date":      day + " 23:59:59",
		"component_id": "aqi",
		"lang_id":      "vi",
	}

	var comps []struct {
		ID   string      `json:"id"`
		Name string      `json:"name"`
		Val  json.Number `json:"val"`
	}
	if err := c.postComps(ctx, "/api/analysis/district_avg_statistic", payload, &comps); err != nil {
		return nil, err
	}

	rows := make([]ingest.CurrentRow, 0, len(comps))
	for _, comp := range comps {
		rows = append(rows, ingest.CurrentRow{
			DistrictID:   comp.ID,
			DistrictName: comp.Name,
			Date:         day,
			AQI:          comp.Val.String(),
			Component:    "aqi",
			Source:       "hanoiair",
		})
	}
	return rows, nil
}

// Rankings returns the province ranking for one date, comparing against the
// previous day.
func (c *Client) Rankings(ctx context.Context, date time.Time) ([]ingest.RankingRow, error) {
	day := date.Format("2006-01-02")
	payload := map[string]any{
		"group_id":          "satellite_aqi_pm25",
		"component_id":      "pm25",
		"date_shooting":     day,
		"date_shooting_pre": date.AddDate(0, 0, -1).Format("2006-01-02"),
		"lang_id":           "vi",
		"province_id":       ProvinceGADMID,
	}

	var comps []struct {
		AdministrativeID   string      `json:"administrative_id"`
		AdministrativeName string      `json:"administrative_name"`
		No                 json.Number `json:"no"`
		Avg                json.Number `json:"avg"`
		AvgPre             json.Number `json:"avg_pre"`
	}
	if err := c.postComps(ctx, "/api/componentgeotiffdaily/rankingprovince", payload, &comps); err != nil {
		return nil, err
	}

	rows := make([]ingest.RankingRow, 0, len(comps))
	for _, comp := range comps {
		rows = append(rows, ingest.RankingRow{
			DistrictAdminID: comp.AdministrativeID,
			DistrictName:    comp.AdministrativeName,
			Date:            day,
			Rank:            comp.No.String(),
			AQIAvg:          comp.Avg.String(),
			AQIPrev:         comp.AvgPre.String(),
			Component:       "pm25",
		})
	}
	return rows, nil
}

type geotiffComp struct {
	RequestDate string      `json:"requestdate"`
	Val         json.Number `json:"val"`
	ValAQI      json.Number `json:"val_aqi"`
}

// DistrictSeries returns one district's PM2.5 series around the base date:
// preDays backcast days plus nextDays forecast days.
func (c *Client) DistrictSeries(ctx context.Context, districtID, districtName string, baseDate time.Time, preDays, nextDays int) ([]ingest.ForecastRow, error) {
	payload := map[string]any{
		"district_id":       districtID,
		"groupcomponent_id": "63",
		"date_request":      baseDate.Format("2006-01-02"),
		"predays":           preDays,
		"nextdays":          nextDays,
		"lang_id":           "vi",
	}

	var comps []geotiffComp
	if err := c.postComps(ctx, "/api/componentgeotiffdaily/identify_district_id_list_geotiff", payload, &comps); err != nil {
		return nil, err
	}

	rows := make([]ingest.ForecastRow, 0, len(comps))
	for _, comp := range comps {
		rows = append(rows, ingest.ForecastRow{
			DistrictID:   districtID,
			DistrictName: districtName,
			ForecastDate: comp.RequestDate,
			BaseDate:     baseDate.Format("2006-01-02"),
			PM25:         comp.Val.String(),
			AQI:          comp.ValAQI.String(),
			Component:    "pm25",
		})
	}
	return rows, nil
}

// ProvinceSeries returns the province-wide historical PM2.5 series for the
// preDays days up to the base date.
func (c *Client) ProvinceSeries(ctx context.Context, baseDate time.Time, preDays int) ([]ingest.HistoricalRow, error) {
	payload := map[string]any{
		"province_id":       ProvinceGADMID,
		"groupcomponent_id": "63",
		"date_request":      baseDate.Format("2006-01-02"),
		"predays":           preDays,
		"nextdays":          0,
		"lang_id":           "vi",
	}

	var comps []geotiffComp
	if err := c.postComps(ctx, "/api/componentgeotiffdaily/identify_province_id_list_geotiff", payload, &comps); err != nil {
		return nil, err
	}

	rows := make([]ingest.HistoricalRow, 0, len(comps))
	for _, comp := range comps {
		rows = append(rows, ingest.HistoricalRow{
			ProvinceID: ProvinceGADMID,
			Date:       comp.RequestDate,
			PM25:       comp.Val.String(),
			AQI:        comp.ValAQI.String(),
			Component:  "pm25",
		})
	}
	return rows, nil
}

// Tile addresses one WMTS tile of the PM2.5 AQI grid layer.
type Tile struct {
	Col  int
	Row  int
	Zoom int
}

// GridTile fetches one tile of the station-days AQI layer in GeoJSON form and
// flattens its features into grid rows.
func (c *Client) GridTile(ctx context.Context, tile Tile) ([]ingest.GridRow, error) {
	q := url.Values{}
	q.Set("REQUEST", "GetTile")
	q.Set("SERVICE", "WMTS")
	q.Set("VERSION", "1.0.0")
	q.Set("LAYER", "hydroalp:gis_a_station_days_aqi_pm25")
	q.Set("STYLE", "")
	q.Set("TILEMATRIX", fmt.Sprintf("EPSG:4326:%d", tile.Zoom))
	q.Set("TILEMATRIXSET", "EPSG:4326")
	q.Set("FORMAT", "application/json;type=geojson")
	q.Set("TILECOL", fmt.Sprintf("%d", tile.Col))
	q.Set("TILEROW", fmt.Sprintf("%d", tile.Row))

	var collection struct {
		Features []struct {
			Properties struct {
				CoorX            json.Number `json:"coor_x"`
				CoorY            json.Number `json:"coor_y"`
				AQIPM25          json.Number `json:"aqi_pm25"`
				DatetimeShooting string      `json:"datetime_shooting"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := c.getJSON(ctx, "/geoserver/gwc/service/wmts", q, &collection); err != nil {
		return nil, err
	}

	rows := make([]ingest.GridRow, 0, len(collection.Features))
	for _, f := range collection.Features {
		rows = append(rows, ingest.GridRow{
			Lat:    f.Properties.CoorY.String(),
			Lon:    f.Properties.CoorX.String(),
			AQI:    f.Properties.AQIPM25.String(),
			Time:   f.Properties.DatetimeShooting,
			Source: "hanoiair-wmts",
		})
	}
	return rows, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	build := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	}
	return c.do(ctx, build, out)
}

// postComps posts a JSON payload and unmarshals the comps array of the
// standard response envelope.
func (c *Client) postComps(ctx context.Context, path string, payload map[string]any, comps any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	build := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var env envelope
	if err := c.do(ctx, build, &env); err != nil {
		return err
	}
	if env.Code != http.StatusOK {
		return fmt.Errorf("%s: upstream code %d", path, env.Code)
	}
	if len(env.Data.Comps) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data.Comps, comps)
}

// do runs the request through the breaker, retrying transient failures with
// exponential backoff, and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error), out any) error {
	var lastErr error
	delay := c.backoff

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, err := build()
		if err != nil {
			return err
		}
		req = req.WithContext(ctx)

		_, err = c.breaker.Execute(func() (any, error) {
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			dec := json.NewDecoder(resp.Body)
			dec.UseNumber()
			if err := dec.Decode(out); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			return nil, nil
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.maxRetries {
			return lastErr
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
