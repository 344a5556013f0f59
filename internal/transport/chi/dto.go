package chi

import (
	"encoding/json"

	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/geo"
	"github.com/kailas-cloud/glossameta/internal/domain/menu"
	filteruc "github.com/kailas-cloud/glossameta/internal/usecase/filter"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeSessionNotFound  ErrorCode = "session_not_found"
	ErrorCodeUnknownCategory  ErrorCode = "unknown_category"
	ErrorCodeInvalidRange     ErrorCode = "invalid_range"
	ErrorCodeNotReady         ErrorCode = "index_not_ready"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- Requests ---

// valueRequest carries one category value; JSON null selects the null value.
type valueRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

type rangeRequest struct {
	Low  *int `json:"low" validate:"required"`
	High *int `json:"high" validate:"required"`
}

type pointDTO struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type circleDTO struct {
	Center  pointDTO `json:"center"`
	RadiusM float64  `json:"radius_m" validate:"gt=0"`
}

type areaRequest struct {
	Polygons [][]pointDTO `json:"polygons" validate:"dive,min=3,dive"`
	Circles  []circleDTO  `json:"circles" validate:"dive"`
}

type selectRequest struct {
	Categories map[string][]category.Value `json:"categories" validate:"required"`
}

// --- Responses ---

type boundsDTO struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type menuEntryDTO struct {
	Key         string           `json:"key"`
	DisplayName string           `json:"display_name"`
	Kind        category.Kind    `json:"kind"`
	Values      []category.Value `json:"values,omitempty"`
	Bounds      *boundsDTO       `json:"bounds,omitempty"`
	HasNull     bool             `json:"has_null"`
}

type markerDTO struct {
	Location     string  `json:"location"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Selected     bool    `json:"selected"`
	AreaSelected bool    `json:"area_selected"`
}

type resultDTO struct {
	SessionID     string                      `json:"session_id,omitempty"`
	Selection     map[string][]category.Value `json:"selection"`
	RecordIDs     []string                    `json:"record_ids"`
	Locations     []string                    `json:"locations"`
	RecordCount   int                         `json:"record_count"`
	LocationCount int                         `json:"location_count"`
	Markers       []markerDTO                 `json:"markers"`
}

type mapViewDTO struct {
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	Zoom      int     `json:"zoom"`
}

type mapResponse struct {
	View    mapViewDTO  `json:"view"`
	Markers []markerDTO `json:"markers"`
}

// --- Converters ---

func menuToDTO(entries []menu.Entry) []menuEntryDTO {
	out := make([]menuEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = menuEntryDTO{
			Key:         e.Key,
			DisplayName: e.DisplayName,
			Kind:        e.Kind,
			Values:      e.Values,
			HasNull:     e.HasNull,
		}
		if e.Bounds != nil {
			out[i].Bounds = &boundsDTO{Min: e.Bounds.Min, Max: e.Bounds.Max}
		}
	}
	return out
}

func markersToDTO(markers []filteruc.Marker) []markerDTO {
	out := make([]markerDTO, len(markers))
	for i, m := range markers {
		out[i] = markerDTO{
			Location:     m.Location,
			Lat:          m.Lat,
			Lng:          m.Lng,
			Selected:     m.Selected,
			AreaSelected: m.AreaSelected,
		}
	}
	return out
}

func resultToDTO(r filteruc.Result) resultDTO {
	return resultDTO{
		SessionID:     r.SessionID,
		Selection:     r.Selection.Map(),
		RecordIDs:     nonNil(r.RecordIDs),
		Locations:     nonNil(r.Locations),
		RecordCount:   r.RecordCount,
		LocationCount: r.LocationCount,
		Markers:       markersToDTO(r.Markers),
	}
}

func areaFromDTO(req areaRequest) geo.Area {
	area := geo.Area{
		Polygons: make([]geo.Polygon, len(req.Polygons)),
		Circles:  make([]geo.Circle, len(req.Circles)),
	}
	for i, poly := range req.Polygons {
		pts := make(geo.Polygon, len(poly))
		for j, p := range poly {
			pts[j] = geo.Point{Lat: p.Lat, Lng: p.Lng}
		}
		area.Polygons[i] = pts
	}
	for i, c := range req.Circles {
		area.Circles[i] = geo.Circle{
			Center:       geo.Point{Lat: c.Center.Lat, Lng: c.Center.Lng},
			RadiusMeters: c.RadiusM,
		}
	}
	return area
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
