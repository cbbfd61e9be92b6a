// README: Maps handlers (geocoding, distance/time, place suggestions).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ryde/internal/maps"
	"ryde/internal/types"
)

// Places is the geocoding half of a maps provider.
type Places interface {
	maps.Geocoder
	maps.Suggester
}

type MapHandler struct {
	router maps.Router
	places Places
	log    *zap.Logger
}

func NewMapHandler(router maps.Router, places Places, log *zap.Logger) *MapHandler {
	return &MapHandler{router: router, places: places, log: log}
}

type coordinatesReq struct {
	Address string `form:"address" binding:"required,min=3"`
}

type distanceTimeReq struct {
	OriginLat      *float64 `form:"originLat" binding:"required,latitude"`
	OriginLng      *float64 `form:"originLng" binding:"required,longitude"`
	DestinationLat *float64 `form:"destinationLat" binding:"required,latitude"`
	DestinationLng *float64 `form:"destinationLng" binding:"required,longitude"`
	Profile        string   `form:"profile"`
}

type suggestionsReq struct {
	Input string `form:"input" binding:"required,min=3"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=10"`
}

func (h *MapHandler) Coordinates(c *gin.Context) {
	var req coordinatesReq
	if !bindQuery(c, &req) {
		return
	}
	p, err := h.places.Geocode(c.Request.Context(), strings.TrimSpace(req.Address))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *MapHandler) DistanceTime(c *gin.Context) {
	var req distanceTimeReq
	if !bindQuery(c, &req) {
		return
	}
	profile, err := maps.ParseProfile(req.Profile)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	q, err := h.router.QuoteRoute(c.Request.Context(),
		types.Point{Lat: *req.OriginLat, Lng: *req.OriginLng},
		types.Point{Lat: *req.DestinationLat, Lng: *req.DestinationLng},
		profile,
	)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

func (h *MapHandler) Suggestions(c *gin.Context) {
	var req suggestionsReq
	if !bindQuery(c, &req) {
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = maps.DefaultSuggestionLimit
	}
	out, err := h.places.Suggest(c.Request.Context(), strings.TrimSpace(req.Input), limit)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	if out == nil {
		out = []string{}
	}
	writeJSON(c, http.StatusOK, gin.H{"suggestions": out})
}
