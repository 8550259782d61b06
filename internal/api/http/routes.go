package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/fishing-log/internal/astro"
	"github.com/i474232898/fishing-log/internal/labels"
	"github.com/i474232898/fishing-log/internal/weather"
)

var validate = validator.New()

// Deps holds what the handlers need.
type Deps struct {
	Service *weather.Service
	Spots   []weather.Spot

	// Now defaults to time.Now and is used when no date is given.
	Now func() time.Time

	// Ping, when set, is checked by /health.
	Ping func() error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &handlers{deps: deps}

	v1 := app.Group("/api/v1")

	v1.Get("/weather/reading", h.reading)
	v1.Get("/weather/forecast", h.forecast)
	v1.Get("/weather/compare", h.compare)
	v1.Get("/astro", h.astro)

	v1.Get("/spots", h.spots)
	v1.Get("/spots/:id/forecast", h.spotForecast)
	v1.Get("/spots/:id/history", h.spotHistory)
}

type handlers struct {
	deps Deps
}

type readingResponse struct {
	weather.Reading
	Labels *labels.Reading `json:"labels,omitempty"`
}

func (h *handlers) reading(c *fiber.Ctx) error {
	loc, err := parseCoords(c)
	if err != nil {
		return err
	}

	q := readingQuery{Date: c.Query("date"), Time: c.Query("time")}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	at, err := time.ParseInLocation("2006-01-02 15:04", q.Date+" "+q.Time, time.UTC)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	reading, err := h.deps.Service.Reading(c.UserContext(), loc, at)
	if err != nil {
		return err
	}

	resp := readingResponse{Reading: reading}
	if tr, ok := translator(c); ok {
		l := tr.ForReading(reading)
		resp.Labels = &l
	}
	return c.JSON(resp)
}

type forecastResponse struct {
	weather.Forecast
	Labels *labels.Forecast `json:"labels,omitempty"`
}

func (h *handlers) forecast(c *fiber.Ctx) error {
	loc, err := parseCoords(c)
	if err != nil {
		return err
	}

	q := forecastQuery{Source: c.Query("source")}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fc, err := h.deps.Service.Forecast(c.UserContext(), loc, weather.Source(q.Source))
	if err != nil {
		return err
	}
	return c.JSON(withForecastLabels(c, fc))
}

func (h *handlers) compare(c *fiber.Ctx) error {
	loc, err := parseCoords(c)
	if err != nil {
		return err
	}

	cmp, err := h.deps.Service.Compare(c.UserContext(), loc)
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"forecasts": cmp.Forecasts,
		"consensus": cmp.Consensus,
	}
	if len(cmp.Errors) > 0 {
		resp["errors"] = cmp.Errors
	}
	if tr, ok := translator(c); ok {
		resp["labels"] = tr.ForReading(cmp.Consensus.Current)
	}
	return c.JSON(resp)
}

type astroDay struct {
	astro.Day
	DaylightHours  float64 `json:"daylightHours"`
	MoonPhaseLabel string  `json:"moonPhaseLabel,omitempty"`
}

func (h *handlers) astro(c *fiber.Ctx) error {
	loc, err := parseCoords(c)
	if err != nil {
		return err
	}

	q := astroQuery{Date: c.Query("date"), Days: c.Query("days")}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	from := h.deps.Now().UTC()
	if q.Date != "" {
		from, _ = time.Parse("2006-01-02", q.Date)
	}
	n := 1
	if q.Days != "" {
		n, _ = strconv.Atoi(q.Days)
	}

	days, err := astro.Days(loc, from, n)
	if err != nil {
		return err
	}

	tr, labelled := translator(c)
	out := make([]astroDay, 0, len(days))
	for _, d := range days {
		day := astroDay{Day: d, DaylightHours: d.DaylightHours()}
		if labelled {
			day.MoonPhaseLabel = tr.MoonPhase(d.MoonPhase)
		}
		out = append(out, day)
	}
	return c.JSON(out)
}

func (h *handlers) spots(c *fiber.Ctx) error {
	spots := h.deps.Spots
	if spots == nil {
		spots = []weather.Spot{}
	}
	return c.JSON(fiber.Map{
		"primarySource": h.deps.Service.Primary(),
		"spots":         spots,
	})
}

type snapshotResponse struct {
	weather.Snapshot
	Labels *labels.Forecast `json:"labels,omitempty"`
}

func (h *handlers) spotForecast(c *fiber.Ctx) error {
	spot, err := h.spot(c.Params("id"))
	if err != nil {
		return err
	}

	snapshot, err := h.deps.Service.GetLatest(spot.ID)
	if err != nil {
		return err
	}

	resp := snapshotResponse{Snapshot: snapshot}
	if tr, ok := translator(c); ok {
		l := tr.ForForecast(snapshot.Forecast)
		resp.Labels = &l
	}
	return c.JSON(resp)
}

func (h *handlers) spotHistory(c *fiber.Ctx) error {
	spot, err := h.spot(c.Params("id"))
	if err != nil {
		return err
	}

	var req historyQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snapshots, err := h.deps.Service.GetRange(spot.ID, req.From, req.To)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"spot":      spot,
		"from":      req.From,
		"to":        req.To,
		"snapshots": snapshots,
	})
}

func (h *handlers) spot(id string) (weather.Spot, error) {
	for _, s := range h.deps.Spots {
		if s.ID == id {
			return s, nil
		}
	}
	return weather.Spot{}, fiber.NewError(fiber.StatusNotFound, "unknown spot "+strconv.Quote(id))
}

func withForecastLabels(c *fiber.Ctx, fc weather.Forecast) forecastResponse {
	resp := forecastResponse{Forecast: fc}
	if tr, ok := translator(c); ok {
		l := tr.ForForecast(fc)
		resp.Labels = &l
	}
	return resp
}

// translator returns the label translator when the client asked for a language.
func translator(c *fiber.Ctx) (labels.Translator, bool) {
	lang := c.Query("lang")
	accept := c.Get(fiber.HeaderAcceptLanguage)
	if lang == "" && accept == "" {
		return labels.Translator{}, false
	}
	return labels.For(lang, accept), true
}

// coordsQuery holds query parameters for identifying a location.
type coordsQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func parseCoords(c *fiber.Ctx) (weather.Coordinates, error) {
	q := coordsQuery{Lat: c.Query("lat"), Lon: c.Query("lon")}
	if err := validate.Struct(q); err != nil {
		return weather.Coordinates{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return weather.Coordinates{}, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return weather.Coordinates{}, fiber.NewError(fiber.StatusBadRequest, "invalid lon")
	}
	return weather.Coordinates{Lat: lat, Lon: lon}, nil
}

type readingQuery struct {
	Date string `validate:"required,datetime=2006-01-02"`
	Time string `validate:"required,datetime=15:04"`
}

type forecastQuery struct {
	Source string `validate:"omitempty,oneof=openmeteo weatherapi"`
}

type astroQuery struct {
	Date string `validate:"omitempty,datetime=2006-01-02"`
	Days string `validate:"omitempty,number"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
