package weather

import "errors"

var (
	// ErrFetchFailed wraps every transport, status or decoding failure from a provider.
	ErrFetchFailed = errors.New("failed to fetch weather data")

	// ErrNoDataForTime is returned when the requested hour is outside the provider's hourly series.
	ErrNoDataForTime = errors.New("no weather data available for the specified time")

	// ErrMalformedResponse is returned when a decoded provider response lacks required entries.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrUnknownSource is returned when a forecast is requested from a source that is not configured.
	ErrUnknownSource = errors.New("unknown weather source")
)
