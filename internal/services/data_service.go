package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apierrors "covidcli/internal/errors"
	"covidcli/internal/infrastructure"
	"covidcli/internal/query"
	"covidcli/pkg/contracts/domain"
)

// dateLayout is the wire format for calendar dates on the query surface.
const dateLayout = "2006-01-02"

// DataService exposes the query engine to the transport layer: it validates
// requests, translates engine errors into API errors, and records query
// metrics. It holds no mutable state, so it is safe for concurrent use.
type DataService struct {
	engine   *query.Engine
	stats    domain.LoadStats
	validate *validator.Validate
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.QueryMetrics
}

// NewDataService creates the data service over a built dataset. Providers
// may be nil (as in tests), which disables tracing and metrics.
func NewDataService(dataset *domain.Dataset, logger *slog.Logger, providers *infrastructure.OTelProviders) (*DataService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &DataService{
		engine:   query.NewEngine(dataset),
		stats:    dataset.Stats,
		validate: validator.New(),
		logger:   logger.With(slog.String("service", "data")),
	}

	if providers != nil {
		s.tracer = providers.Tracer
		if providers.Meter != nil {
			metrics, err := infrastructure.CreateQueryMetrics(providers.Meter)
			if err != nil {
				return nil, err
			}
			s.metrics = metrics
		}
	}

	return s, nil
}

// QueryRequest carries one range query from the selector boundary. From and
// To are calendar dates; the country must be a value obtained from the
// countries endpoint.
type QueryRequest struct {
	Country string `json:"country" validate:"required"`
	From    string `json:"from" validate:"required,datetime=2006-01-02"`
	To      string `json:"to" validate:"required,datetime=2006-01-02"`
}

// SeriesPoint is one day of the filtered series, date rendered as a plain
// calendar date for the UI collaborator.
type SeriesPoint struct {
	Date      string `json:"date"`
	Confirmed int64  `json:"confirmed"`
	Deaths    int64  `json:"deaths"`
	Recovered int64  `json:"recovered"`
	Active    int64  `json:"active"`
}

// QueryResponse is the result boundary payload: the series plus the KPIs.
// The UI renders these as-is and must not re-derive the numbers.
type QueryResponse struct {
	Country string        `json:"country"`
	From    string        `json:"from"`
	To      string        `json:"to"`
	Series  []SeriesPoint `json:"series"`
	KPIs    query.KPIs    `json:"kpis"`
}

// DateBoundsResponse bounds the external date-range picker.
type DateBoundsResponse struct {
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
}

// Countries returns the dataset's country domain, sorted, for the selector
// boundary.
func (s *DataService) Countries(ctx context.Context) []string {
	if s.tracer != nil {
		var span trace.Span
		_, span = s.tracer.Start(ctx, "data.countries")
		defer span.End()
	}
	return s.engine.Countries()
}

// Bounds returns the global min/max calendar date across the dataset.
func (s *DataService) Bounds(ctx context.Context) *DateBoundsResponse {
	if s.tracer != nil {
		var span trace.Span
		_, span = s.tracer.Start(ctx, "data.bounds")
		defer span.End()
	}

	min, max, ok := s.engine.DateBounds()
	if !ok {
		// The pipeline refuses to build an empty dataset, so this does not
		// happen in a running process.
		return &DateBoundsResponse{}
	}
	return &DateBoundsResponse{
		MinDate: min.Format(dateLayout),
		MaxDate: max.Format(dateLayout),
	}
}

// Stats reports the load statistics of the dataset being served.
func (s *DataService) Stats(ctx context.Context) domain.LoadStats {
	return s.stats
}

// Query validates and executes one range query. Contract violations (bad
// dates, unknown country) map to 400-level API errors; an empty or reversed
// range is a successful response with an empty series and zero KPIs.
func (s *DataService) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "data.query",
			trace.WithAttributes(
				attribute.String("query.country", req.Country),
				attribute.String("query.from", req.From),
				attribute.String("query.to", req.To),
			))
		defer span.End()
	}

	start := time.Now()

	if err := s.validate.Struct(req); err != nil {
		s.recordFailure(ctx)
		return nil, validationToAPIError(err)
	}

	// Layout errors are caught by validation above.
	from, _ := time.Parse(dateLayout, req.From)
	to, _ := time.Parse(dateLayout, req.To)

	result, err := s.engine.Query(req.Country, from, to)
	if err != nil {
		s.recordFailure(ctx)
		if errors.Is(err, query.ErrUnknownCountry) {
			s.logger.WarnContext(ctx, "query for unknown country",
				slog.String("country", req.Country))
			return nil, apierrors.ErrUnknownCountry(req.Country)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.QueriesTotal.Add(ctx, 1)
		s.metrics.QueryDuration.Record(ctx, time.Since(start).Seconds())
	}

	s.logger.DebugContext(ctx, "query served",
		slog.String("country", req.Country),
		slog.Int("points", len(result.Series)))

	return &QueryResponse{
		Country: req.Country,
		From:    req.From,
		To:      req.To,
		Series:  toSeriesPoints(result.Series),
		KPIs:    result.KPIs,
	}, nil
}

func (s *DataService) recordFailure(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.QueryFailures.Add(ctx, 1)
	}
}

func toSeriesPoints(records []domain.DerivedRecord) []SeriesPoint {
	points := make([]SeriesPoint, len(records))
	for i, r := range records {
		points[i] = SeriesPoint{
			Date:      r.Date.Format(dateLayout),
			Confirmed: r.Confirmed,
			Deaths:    r.Deaths,
			Recovered: r.Recovered,
			Active:    r.Active,
		}
	}
	return points
}

// validationToAPIError flattens validator errors into the API error shape.
func validationToAPIError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.ErrValidationFailed
	}

	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		msg := "invalid value"
		switch fe.Tag() {
		case "required":
			msg = "field is required"
		case "datetime":
			msg = "must be a calendar date in YYYY-MM-DD form"
		}
		fields = append(fields, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: msg,
		})
	}
	return apierrors.NewValidationErrors(fields)
}
