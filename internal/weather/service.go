package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weatherai/internal/catalog"
)

var (
	// ErrUnknownLocation is returned when the location text matches no station.
	ErrUnknownLocation = errors.New("unknown location")
	// ErrEmptyLocation is returned when a request carries no location at all.
	ErrEmptyLocation = errors.New("location is required")
	// ErrNotReady is returned before the first successful Reload.
	ErrNotReady = errors.New("station catalog not loaded")
	// ErrTooManyDays is returned when a request asks for more days than the
	// service allows for its kind.
	ErrTooManyDays = errors.New("too many days requested")
)

// Series sources.
const (
	SourceDataset     = "dataset"
	SourceSynthesized = "synthesized"
	SourceNone        = "none"
)

const (
	defaultLookbackDays    = 30
	defaultQueryDays       = 7
	defaultMaxForecastDays = 30
	defaultMaxHistoryDays  = 3650
)

// Service answers weather requests from the catalog, the series store, the
// external providers and the synthesizer.
type Service struct {
	loader    Loader
	store     SeriesStore
	providers []HistoryProvider
	current   CurrentProvider
	parser    QueryParser

	now             func() time.Time
	newSource       func() NormSource
	lookbackDays    int
	defaultDays     int
	maxForecastDays int
	maxHistoryDays  int

	resolver atomic.Pointer[catalog.Resolver]
	reloadMu sync.Mutex
	// dataMu pairs the resolver and the store contents: reloads swap both
	// under the write lock, requests resolve and read under the read lock.
	dataMu sync.RWMutex
}

// Option configures a Service.
type Option func(*Service)

// WithHistoryProviders sets the external providers tried, in order, when the
// store has no rows for a window.
func WithHistoryProviders(p ...HistoryProvider) Option {
	return func(s *Service) { s.providers = append(s.providers, p...) }
}

// WithCurrentProvider sets the provider for present conditions.
func WithCurrentProvider(p CurrentProvider) Option {
	return func(s *Service) { s.current = p }
}

// WithQueryParser sets the natural-language parser used by Analyze.
func WithQueryParser(p QueryParser) Option {
	return func(s *Service) { s.parser = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSourceFactory sets how each request gets its noise source.
func WithSourceFactory(f func() NormSource) Option {
	return func(s *Service) { s.newSource = f }
}

// WithSeed makes every synthesis reproducible.
func WithSeed(seed uint64) Option {
	return WithSourceFactory(func() NormSource { return NewSeededSource(seed) })
}

// WithLookbackDays sets how much recent history anchors a projection.
func WithLookbackDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.lookbackDays = n
		}
	}
}

// WithDefaultDays sets the day count used when a query does not carry one.
func WithDefaultDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultDays = n
		}
	}
}

// WithMaxForecastDays caps how many days Forecast and Analyze will project.
func WithMaxForecastDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxForecastDays = n
		}
	}
}

// WithMaxHistoryDays caps the day count of a historical window.
func WithMaxHistoryDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHistoryDays = n
		}
	}
}

// NewService creates a new Service. Call Reload before serving requests.
func NewService(loader Loader, store SeriesStore, opts ...Option) *Service {
	s := &Service{
		loader:          loader,
		store:           store,
		now:             time.Now,
		newSource:       func() NormSource { return NewSeededSource(rand.Uint64()) },
		lookbackDays:    defaultLookbackDays,
		defaultDays:     defaultQueryDays,
		maxForecastDays: defaultMaxForecastDays,
		maxHistoryDays:  defaultMaxHistoryDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.defaultDays = min(s.defaultDays, s.maxForecastDays)
	return s
}

// Reload rebuilds the catalog and the store contents from the loader. Requests
// see either the previous catalog with the previous rows or the new pair.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ds, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	stations := ds.Stations
	if len(stations) == 0 {
		slog.Warn("reload: dataset has no stations, using built-in list")
		stations = catalog.DefaultStations()
	}
	cat, err := catalog.NewCatalog(stations)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	resolver := catalog.NewResolver(cat)

	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if err := s.store.Replace(ctx, ds.Observations); err != nil {
		return fmt.Errorf("replace series: %w", err)
	}
	s.resolver.Store(resolver)
	slog.Info("reload: catalog ready", "stations", cat.Len(), "observations", len(ds.Observations))
	return nil
}

// Resolve maps free text to a station. false means the location is unknown.
func (s *Service) Resolve(text string) (catalog.Station, bool) {
	r := s.resolver.Load()
	if r == nil {
		return catalog.Station{}, false
	}
	return r.Resolve(text)
}

// Locations lists the catalog in order.
func (s *Service) Locations() []catalog.Station {
	r := s.resolver.Load()
	if r == nil {
		return nil
	}
	return r.Catalog().Stations()
}

// snapshot resolves location and runs read against the store with no reload
// in between.
func (s *Service) snapshot(location string, read func(st catalog.Station) error) (catalog.Station, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()

	st, err := s.resolve(location)
	if err != nil {
		return catalog.Station{}, err
	}
	return st, read(st)
}

func (s *Service) resolve(text string) (catalog.Station, error) {
	if strings.TrimSpace(text) == "" {
		return catalog.Station{}, ErrEmptyLocation
	}
	r := s.resolver.Load()
	if r == nil {
		return catalog.Station{}, ErrNotReady
	}
	st, ok := r.Resolve(text)
	if !ok {
		return catalog.Station{}, fmt.Errorf("%w: %q", ErrUnknownLocation, text)
	}
	return st, nil
}

// Fetch reads the stored rows of a station for a window whose missing bounds
// are filled by ResolveWindow.
func (s *Service) Fetch(ctx context.Context, stationID string, start, end *time.Time, days int) ([]Observation, error) {
	from, to := ResolveWindow(start, end, days, s.now())

	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.store.Range(ctx, stationID, from, to)
}

// HistoricalRequest selects observed rows for a location.
type HistoricalRequest struct {
	Location string
	Start    *time.Time
	End      *time.Time
	Days     int
}

// ForecastRequest asks for days projected points for a location.
type ForecastRequest struct {
	Location string
	Days     int
}

// Series is a resolved location with its rows and digest.
type Series struct {
	Location    catalog.Station `json:"location"`
	Data        []Observation   `json:"data"`
	Source      string          `json:"source"`
	Summary     string          `json:"summary"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

func (s *Service) newSeries(st catalog.Station, data []Observation, source string) Series {
	if data == nil {
		data = []Observation{}
	}
	if len(data) == 0 {
		source = SourceNone
	}
	now := s.now().UTC()
	return Series{
		Location:    st,
		Data:        data,
		Source:      source,
		Summary:     Summarize(st.Name, data, now),
		GeneratedAt: now,
	}
}

// Historical returns observed rows for the request window, falling back to the
// external providers when the store has none. An empty series is not an error.
func (s *Service) Historical(ctx context.Context, req HistoricalRequest) (Series, error) {
	if req.Days > s.maxHistoryDays {
		return Series{}, fmt.Errorf("%w: historical windows are limited to %d days", ErrTooManyDays, s.maxHistoryDays)
	}

	from, to := ResolveWindow(req.Start, req.End, req.Days, s.now())
	var rows []Observation
	st, err := s.snapshot(req.Location, func(st catalog.Station) (err error) {
		rows, err = s.store.Range(ctx, st.ID, from, to)
		return err
	})
	if err != nil {
		return Series{}, err
	}
	if len(rows) > 0 {
		return s.newSeries(st, rows, SourceDataset), nil
	}

	rows, source := s.fromProviders(ctx, st, from, to)
	return s.newSeries(st, rows, source), nil
}

// Forecast projects req.Days points starting tomorrow from the recent history
// of the location.
func (s *Service) Forecast(ctx context.Context, req ForecastRequest) (Series, error) {
	if req.Days < 1 {
		return Series{}, ErrInvalidDays
	}
	if req.Days > s.maxForecastDays {
		return Series{}, fmt.Errorf("%w: forecasts are limited to %d days", ErrTooManyDays, s.maxForecastDays)
	}

	var stored storedAnchor
	st, err := s.snapshot(req.Location, func(st catalog.Station) (err error) {
		stored, err = s.readAnchor(ctx, st)
		return err
	})
	if err != nil {
		return Series{}, err
	}

	today := Day(s.now())
	points, err := s.project(ctx, st, stored, req.Days, today)
	if err != nil {
		return Series{}, err
	}
	return s.newSeries(st, points, SourceSynthesized), nil
}

// Current returns today's conditions: the stored row, else the current
// provider, else a one-day projection.
func (s *Service) Current(ctx context.Context, location string) (Series, error) {
	now := s.now()
	today := Day(now)

	var (
		rows   []Observation
		stored storedAnchor
	)
	st, err := s.snapshot(location, func(st catalog.Station) (err error) {
		rows, err = s.store.Range(ctx, st.ID, today, now)
		if err != nil || len(rows) > 0 {
			return err
		}
		stored, err = s.readAnchor(ctx, st)
		return err
	})
	if err != nil {
		return Series{}, err
	}
	if len(rows) > 0 {
		return s.newSeries(st, rows[len(rows)-1:], SourceDataset), nil
	}

	if s.current != nil {
		obs, err := s.current.FetchCurrent(ctx, st)
		if err == nil {
			return s.newSeries(st, []Observation{obs}, s.current.Name()), nil
		}
		slog.Warn("current provider failed", "provider", s.current.Name(), "station", st.ID, "error", err)
	}

	points, err := s.project(ctx, st, stored, 1, today.AddDate(0, 0, -1))
	if errors.Is(err, ErrInsufficientHistory) {
		return s.newSeries(st, nil, SourceNone), nil
	}
	if err != nil {
		return Series{}, err
	}
	return s.newSeries(st, points, SourceSynthesized), nil
}

// project synthesizes days points dated after the given day. When the anchor
// history ends earlier, the gap is synthesized as well and dropped, as long as
// it is within the look-back; older anchors are projected from their own end.
func (s *Service) project(ctx context.Context, st catalog.Station, stored storedAnchor, days int, after time.Time) ([]Observation, error) {
	anchor := s.anchor(ctx, st, stored)
	if len(anchor) == 0 {
		return nil, ErrInsufficientHistory
	}

	last := Day(anchor[len(anchor)-1].Date)
	gap := int(Day(after).Sub(last).Hours() / 24)
	if gap < 0 || gap > s.lookbackDays {
		gap = 0
	}

	points, err := NewSynthesizer(s.newSource()).Synthesize(anchor, gap+days)
	if err != nil {
		return nil, err
	}
	return points[gap:], nil
}

// storedAnchor is the store's share of a projection anchor: the recent
// look-back window and, when that is empty, the newest rows.
type storedAnchor struct {
	from, to time.Time
	recent   []Observation
	latest   []Observation
}

func (s *Service) readAnchor(ctx context.Context, st catalog.Station) (storedAnchor, error) {
	now := s.now()
	a := storedAnchor{from: Day(now).AddDate(0, 0, -s.lookbackDays), to: now}

	var err error
	a.recent, err = s.store.Range(ctx, st.ID, a.from, a.to)
	if err != nil || len(a.recent) > 0 {
		return a, err
	}
	a.latest, err = s.store.Latest(ctx, st.ID, s.lookbackDays)
	return a, err
}

// anchor picks the history a projection starts from: the recent store
// window, else the providers, else the newest stored rows.
func (s *Service) anchor(ctx context.Context, st catalog.Station, stored storedAnchor) []Observation {
	if len(stored.recent) > 0 {
		return stored.recent
	}
	if rows, _ := s.fromProviders(ctx, st, stored.from, stored.to); len(rows) > 0 {
		return rows
	}
	return stored.latest
}

// fromProviders asks each history provider in turn; the first non-empty answer
// wins. Provider failures are logged and skipped.
func (s *Service) fromProviders(ctx context.Context, st catalog.Station, from, to time.Time) ([]Observation, string) {
	for _, p := range s.providers {
		rows, err := p.FetchHistory(ctx, st, Day(from), Day(to))
		if err != nil {
			slog.Warn("history provider failed", "provider", p.Name(), "station", st.ID, "error", err)
			continue
		}

		var kept []Observation
		for _, o := range rows {
			if InWindow(o.Date, from, to) {
				kept = append(kept, o)
			}
		}
		if len(kept) == 0 {
			continue
		}
		sort.Slice(kept, func(i, j int) bool { return kept[i].Date.Before(kept[j].Date) })
		return kept, p.Name()
	}
	return nil, SourceNone
}

// AnalyzeRequest is a natural-language question with optional overrides for
// the parser's hints.
type AnalyzeRequest struct {
	Query  string
	City   string
	Format string
	Days   int
}

// Analysis is the answer to an AnalyzeRequest.
type Analysis struct {
	ID          string          `json:"id"`
	Query       string          `json:"query"`
	Location    catalog.Station `json:"location"`
	Intent      Intent          `json:"intent"`
	Direction   Direction       `json:"direction"`
	Format      Format          `json:"format"`
	Days        int             `json:"days"`
	Data        []Observation   `json:"data"`
	Source      string          `json:"source"`
	Summary     string          `json:"summary"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Analyze parses a question, routes it by intent and summarizes the result.
// Missing data degrades to an empty series; unknown or empty locations and
// explicit day counts out of range are errors.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error) {
	var q Query
	if s.parser != nil && strings.TrimSpace(req.Query) != "" {
		parsed, err := s.parser.Parse(ctx, req.Query)
		if err != nil {
			slog.Warn("query parser failed", "error", err)
		} else {
			q = parsed
		}
	}

	if req.City != "" {
		q.Location = req.City
	}
	if req.Format != "" {
		q.Format = ParseFormat(req.Format)
	}
	if req.Days < 0 {
		return Analysis{}, ErrInvalidDays
	}
	if req.Days != 0 {
		q.Days = req.Days
	}
	if q.Days <= 0 {
		q.Days = s.defaultDays
	}
	if q.Format == "" {
		q.Format = FormatText
	}
	q.Intent, q.Direction = normalizeIntent(q.Intent, q.Direction)

	if strings.TrimSpace(q.Location) == "" {
		return Analysis{}, ErrEmptyLocation
	}

	// Parsed day counts are hints and get clamped; an explicit count above
	// the limit is rejected.
	limit := s.maxForecastDays
	if q.Intent == IntentHistorical {
		limit = s.maxHistoryDays
	}
	if q.Days > limit {
		if req.Days != 0 {
			return Analysis{}, fmt.Errorf("%w: at most %d days", ErrTooManyDays, limit)
		}
		slog.Debug("clamping parsed day count", "days", q.Days, "limit", limit)
		q.Days = limit
	}

	var (
		series Series
		err    error
	)
	switch q.Intent {
	case IntentCurrent:
		series, err = s.Current(ctx, q.Location)
	case IntentHistorical:
		series, err = s.Historical(ctx, HistoricalRequest{
			Location: q.Location,
			Start:    q.Start,
			End:      q.End,
			Days:     q.Days,
		})
	default:
		series, err = s.Forecast(ctx, ForecastRequest{Location: q.Location, Days: q.Days})
		if errors.Is(err, ErrInsufficientHistory) {
			st, rerr := s.resolve(q.Location)
			if rerr != nil {
				return Analysis{}, rerr
			}
			series, err = s.newSeries(st, nil, SourceNone), nil
		}
	}
	if err != nil {
		return Analysis{}, err
	}

	return Analysis{
		ID:          uuid.NewString(),
		Query:       req.Query,
		Location:    series.Location,
		Intent:      q.Intent,
		Direction:   q.Direction,
		Format:      q.Format,
		Days:        q.Days,
		Data:        series.Data,
		Source:      series.Source,
		Summary:     series.Summary,
		GeneratedAt: series.GeneratedAt,
	}, nil
}

// normalizeIntent fills a missing intent from the direction and vice versa.
// With neither, the question is treated as a forecast.
func normalizeIntent(in Intent, dir Direction) (Intent, Direction) {
	switch in {
	case IntentCurrent, IntentHistorical, IntentForecast:
	default:
		switch dir {
		case DirectionPast:
			in = IntentHistorical
		case DirectionCurrent:
			in = IntentCurrent
		default:
			in = IntentForecast
		}
	}

	switch dir {
	case DirectionPast, DirectionFuture, DirectionCurrent:
	default:
		switch in {
		case IntentHistorical:
			dir = DirectionPast
		case IntentCurrent:
			dir = DirectionCurrent
		default:
			dir = DirectionFuture
		}
	}
	return in, dir
}

// Templates index their arguments explicitly: %[1]s is the city and %[2]d a
// day count, so an unused count is not reported as an extra argument.
var sampleTemplates = [][]string{
	{
		"What's the current weather in %[1]s?",
		"Show me today's weather in %[1]s",
		"What's the weather like right now in %[1]s?",
	},
	{
		"Show me the weather in %[1]s for the past %[2]d days",
		"Show me historical weather data for %[1]s over the past %[2]d days",
		"What were the temperature trends in %[1]s last month?",
	},
	{
		"What's the weather forecast for %[1]s for the next %[2]d days?",
		"Show me the %[2]d-day forecast for %[1]s",
		"What's the temperature going to be in %[1]s this week?",
	},
	{
		"Show me the weather in %[1]s for the next %[2]d days in a table format",
		"Show me the temperature trends in %[1]s as a chart",
		"Give me a weather summary for %[1]s",
	},
}

// SampleQueries builds up to n example questions from catalog city names.
func (s *Service) SampleQueries(n int) []string {
	stations := s.Locations()
	if len(stations) > 6 {
		stations = stations[:6]
	}

	dayChoices := []int{3, 5, 7}
	var out []string
	for _, st := range stations {
		for _, group := range sampleTemplates {
			tpl := group[rand.IntN(len(group))]
			out = append(out, fmt.Sprintf(tpl, st.Name, dayChoices[rand.IntN(len(dayChoices))]))
		}
	}

	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
