package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/reason3/internal/application"
	"github.com/bryanwahyu/reason3/internal/domain/ai"
	domain "github.com/bryanwahyu/reason3/internal/domain/analysis"
)

// sideEffectTimeout bounds archive and audit writes after the result is decided.
const sideEffectTimeout = 5 * time.Second

// Service builds the model request for one flavor, validates the reply and
// substitutes the flavor's fallback on any failure. A nil model means demo mode.
// Service holds no mutable state and is safe for concurrent use.
type Service struct {
	model   ai.Client
	profile domain.Profile
	repo    domain.Repository
	images  domain.ImageStore
	fetcher domain.ContentFetcher
	clock   application.Clock
	logger  *zap.Logger
}

type Option func(*Service)

func WithRepository(r domain.Repository) Option { return func(s *Service) { s.repo = r } }
func WithImageStore(st domain.ImageStore) Option { return func(s *Service) { s.images = st } }
func WithFetcher(f domain.ContentFetcher) Option { return func(s *Service) { s.fetcher = f } }
func WithClock(c application.Clock) Option       { return func(s *Service) { s.clock = c } }
func WithLogger(l *zap.Logger) Option            { return func(s *Service) { s.logger = l } }

func NewService(model ai.Client, profile domain.Profile, opts ...Option) *Service {
	s := &Service{
		model:   model,
		profile: profile,
		clock:   application.SystemClock{},
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Flavor() domain.Flavor { return s.profile.Flavor() }

// DemoMode reports whether no model is configured.
func (s *Service) DemoMode() bool { return s.model == nil }

// Analyze never fails: every error path yields the profile's fallback report
// and a non-ok Status.
func (s *Service) Analyze(ctx context.Context, req domain.Request) domain.Result {
	start := s.clock.Now()
	res := domain.Result{
		ID:        uuid.NewString(),
		Flavor:    s.profile.Flavor(),
		CreatedAt: start,
	}
	log := s.logger.With(
		zap.String("analysis_id", res.ID),
		zap.String("flavor", string(res.Flavor)),
		zap.String("prompt", s.profile.Version()),
	)

	var raw string
	if s.model == nil {
		log.Warn("no API credential configured, returning demo payload")
		req = req.Normalize()
		res.Status = domain.StatusDemo
		res.Report = s.profile.Fallback(req)
	} else {
		req = s.resolveContent(ctx, log, req).Normalize()
		res.Model = s.model.Name()
		raw, res.Status, res.Report = s.call(ctx, log, req)
	}
	res.Duration = s.clock.Now().Sub(start)

	log.Info("analysis finished",
		zap.String("status", string(res.Status)),
		zap.String("media_type", string(req.MediaType)),
		zap.Int("findings", res.Report.FindingCount()),
		zap.Int("aggregate_score", res.Report.AggregateScore()),
		zap.Duration("duration", res.Duration),
	)
	s.record(ctx, log, req, res, raw)
	return res
}

// call makes exactly one model request. No retry, no backoff.
func (s *Service) call(ctx context.Context, log *zap.Logger, req domain.Request) (string, domain.Status, domain.Report) {
	in := ai.Request{Prompt: s.profile.Instruction(req)}
	if req.MediaType == domain.MediaImage {
		in.ImageURL = req.ImageData
	}

	raw, err := s.model.Complete(ctx, in)
	if err != nil {
		log.Error("model call failed",
			zap.Error(err),
			zap.Bool("quota_exceeded", errors.Is(err, ai.ErrQuotaExceeded)),
			zap.Bool("unauthorized", errors.Is(err, ai.ErrUnauthorized)),
		)
		return "", domain.StatusTransportError, s.profile.Fallback(req)
	}
	log.Debug("raw model response", zap.String("raw", raw))

	report, err := s.profile.Decode(raw, req)
	if err != nil {
		log.Error("model reply rejected, using fallback", zap.Error(err), zap.String("raw", raw))
		return raw, domain.StatusShapeError, s.profile.Fallback(req)
	}
	return raw, domain.StatusOK, report
}

// resolveContent fetches the URL when the caller sent a URL and nothing else.
// Fetch failures only leave the content empty; the URL is still named in the prompt.
func (s *Service) resolveContent(ctx context.Context, log *zap.Logger, req domain.Request) domain.Request {
	if s.fetcher == nil || req.URL == "" || req.Content != "" || req.ImageData != "" {
		return req
	}
	var (
		content string
		err     error
	)
	if s.profile.Flavor() == domain.FlavorAccessibility {
		content, err = s.fetcher.FetchPage(ctx, req.URL)
	} else {
		content, err = s.fetcher.FetchArticle(ctx, req.URL)
	}
	if err != nil {
		log.Warn("fetch failed", zap.String("url", req.URL), zap.Error(err))
		return req
	}
	req.Content = content
	return req
}

// record archives the screenshot and saves the audit entry. Failures are logged only.
func (s *Service) record(ctx context.Context, log *zap.Logger, req domain.Request, res domain.Result, raw string) {
	if s.repo == nil && s.images == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	var imageURL string
	if s.images != nil && req.MediaType == domain.MediaImage {
		u, err := s.archiveImage(ctx, res, req.ImageData)
		if err != nil {
			log.Warn("screenshot archive failed", zap.Error(err))
		}
		imageURL = u
	}
	if s.repo == nil {
		return
	}

	result, err := json.Marshal(res.Report)
	if err != nil {
		log.Error("encode report for audit", zap.Error(err))
		return
	}
	rec := &domain.Record{
		ID:             res.ID,
		Flavor:         res.Flavor,
		Status:         res.Status,
		MediaType:      req.MediaType,
		TargetURL:      req.URL,
		ContentExcerpt: domain.Excerpt(req.Content),
		ImageURL:       imageURL,
		Model:          res.Model,
		RawResponse:    raw,
		ResultJSON:     string(result),
		DurationMS:     res.Duration.Milliseconds(),
		CreatedAt:      res.CreatedAt,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		log.Warn("audit save failed", zap.Error(err))
	}
}

func (s *Service) archiveImage(ctx context.Context, res domain.Result, dataURL string) (string, error) {
	img, err := ai.ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s/%s.%s", res.Flavor, res.CreatedAt.UTC().Format("2006/01/02"), res.ID, img.Extension())
	return s.images.Put(ctx, key, img.Data, img.MIMEType)
}

// History returns one page of audit records.
func (s *Service) History(ctx context.Context, flavor domain.Flavor, page, pageSize int) (*domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	out := &domain.PaginatedResult{Data: []*domain.Record{}, Page: page, PageSize: pageSize}
	if s.repo == nil {
		return out, nil
	}
	total, err := s.repo.Count(ctx, flavor)
	if err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}
	list, err := s.repo.Paginate(ctx, flavor, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("paginate analyses: %w", err)
	}
	if list != nil {
		out.Data = list
	}
	out.Total = total
	out.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	return out, nil
}

// Get returns one audit record.
func (s *Service) Get(ctx context.Context, id string) (*domain.Record, error) {
	if s.repo == nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}
