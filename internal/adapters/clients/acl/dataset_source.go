package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/verse-service/internal/adapters/clients"
	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/platform/logging"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

// ServiceName labels the content host in logs, spans and errors.
const ServiceName = "content-host"

// RemoteSourceConfig configures a RemoteSource.
type RemoteSourceConfig struct {
	// Client is bound to the content host's base URL.
	Client *clients.Client

	// Path is the document path on the host, including any query.
	Path string

	Codec  ports.DatasetCodec
	Logger *slog.Logger
}

// RemoteSource fetches the canonical dataset over HTTP.
type RemoteSource struct {
	client *clients.Client
	path   string
	codec  ports.DatasetCodec
	logger *slog.Logger
}

var _ ports.DatasetSource = (*RemoteSource)(nil)

// NewRemoteSource creates a remote source. It panics without a client or codec.
func NewRemoteSource(cfg RemoteSourceConfig) *RemoteSource {
	if cfg.Client == nil {
		panic("acl: RemoteSourceConfig.Client is required")
	}

	if cfg.Codec == nil {
		panic("acl: RemoteSourceConfig.Codec is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteSource{
		client: cfg.Client,
		path:   cfg.Path,
		codec:  cfg.Codec,
		logger: logger,
	}
}

// FetchDataset implements ports.DatasetSource. Failures are domain errors:
// a missing document is ErrNotFound, anything transport-related ErrUnavailable.
func (s *RemoteSource) FetchDataset(ctx context.Context) (*domain.Dataset, error) {
	s.logger.Log(ctx, logging.LevelTrace, "fetching dataset", slog.String("url", s.Describe()))

	resp, err := s.client.Get(ctx, s.path)
	if err != nil {
		return nil, MapHTTPError(nil, err, ServiceName, s.path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		mapped := MapHTTPError(resp, nil, ServiceName, s.path)
		s.logger.WarnContext(ctx, "dataset fetch rejected",
			slog.Int("status", resp.StatusCode),
			slog.Any("error", mapped),
		)

		return nil, mapped
	}

	ds, err := s.codec.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.Describe(), err)
	}

	s.logger.DebugContext(ctx, "dataset fetched",
		slog.Int("poems", len(ds.Poems)),
		slog.Int("quotes", len(ds.Quotes)),
	)

	return ds, nil
}

// Describe implements ports.DatasetSource.
func (s *RemoteSource) Describe() string {
	return s.client.BaseURL() + s.path
}

// SplitURL splits an absolute http(s) URL into the client base URL and the
// request path.
func SplitURL(raw string) (base, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing content url: %w", err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", domain.NewValidationErrorWithValue("content.source.url", "must be an absolute http(s) URL", raw)
	}

	return u.Scheme + "://" + u.Host, u.RequestURI(), nil
}
