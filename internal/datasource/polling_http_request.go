package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/gregjones/httpcache"
	"golang.org/x/exp/maps"

	"github.com/ffsync/go-server-sdk/ffmodel"
	"github.com/ffsync/go-server-sdk/subsystems"
)

// Service endpoints, relative to the base URI.
const (
	FeatureConfigsPathFormat = "/client/env/%s/feature-configs"
	TargetSegmentsPathFormat = "/client/env/%s/target-segments"
)

// HTTPRemoteSource is the RemoteSource implementation that reads flags and segments from the
// configuration service over HTTP.
//
// Responses are kept in an HTTP cache so that repeated polls can be answered with 304 Not Modified.
// A cached response is parsed and returned like any other; the engine merges it again, which is
// harmless because merging is idempotent.
type HTTPRemoteSource struct {
	httpClient *http.Client
	cache      *boundedHTTPCache
	baseURI    string
	headers    http.Header
	loggers    ldlog.Loggers
}

var _ subsystems.RemoteSource = (*HTTPRemoteSource)(nil)

// NewHTTPRemoteSource creates an HTTPRemoteSource. The client's own transport is wrapped with a
// caching transport; headers are added to every request.
func NewHTTPRemoteSource(
	httpClient *http.Client,
	baseURI string,
	headers http.Header,
	cacheSize int,
	loggers ldlog.Loggers,
) *HTTPRemoteSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cache := newBoundedHTTPCache(cacheSize)
	modifiedClient := *httpClient
	modifiedClient.Transport = &httpcache.Transport{
		Cache:               cache,
		MarkCachedResponses: true,
		Transport:           httpClient.Transport,
	}

	return &HTTPRemoteSource{
		httpClient: &modifiedClient,
		cache:      cache,
		baseURI:    strings.TrimRight(baseURI, "/"),
		headers:    headers,
		loggers:    loggers,
	}
}

// BaseURI returns the configured base URI, for testing.
func (r *HTTPRemoteSource) BaseURI() string {
	return r.baseURI
}

// FetchFlags requests all flag configurations for the environment and cluster.
func (r *HTTPRemoteSource) FetchFlags(
	ctx context.Context,
	environment, cluster string,
) ([]ffmodel.FeatureConfig, error) {
	body, err := r.makeRequest(ctx, FeatureConfigsPathFormat, environment, cluster)
	if err != nil {
		return nil, toFetchError("flags", err)
	}
	reader := jreader.NewReader(body)
	flags := ffmodel.ReadFeatureConfigs(&reader)
	if err := reader.Error(); err != nil {
		return nil, toFetchError("flags", malformedJSONError{err})
	}
	return flags, nil
}

// FetchSegments requests all target segments for the environment and cluster.
func (r *HTTPRemoteSource) FetchSegments(
	ctx context.Context,
	environment, cluster string,
) ([]ffmodel.Segment, error) {
	body, err := r.makeRequest(ctx, TargetSegmentsPathFormat, environment, cluster)
	if err != nil {
		return nil, toFetchError("segments", err)
	}
	reader := jreader.NewReader(body)
	segments := ffmodel.ReadSegments(&reader)
	if err := reader.Error(); err != nil {
		return nil, toFetchError("segments", malformedJSONError{err})
	}
	return segments, nil
}

// Close releases the response cache.
func (r *HTTPRemoteSource) Close() error {
	r.cache.close()
	return nil
}

func (r *HTTPRemoteSource) makeRequest(ctx context.Context, pathFormat, environment, cluster string) ([]byte, error) {
	resource := fmt.Sprintf(pathFormat, url.PathEscape(environment))
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURI+resource, nil)
	if reqErr != nil {
		reqErr = fmt.Errorf(
			"unable to create a poll request; this is not a network problem, most likely a bad base URI: %w",
			reqErr,
		)
		return nil, reqErr
	}
	if cluster != "" {
		req.URL.RawQuery = url.Values{
			"cluster": {cluster},
		}.Encode()
	}
	url := req.URL.String()
	if r.headers != nil {
		req.Header = maps.Clone(r.headers)
	}

	if r.loggers.IsDebugEnabled() {
		r.loggers.Debugf("Polling %s", url)
	}

	res, resErr := r.httpClient.Do(req)

	if resErr != nil {
		return nil, resErr
	}

	defer func() {
		_, _ = io.ReadAll(res.Body)
		_ = res.Body.Close()
	}()

	if err := checkForHTTPError(res.StatusCode, url); err != nil {
		return nil, err
	}

	if res.Header.Get(httpcache.XFromCache) != "" && r.loggers.IsDebugEnabled() {
		r.loggers.Debugf("Response for %s was not modified", url)
	}

	body, ioErr := io.ReadAll(res.Body)

	if ioErr != nil {
		return nil, ioErr // COVERAGE: there is no way to simulate this condition in unit tests
	}
	return body, nil
}
