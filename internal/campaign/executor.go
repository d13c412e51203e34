package campaign

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/fluxfuzzer/fluxfuzzer/internal/cache"
	"github.com/fluxfuzzer/fluxfuzzer/internal/coverage"
	"github.com/fluxfuzzer/fluxfuzzer/internal/requester"
)

// HTTPExecutor executes mutated payloads against a single URL+param target
// over FluxFuzzer's fasthttp-backed client, deriving a coverage signal from
// the response's status code, body length bucket, and body structural
// hash — there being no compiled-in instrumentation to read edge coverage
// from in a black-box web target. This is the executor spec.md leaves
// external to the core; it lives here rather than in internal/coverage or
// internal/scheduler precisely because those packages must stay
// target-agnostic.
type HTTPExecutor struct {
	client    *requester.Client
	targetURL string
	method    string
	param     string
	mapLen    int
	respCache *cache.ResponseCache
}

// NewHTTPExecutor creates an executor that substitutes each mutated
// payload into param's value in targetURL's query string. Responses are
// deduplicated by (method, url, body) through a bounded LRU cache, so a
// mutator that regenerates an input it already tried doesn't cost another
// round trip to the target.
func NewHTTPExecutor(client *requester.Client, targetURL, method, param string, mapLen int) *HTTPExecutor {
	if mapLen <= 0 {
		mapLen = 4096
	}
	return &HTTPExecutor{
		client:    client,
		targetURL: targetURL,
		method:    method,
		param:     param,
		mapLen:    mapLen,
		respCache: cache.NewResponseCache(nil),
	}
}

// Execute substitutes input into the target URL and fires the request,
// building a single named "http" observer from the response. Identical
// (method, url, body) tuples are served from the response cache instead
// of re-executing, since a duplicate mutation is, by definition, not
// going to surface new coverage.
func (e *HTTPExecutor) Execute(ctx context.Context, input []byte) (*coverage.ExecutionResult, *coverage.Observers[byte], error) {
	reqURL, err := e.buildURL(input)
	if err != nil {
		return nil, nil, err
	}

	var resp *requester.Response
	if cached, hit := e.respCache.Get(e.method, reqURL, nil); hit {
		status, body := decodeCachedResponse(cached)
		resp = &requester.Response{StatusCode: status, Body: body}
	} else {
		resp = e.client.Do(&requester.Request{Method: e.method, URL: reqURL})
		if resp.Error == nil {
			e.respCache.Set(e.method, reqURL, nil, encodeCachedResponse(resp.StatusCode, resp.Body))
		}
	}

	result := &coverage.ExecutionResult{
		ExecTimeUs: resp.ResponseTime.Microseconds(),
	}
	if resp.Error != nil {
		result.ExitCode = -1
	} else {
		result.ExitCode = resp.StatusCode
		result.Output = resp.Body
	}

	observers := coverage.NewObservers[byte]()
	observers.Add(e.buildHTTPObserver(resp))
	return result, observers, nil
}

// encodeCachedResponse packs a status code and body into the byte-slice
// shape cache.ResponseCache stores, a 4-byte big-endian status code
// prefix followed by the raw body.
func encodeCachedResponse(status int, body []byte) []byte {
	out := make([]byte, 4+len(body))
	out[0] = byte(status >> 24)
	out[1] = byte(status >> 16)
	out[2] = byte(status >> 8)
	out[3] = byte(status)
	copy(out[4:], body)
	return out
}

func decodeCachedResponse(data []byte) (int, []byte) {
	if len(data) < 4 {
		return 0, nil
	}
	status := int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	return status, data[4:]
}

func (e *HTTPExecutor) buildURL(input []byte) (string, error) {
	u, err := url.Parse(e.targetURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(e.param, string(input))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// buildHTTPObserver folds the response into an AFL-style hit-count bitmap,
// using the same CoverageMap/EdgeHasher primitives FluxFuzzer's in-process
// tracker uses for real edge coverage. There's no compiled-in
// instrumentation to read genuine edges from against a black-box web
// target, so status code and length bucket are recorded as fixed
// synthetic "edges", and the response body is walked byte-by-byte,
// classified into a handful of structural block kinds, and hashed through
// EdgeHasher the way a real from-block/to-block transition would be.
func (e *HTTPExecutor) buildHTTPObserver(resp *requester.Response) *coverage.StdMapObserver[byte] {
	cm := coverage.NewCoverageMap(e.mapLen)

	cm.RecordEdge(statusEdgeBlock, uint32(resp.StatusCode))
	cm.RecordEdge(lengthEdgeBlock, uint32(lengthBucket(len(resp.Body))))

	hasher := coverage.NewEdgeHasher()
	for _, b := range resp.Body[:min(len(resp.Body), 256)] {
		block := structuralBlock(b)
		edge := hasher.HashEdge(uint32(block))
		cm.RecordEdge(uint32(edge), uint32(block))
	}

	return coverage.NewStdMapObserverFrom[byte]("http", cm.Bitmap())
}

const (
	statusEdgeBlock uint32 = 1 << 20
	lengthEdgeBlock uint32 = 1 << 21
)

// lengthBucket classifies a body length into one of a small number of
// AFL-style logarithmic buckets.
func lengthBucket(n int) int {
	bucket := 0
	for n > 0 {
		bucket++
		n >>= 2
	}
	return bucket
}

// structuralBlock classifies a single response byte into a coarse
// structural category, standing in for a basic-block ID in the absence of
// real compiled-in instrumentation.
func structuralBlock(b byte) byte {
	switch b {
	case '{', '}':
		return 1
	case '[', ']':
		return 2
	case '<', '>':
		return 3
	case '"':
		return 4
	default:
		return 0
	}
}

// ParamFromQuery extracts the first query parameter name from a URL, used
// by the CLI to default --param when the target URL already names a
// FUZZ-able parameter.
func ParamFromQuery(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		key, _, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		if name, err := url.QueryUnescape(key); err == nil {
			return name, true
		}
	}
	return "", false
}

// StatusBucketLabel renders a status code as its decimal label; nothing in
// the repository calls it.
func StatusBucketLabel(code int) string {
	return strconv.Itoa(code)
}
