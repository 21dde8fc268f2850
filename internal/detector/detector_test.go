package detector_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/raysh454/phishlens/internal/detector"
	"github.com/raysh454/phishlens/internal/features"
	"github.com/raysh454/phishlens/internal/models"
	"github.com/raysh454/phishlens/internal/testutil"
)

func newDetector(t *testing.T, latency time.Duration, scorer detector.Scorer) (*detector.Detector, *testutil.DummyLogger) {
	t.Helper()
	logger := &testutil.DummyLogger{}
	d, err := detector.New(detector.Config{Latency: latency}, scorer, logger)
	if err != nil {
		t.Fatalf("detector.New: %v", err)
	}
	return d, logger
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	if _, err := detector.New(detector.DefaultConfig(), nil, nil); err == nil {
		t.Error("expected error for nil logger")
	}
	if _, err := detector.New(detector.Config{Latency: -time.Second}, nil, &testutil.DummyLogger{}); err == nil {
		t.Error("expected error for negative latency")
	}
	if got := detector.DefaultConfig().Latency; got != time.Second {
		t.Errorf("default latency = %s, want 1s", got)
	}
}

func TestDetect_MatchesPipeline(t *testing.T) {
	t.Parallel()
	d, logger := newDetector(t, 0, nil)

	const u = "http://secure-login.paypal.com.verify123.xyz/account/update?id=1&session=abc&token=xyz"
	for _, a := range models.Algorithms() {
		res, err := d.Detect(context.Background(), u, string(a))
		if err != nil {
			t.Fatalf("Detect(%s): %v", a, err)
		}

		raw, _ := features.Extract(u)
		want, _ := models.Default.Score(a, features.Normalize(raw))
		if res.IsPhishing != want.IsPhishing || res.Confidence != want.Confidence {
			t.Errorf("%s: got (%v, %v), want %+v", a, res.IsPhishing, res.Confidence, want)
		}
		if res.Algorithm != a {
			t.Errorf("%s: Algorithm=%q", a, res.Algorithm)
		}
		if res.Features != raw {
			t.Errorf("%s: features = %+v, want %+v", a, res.Features, raw)
		}
	}
	if !logger.Logged("detection completed") {
		t.Error("expected completion to be logged")
	}
}

func TestDetect_DecisionTreeExample(t *testing.T) {
	t.Parallel()
	d, _ := newDetector(t, 0, nil)

	res, err := d.Detect(context.Background(), "http://secure-login.paypal.com.verify123.xyz/account/update?id=1&session=abc&token=xyz", "decision-tree")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !res.IsPhishing || res.Confidence != 0.85 {
		t.Errorf("got (%v, %v), want (true, 0.85)", res.IsPhishing, res.Confidence)
	}
}

func TestDetect_SafeExample(t *testing.T) {
	t.Parallel()
	d, _ := newDetector(t, 0, nil)

	res, err := d.Detect(context.Background(), "https://example.com/a?x=1&y=2", "random-forest")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.IsPhishing {
		t.Errorf("expected safe verdict, got %+v", res)
	}
	if res.Vector[features.IdxNoHTTPS] != 0 {
		t.Errorf("https URL should have no_https = 0, got %v", res.Vector[features.IdxNoHTTPS])
	}
}

func TestDetect_UnknownAlgorithmFallsBack(t *testing.T) {
	t.Parallel()
	d, _ := newDetector(t, 0, nil)
	const u = "http://login-verify.example-bank.co/secure?id=7"

	got, err := d.Detect(context.Background(), u, "not-a-real-algorithm")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	want, err := d.Detect(context.Background(), u, "random-forest")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fallback result %+v differs from random-forest %+v", got, want)
	}
	if got.Algorithm != models.RandomForest {
		t.Errorf("Algorithm = %q, want random-forest", got.Algorithm)
	}
	if _, ok := models.ParseAlgorithm(string(got.Algorithm)); !ok {
		t.Errorf("Algorithm %q is not a known algorithm", got.Algorithm)
	}
}

func TestDetect_Deterministic(t *testing.T) {
	t.Parallel()
	d, _ := newDetector(t, 0, nil)
	const u = "https://a-b.c.example.org/p?q=1"

	first, err := d.Detect(context.Background(), u, "sgd")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := d.Detect(context.Background(), u, "sgd")
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if *again != *first {
			t.Fatalf("run %d: %+v != %+v", i, again, first)
		}
	}
}

func TestDetect_InvalidURL(t *testing.T) {
	t.Parallel()
	d, logger := newDetector(t, time.Hour, nil)

	start := time.Now()
	res, err := d.Detect(context.Background(), "not a url", "knn")
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
	var invalid *features.InvalidURLError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidURLError, got %T %v", err, err)
	}
	var unexpected *detector.UnexpectedError
	if errors.As(err, &unexpected) {
		t.Error("invalid URL must not be reported as unexpected")
	}
	if time.Since(start) > time.Second {
		t.Error("invalid URL should fail before the latency wait")
	}
	if logger.ErrorCount() != 0 {
		t.Errorf("invalid URL should not log errors: %v", logger.Errors)
	}
}

func TestDetect_CanceledBeforeWait(t *testing.T) {
	t.Parallel()
	d, _ := newDetector(t, time.Hour, nil)

	res, err := d.Detect(testutil.CanceledContext(), "https://example.com", "knn")
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDetect_CanceledDuringWait(t *testing.T) {
	t.Parallel()
	scorer := &testutil.DummyScorer{}
	d, _ := newDetector(t, time.Hour, scorer)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := d.Detect(ctx, "https://example.com", "knn")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %s", elapsed)
	}
	if len(scorer.Calls) != 0 {
		t.Errorf("scorer should not run after cancellation, calls=%v", scorer.Calls)
	}
}

func TestDetect_WaitsForLatency(t *testing.T) {
	t.Parallel()
	const latency = 30 * time.Millisecond
	d, _ := newDetector(t, latency, nil)

	start := time.Now()
	if _, err := d.Detect(context.Background(), "https://example.com", "knn"); err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if elapsed := time.Since(start); elapsed < latency {
		t.Errorf("Detect returned after %s, want at least %s", elapsed, latency)
	}
}

func TestDetect_ScorerPanicIsUnexpected(t *testing.T) {
	t.Parallel()
	d, logger := newDetector(t, 0, &testutil.DummyScorer{Panic: "boom"})

	_, err := d.Detect(context.Background(), "https://example.com", "knn")
	var unexpected *detector.UnexpectedError
	if !errors.As(err, &unexpected) {
		t.Fatalf("expected UnexpectedError, got %T %v", err, err)
	}
	if unexpected.Op != "score" {
		t.Errorf("Op = %q, want score", unexpected.Op)
	}
	if logger.ErrorCount() != 1 {
		t.Errorf("expected one error log, got %v", logger.Errors)
	}
}

func TestDetect_ScorerErrorIsWrapped(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("registry broken")
	d, _ := newDetector(t, 0, &testutil.DummyScorer{Err: sentinel})

	_, err := d.Detect(context.Background(), "https://example.com", "adaboost")
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	var unexpected *detector.UnexpectedError
	if !errors.As(err, &unexpected) {
		t.Fatalf("expected UnexpectedError, got %T", err)
	}
}

func TestPackageDetect_InvalidURLSkipsLatency(t *testing.T) {
	t.Parallel()
	start := time.Now()
	_, err := detector.Detect(context.Background(), "", "knn")
	if !errors.Is(err, features.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if time.Since(start) >= detector.DefaultLatency {
		t.Error("invalid input should not wait")
	}
}

func TestPackageDetect_HonorsCancellation(t *testing.T) {
	t.Parallel()
	_, err := detector.Detect(testutil.CanceledContext(), "https://example.com", "knn")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
