package genimage

import (
	"context"
	"testing"
	"time"

	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/schema"
)

func testSpec() schema.AssetSpec {
	return schema.AssetSpec{
		Kind:           schema.KindBackground,
		Filename:       "SLIDE-01-Opening.png",
		Prompt:         "style — sunrise",
		GenerationSize: "1792x1024",
		FinalWidth:     1920,
		FinalHeight:    1080,
	}
}

// recordingSleep captures requested delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestRetryerSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
		calls++
		return []byte("png"), nil
	})

	sleep := &recordingSleep{}
	r := NewRetryer(gen, sleep.sleep, nil)
	data, err := r.Generate(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("data = %q", data)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(sleep.delays) != 0 {
		t.Errorf("no delays expected, got %v", sleep.delays)
	}
}

func TestRetryerRecoversAfterTransient(t *testing.T) {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, errors.New(errors.ErrCodeGenerationTransient, "flaky")
		}
		return []byte("png"), nil
	})

	sleep := &recordingSleep{}
	r := NewRetryer(gen, sleep.sleep, nil)
	if _, err := r.Generate(context.Background(), testSpec()); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(sleep.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", sleep.delays, want)
	}
	for i := range want {
		if sleep.delays[i] != want[i] {
			t.Errorf("delays[%d] = %v, want %v", i, sleep.delays[i], want[i])
		}
	}
}

func TestRetryerExhaustsAttempts(t *testing.T) {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
		calls++
		return nil, errors.New(errors.ErrCodeNetwork, "connection reset")
	})

	sleep := &recordingSleep{}
	r := NewRetryer(gen, sleep.sleep, nil)
	_, err := r.Generate(context.Background(), testSpec())
	if err == nil {
		t.Fatal("Generate should fail")
	}
	if calls != MaxAttempts {
		t.Errorf("calls = %d, want %d", calls, MaxAttempts)
	}
	if len(sleep.delays) != MaxAttempts-1 {
		t.Errorf("delays = %v, want %d entries", sleep.delays, MaxAttempts-1)
	}
	// Exhaustion stays transient in classification but is terminal for the
	// asset: the retryer itself never tries a fourth time.
	if !errors.IsTransient(err) {
		t.Errorf("error = %v, want transient classification", err)
	}
}

func TestRetryerStopsOnPermanent(t *testing.T) {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
		calls++
		return nil, errors.New(errors.ErrCodeGenerationPermanent, "prompt rejected")
	})

	sleep := &recordingSleep{}
	r := NewRetryer(gen, sleep.sleep, nil)
	_, err := r.Generate(context.Background(), testSpec())
	if !errors.Is(err, errors.ErrCodeGenerationPermanent) {
		t.Fatalf("error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent failure)", calls)
	}
	if len(sleep.delays) != 0 {
		t.Errorf("delays = %v, want none", sleep.delays)
	}
}

func TestRetryerHonorsLongerRetryAfter(t *testing.T) {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, &errors.RateLimitedError{RetryAfter: 30, Message: "slow down"}
		}
		return []byte("png"), nil
	})

	sleep := &recordingSleep{}
	r := NewRetryer(gen, sleep.sleep, nil)
	if _, err := r.Generate(context.Background(), testSpec()); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(sleep.delays) != 1 || sleep.delays[0] != 30*time.Second {
		t.Errorf("delays = %v, want [30s]", sleep.delays)
	}
}

func TestRetryerRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := GeneratorFunc(func(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
		cancel()
		return nil, errors.New(errors.ErrCodeGenerationTransient, "flaky")
	})

	sleep := &recordingSleep{}
	r := NewRetryer(gen, sleep.sleep, nil)
	_, err := r.Generate(ctx, testSpec())
	if err == nil {
		t.Fatal("Generate should fail after cancellation")
	}
	if ctx.Err() == nil {
		t.Error("context should be cancelled")
	}
}
