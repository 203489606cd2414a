package relevance

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
)

func TestFilter_ModelTier(t *testing.T) {
	mc := &mockCompleter{completeFn: reply("p3, p1,\np1, p9.")}
	f := New(mc, Config{Model: "gpt-test"}, nil, nil, zap.NewNop())

	out := f.Filter(context.Background(), "milch", candidates(), nil)

	if out.Tier != result.StrategyAI {
		t.Fatalf("Tier = %s, want ai (cause %v)", out.Tier, out.Cause)
	}
	if !reflect.DeepEqual(out.IDs, []string{"p3", "p1"}) {
		t.Errorf("IDs = %v", out.IDs)
	}
	if mc.lastReq.Temperature != DefaultTemperature || mc.lastReq.MaxTokens != DefaultMaxTokens {
		t.Errorf("unexpected request settings: %+v", mc.lastReq)
	}
	if mc.lastReq.Model != "gpt-test" {
		t.Errorf("Model = %q", mc.lastReq.Model)
	}
}

func TestFilter_PromptCarriesCandidatesAndIntent(t *testing.T) {
	mc := &mockCompleter{completeFn: reply("p1")}
	f := New(mc, Config{}, nil, nil, zap.NewNop())
	in := &domintent.Intent{
		Key:               "butter",
		IncludeCategories: []string{"butter"},
		ExcludeCategories: []string{"kekse"},
	}

	f.Filter(context.Background(), "butter", candidates(), in)

	user := mc.lastReq.Messages[1].Content
	for _, want := range []string{
		"p1|Kerrygold Butter|Milchprodukte|Butter|Aldi",
		"Stick strictly",
		"Never include offers from: kekse",
		"Correct: \"butter\" -> Kerrygold Butter",
		"Wrong: \"butter\" -> Gouda jung",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt missing %q:\n%s", want, user)
		}
	}

	f.Filter(context.Background(), "butter", candidates(), nil)
	if user = mc.lastReq.Messages[1].Content; !strings.Contains(user, "Be generous") {
		t.Errorf("intent-less prompt should be generous:\n%s", user)
	}
}

func TestFilter_FallbackOnFailure(t *testing.T) {
	failures := map[string]*mockCompleter{
		"network": {completeFn: func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
			return domain.CompletionResult{}, errors.New("connection refused")
		}},
		"empty reply":    {completeFn: reply("")},
		"garbage reply":  {completeFn: reply("I cannot help with that.")},
		"unknown ids":    {completeFn: reply("x1,x2")},
		"not configured": nil,
	}

	for name, mc := range failures {
		t.Run(name, func(t *testing.T) {
			var f *Filter
			if mc == nil {
				f = New(nil, Config{}, nil, nil, zap.NewNop())
			} else {
				f = New(mc, Config{}, nil, nil, zap.NewNop())
			}

			out := f.Filter(context.Background(), "jung", candidates(), nil)
			if out.Tier != result.StrategyHeuristic {
				t.Fatalf("Tier = %s, want heuristic", out.Tier)
			}
			if out.Cause == nil {
				t.Error("expected fallback cause")
			}
			if !reflect.DeepEqual(out.IDs, []string{"p2"}) {
				t.Errorf("IDs = %v", out.IDs)
			}
		})
	}
}

func TestFilter_Timeout(t *testing.T) {
	mc := &mockCompleter{completeFn: func(ctx context.Context, _ domain.CompletionRequest) (domain.CompletionResult, error) {
		<-ctx.Done()
		return domain.CompletionResult{}, ctx.Err()
	}}
	f := New(mc, Config{Timeout: 20 * time.Millisecond}, nil, nil, zap.NewNop())

	start := time.Now()
	out := f.Filter(context.Background(), "butter", candidates(), nil)
	if time.Since(start) > 2*time.Second {
		t.Fatal("filter did not honor timeout")
	}
	if !errors.Is(out.Cause, domain.ErrCompletionProviderError) {
		t.Errorf("Cause = %v, want ErrCompletionProviderError", out.Cause)
	}
	if out.Tier != result.StrategyHeuristic || !reflect.DeepEqual(out.IDs, []string{"p1"}) {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestFilter_DesperateTier(t *testing.T) {
	f := New(nil, Config{DesperateLimit: 1}, nil, nil, zap.NewNop())

	// no word matches, but the letters of "mlk" occur in p1 and p3
	out := f.Filter(context.Background(), "mlk", candidates(), nil)
	if out.Tier != result.StrategyDesperate {
		t.Fatalf("Tier = %s, want desperate", out.Tier)
	}
	if !reflect.DeepEqual(out.IDs, []string{"p1"}) {
		t.Errorf("IDs = %v, want capped [p1]", out.IDs)
	}
}

func TestFilter_NothingMatches(t *testing.T) {
	f := New(nil, Config{}, nil, nil, zap.NewNop())
	out := f.Filter(context.Background(), "qqq", candidates(), nil)
	if len(out.IDs) != 0 {
		t.Errorf("expected empty outcome, got %v", out.IDs)
	}
}

func TestFilter_NoCandidates(t *testing.T) {
	mc := &mockCompleter{}
	f := New(mc, Config{}, nil, nil, zap.NewNop())
	if out := f.Filter(context.Background(), "butter", nil, nil); len(out.IDs) != 0 {
		t.Errorf("expected empty outcome, got %v", out.IDs)
	}
	if mc.calls != 0 {
		t.Error("model must not be called without candidates")
	}
}

func TestFilter_Metrics(t *testing.T) {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_outcomes_total"}, []string{"tier"})
	f := New(nil, Config{}, nil, outcomes, zap.NewNop())

	f.Filter(context.Background(), "butter", candidates(), nil)
	if v := testutil.ToFloat64(outcomes.WithLabelValues("heuristic")); v != 1 {
		t.Errorf("heuristic outcomes = %v, want 1", v)
	}
}

func TestConfig_TimeoutClamped(t *testing.T) {
	f := New(nil, Config{Timeout: 5 * time.Minute}, nil, nil, zap.NewNop())
	if f.cfg.Timeout != MaxTimeout {
		t.Errorf("Timeout = %s, want %s", f.cfg.Timeout, MaxTimeout)
	}
}
