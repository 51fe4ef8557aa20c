package client

import (
	"testing"
	"time"

	"arena/internal/config"
)

// feed 以固定帧时喂满一个评估窗口
func feed(q *QualityController, start time.Time, frame time.Duration) (time.Time, bool) {
	now := start
	changed := false
	for now.Sub(start) <= time.Second {
		now = now.Add(frame)
		if q.AddFrameTime(frame, now) {
			changed = true
		}
	}
	return now, changed
}

func TestQualityStepsOneLevelPerWindow(t *testing.T) {
	q := NewQualityController(config.Default().Quality)
	if q.Level() != QualityHigh {
		t.Fatalf("initial level = %v, want high", q.Level())
	}

	now := time.Unix(0, 0)
	q.AddFrameTime(16*time.Millisecond, now)

	slow := 40 * time.Millisecond
	now, changed := feed(q, now, slow)
	if !changed || q.Level() != QualityMedium {
		t.Fatalf("after slow window level = %v, want medium", q.Level())
	}
	now, _ = feed(q, now, slow)
	if q.Level() != QualityLow {
		t.Fatalf("after second slow window level = %v, want low", q.Level())
	}
	now, changed = feed(q, now, slow)
	if changed || q.Level() != QualityLow {
		t.Fatalf("level below low: %v", q.Level())
	}
	if q.FPS() != 25 {
		t.Fatalf("FPS() = %d, want 25", q.FPS())
	}

	fast := 5 * time.Millisecond
	now, _ = feed(q, now, fast)
	if q.Level() != QualityMedium {
		t.Fatalf("after fast window level = %v, want medium", q.Level())
	}
	_, _ = feed(q, now, fast)
	if q.Level() != QualityHigh {
		t.Fatalf("after second fast window level = %v, want high", q.Level())
	}
}

func TestQualityWithinBudgetHolds(t *testing.T) {
	q := NewQualityController(config.Default().Quality)
	now := time.Unix(0, 0)
	q.AddFrameTime(16*time.Millisecond, now)
	q.SetLevel(QualityMedium)
	if _, changed := feed(q, now, 16*time.Millisecond); changed {
		t.Fatalf("level changed to %v within budget", q.Level())
	}
}

func TestQualityNonAdaptive(t *testing.T) {
	cfg := config.Default().Quality
	cfg.Adaptive = false
	q := NewQualityController(cfg)
	now := time.Unix(0, 0)
	q.AddFrameTime(100*time.Millisecond, now)
	if _, changed := feed(q, now, 100*time.Millisecond); changed || q.Level() != QualityHigh {
		t.Fatalf("non-adaptive controller changed level to %v", q.Level())
	}
	if q.FPS() != 10 {
		t.Fatalf("FPS() = %d, want 10", q.FPS())
	}
}

func TestQualitySettings(t *testing.T) {
	if (QualityLow.Settings() != RenderSettings{}) {
		t.Fatal("low quality enables effects")
	}
	m := QualityMedium.Settings()
	if !m.Particles || !m.Shadows || m.Glow || !m.Blur || !m.Interpolation {
		t.Fatalf("medium settings = %+v", m)
	}
	if h := QualityHigh.Settings(); !h.Glow {
		t.Fatalf("high settings = %+v", h)
	}
}
