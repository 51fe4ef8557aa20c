package client

import (
	"fmt"
	"math"
	"time"

	"arena/internal/config"
)

// QualityLevel 渲染画质
type QualityLevel int

const (
	QualityLow QualityLevel = iota
	QualityMedium
	QualityHigh
)

func (l QualityLevel) String() string {
	switch l {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	}
	return fmt.Sprintf("QualityLevel(%d)", int(l))
}

// RenderSettings 画质对应的渲染开关
type RenderSettings struct {
	Particles     bool
	Shadows       bool
	Glow          bool
	Blur          bool
	Interpolation bool
}

// Settings 画质对应的渲染开关
func (l QualityLevel) Settings() RenderSettings {
	switch l {
	case QualityLow:
		return RenderSettings{}
	case QualityMedium:
		return RenderSettings{Particles: true, Shadows: true, Blur: true, Interpolation: true}
	default:
		return RenderSettings{Particles: true, Shadows: true, Glow: true, Blur: true, Interpolation: true}
	}
}

// QualityController 按帧时自适应调整画质，每个评估窗口最多调整一档
type QualityController struct {
	cfg      config.Quality
	samples  []time.Duration
	next     int
	level    QualityLevel
	adaptive bool
	avg      time.Duration
	fps      int
	lastEval time.Time
}

// NewQualityController 从最高画质开始
func NewQualityController(cfg config.Quality) *QualityController {
	n := cfg.SampleSize
	if n <= 0 {
		n = 60
	}
	return &QualityController{
		cfg:      cfg,
		samples:  make([]time.Duration, 0, n),
		level:    QualityHigh,
		adaptive: cfg.Adaptive,
	}
}

// AddFrameTime 记录一帧耗时，到达评估间隔时评估，画质变化时返回 true
func (q *QualityController) AddFrameTime(d time.Duration, now time.Time) bool {
	if len(q.samples) < cap(q.samples) {
		q.samples = append(q.samples, d)
	} else {
		q.samples[q.next] = d
		q.next = (q.next + 1) % len(q.samples)
	}

	if q.lastEval.IsZero() {
		q.lastEval = now
		return false
	}
	if now.Sub(q.lastEval) < q.cfg.EvalInterval {
		return false
	}
	q.lastEval = now
	return q.evaluate()
}

func (q *QualityController) evaluate() bool {
	if len(q.samples) == 0 {
		return false
	}
	var sum time.Duration
	for _, d := range q.samples {
		sum += d
	}
	q.avg = sum / time.Duration(len(q.samples))
	if q.avg > 0 {
		q.fps = int(math.Round(float64(time.Second) / float64(q.avg)))
	}
	q.samples = q.samples[:0]
	q.next = 0

	if !q.adaptive {
		return false
	}
	budget := float64(q.cfg.FrameBudget)
	switch {
	case float64(q.avg) > budget*q.cfg.DownThreshold && q.level > QualityLow:
		q.level--
		return true
	case float64(q.avg) < budget*q.cfg.UpThreshold && q.level < QualityHigh:
		q.level++
		return true
	}
	return false
}

// Level 当前画质
func (q *QualityController) Level() QualityLevel { return q.level }

// SetLevel 手动设置画质
func (q *QualityController) SetLevel(l QualityLevel) {
	if l >= QualityLow && l <= QualityHigh {
		q.level = l
	}
}

// SetAdaptive 开关自适应
func (q *QualityController) SetAdaptive(on bool) { q.adaptive = on }

// FPS 最近一次评估的帧率
func (q *QualityController) FPS() int { return q.fps }

// AverageFrameTime 最近一次评估的平均帧时
func (q *QualityController) AverageFrameTime() time.Duration { return q.avg }

// Settings 当前画质的渲染开关
func (q *QualityController) Settings() RenderSettings { return q.level.Settings() }
