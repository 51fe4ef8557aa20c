package ai

// Config 自动驾驶的行为参数
type Config struct {
	// ThinkIntervalFrames 思考间隔（帧），值越小反应越快
	ThinkIntervalFrames int

	// MistakeRate 随机失误率 (0.0-1.0)
	MistakeRate float64

	// DangerRadius 其他蛇身进入该半径即视为危险
	DangerRadius float64

	// EdgeMargin 距离安全圈边缘小于该值时掉头
	EdgeMargin float64

	// BoostDistance 目标食物距离大于该值时加速追
	BoostDistance float64

	// SightRadius 只考虑该半径内的食物
	SightRadius float64
}

// 预设配置：普通
var ConfigNormal = Config{
	ThinkIntervalFrames: 12, // 0.2s
	MistakeRate:         0.05,
	DangerRadius:        60,
	EdgeMargin:          80,
	BoostDistance:       0, // 不加速
	SightRadius:         400,
}

// 预设配置：激进
var ConfigHard = Config{
	ThinkIntervalFrames: 4,
	MistakeRate:         0,
	DangerRadius:        90,
	EdgeMargin:          120,
	BoostDistance:       250,
	SightRadius:         800,
}
