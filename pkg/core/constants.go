package core

// 地图配置
const (
	MapSize                = 2000.0 // 地图直径
	MinMapSize             = 500.0
	CircleShrinkIntervalMs = 10000 // 缩圈间隔（毫秒）
	CircleShrinkSpeed      = 100.0 // 每次缩圈减少的半径
)

// 移动配置
const (
	BaseSpeed       = 3.0 // 单位/秒
	BoostMultiplier = 2.0 // 加速倍率
	BoostCost       = 0.1 // 加速每秒消耗分数
)

// 蛇身配置
const (
	InitialSnakeLength = 3
	SegmentSpacing     = 5.0
	SegmentGap         = 10.0 // 初始蛇身间距
	BaseSnakeWidth     = 25.0
	MaxSnakeWidth      = 250.0
	WidthGrowthFactor  = 0.005
)

// 食物配置
const (
	FoodAttractionRadius   = 100.0
	FoodAttractionStrength = 1.0
	FoodInterpolationSpeed = 5.0
	MinFoodSize            = 4.0
	MaxFoodSize            = 12.0
)

// 客户端帧率
const (
	FPS            = 60
	FixedDeltaTime = 1.0 / FPS
)

// FoodColors 食物配色
var FoodColors = []string{"#DC1FFF", "#00FFA3", "#03E1FF"}
