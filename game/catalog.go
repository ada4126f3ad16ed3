package game

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Material 商店出售的原材料（封闭枚举）
type Material int

const (
	Rice Material = iota
	Meat
	WaterRaw
	Plastic
	Bread
	Fruit
	materialCount
)

var materialNames = [materialCount]string{"rice", "meat", "water_raw", "plastic", "bread", "fruit"}

// 商店单价
var shopPrices = [materialCount]int{
	Rice:     2,
	Meat:     3,
	WaterRaw: 1,
	Plastic:  1,
	Bread:    2,
	Fruit:    3,
}

func (m Material) String() string {
	if m < 0 || m >= materialCount {
		return fmt.Sprintf("material(%d)", int(m))
	}
	return materialNames[m]
}

func (m Material) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ParseMaterial 按名称查找原材料
func ParseMaterial(s string) (Material, error) {
	for i, name := range materialNames {
		if name == s {
			return Material(i), nil
		}
	}
	return 0, unknownName(CodeUnknownMaterial, "material", s, materialNames[:])
}

// ShopPrice 返回原材料在系统商店的单价
func ShopPrice(m Material) int { return shopPrices[m] }

// Good 可生产、交易、消费的成品
type Good int

const (
	Water Good = iota
	Hotdog
	ChickenRice
	Juice
	goodCount
)

var goodNames = [goodCount]string{"water", "hotdog", "chicken_rice", "juice"}

func (g Good) String() string {
	if g < 0 || g >= goodCount {
		return fmt.Sprintf("good(%d)", int(g))
	}
	return goodNames[g]
}

func (g Good) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Good) UnmarshalText(b []byte) error {
	v, err := ParseGood(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// ParseGood 按名称查找成品
func ParseGood(s string) (Good, error) {
	for i, name := range goodNames {
		if name == s {
			return Good(i), nil
		}
	}
	return 0, unknownName(CodeUnknownGood, "item", s, goodNames[:])
}

// Effect 消费一件成品对体征的加成
type Effect struct {
	Health int `json:"health,omitempty"`
	Hunger int `json:"hunger,omitempty"`
	Thirst int `json:"thirst,omitempty"`
}

var effects = [goodCount]Effect{
	Water:       {Thirst: 40},
	Hotdog:      {Hunger: 40},
	ChickenRice: {Hunger: 60},
	Juice:       {Thirst: 30, Health: 10},
}

// EffectOf 返回成品的消费效果
func EffectOf(g Good) Effect { return effects[g] }

// Business 玩家经营的业务类型；Spectator 仅用于管理员
type Business int

const (
	Spectator Business = iota
	WaterVendor
	HotdogVendor
	ChickenRiceVendor
	JuiceVendor
	businessCount
)

var businessNames = [businessCount]string{"spectator", "water_vendor", "hotdog_vendor", "chicken_rice_vendor", "juice_vendor"}

func (b Business) String() string {
	if b < 0 || b >= businessCount {
		return fmt.Sprintf("business(%d)", int(b))
	}
	return businessNames[b]
}

func (b Business) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText 归档回读时使用，接受 spectator
func (b *Business) UnmarshalText(text []byte) error {
	if string(text) == businessNames[Spectator] {
		*b = Spectator
		return nil
	}
	v, err := ParseBusiness(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Label 用于提示文案，例如 "water vendor"
func (b Business) Label() string { return strings.ReplaceAll(b.String(), "_", " ") }

// ParseBusiness 解析可经营的业务类型（不含 spectator）
func ParseBusiness(s string) (Business, error) {
	for i := WaterVendor; i < businessCount; i++ {
		if businessNames[i] == s {
			return i, nil
		}
	}
	return 0, unknownName(CodeUnknownBusiness, "business", s, businessNames[WaterVendor:])
}

// Recipe 配方：所需原材料 -> 一件产出
type Recipe struct {
	Inputs MaterialStock `json:"inputs"`
	Output Good          `json:"output"`
}

var recipes = [businessCount]*Recipe{
	WaterVendor:       {Inputs: MaterialStock{Plastic: 1, WaterRaw: 1}, Output: Water},
	HotdogVendor:      {Inputs: MaterialStock{Bread: 1, Meat: 1}, Output: Hotdog},
	ChickenRiceVendor: {Inputs: MaterialStock{Rice: 2, Meat: 1, WaterRaw: 1}, Output: ChickenRice},
	JuiceVendor:       {Inputs: MaterialStock{Fruit: 2, WaterRaw: 1}, Output: Juice},
}

// RecipeFor 返回业务类型的配方；spectator 没有配方
func RecipeFor(b Business) (Recipe, bool) {
	if b < 0 || b >= businessCount || recipes[b] == nil {
		return Recipe{}, false
	}
	return *recipes[b], true
}

// MaterialStock 原材料库存，按枚举定长存放
type MaterialStock [materialCount]int

func (s MaterialStock) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, materialCount)
	for i, q := range s {
		m[materialNames[i]] = q
	}
	return json.Marshal(m)
}

func (s *MaterialStock) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*s = MaterialStock{}
	for name, q := range m {
		mat, err := ParseMaterial(name)
		if err != nil {
			return err
		}
		s[mat] = q
	}
	return nil
}

// GoodStock 成品库存
type GoodStock [goodCount]int

func (s GoodStock) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, goodCount)
	for i, q := range s {
		m[goodNames[i]] = q
	}
	return json.Marshal(m)
}

// Suggest 为拼写错误的名称给出最接近的候选
func Suggest(input string, candidates []string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	if len(in) < 3 {
		return ""
	}
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(in, c)
		if d > suggestLimit(len(c)) {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func unknownName(code Code, kind, got string, candidates []string) error {
	msg := fmt.Sprintf("Unknown %s %q", kind, got)
	if s := Suggest(got, candidates); s != "" {
		msg += fmt.Sprintf(" (did you mean %s?)", s)
	}
	return newError(code, msg)
}

func (s *GoodStock) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*s = GoodStock{}
	for name, q := range m {
		g, err := ParseGood(name)
		if err != nil {
			return err
		}
		s[g] = q
	}
	return nil
}
