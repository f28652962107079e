package schedule

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FrequencyPolicy 频率为空或无法识别时的处理策略
type FrequencyPolicy string

const (
	// PolicySkipUnknown 无法识别的频率当天不执行（默认，安全侧）
	PolicySkipUnknown FrequencyPolicy = "skip"
	// PolicyRunUnknown 无法识别的频率当天照常执行
	PolicyRunUnknown FrequencyPolicy = "run"
)

// ParseFrequencyPolicy 解析配置值，空串返回默认策略
func ParseFrequencyPolicy(s string) (FrequencyPolicy, error) {
	switch FrequencyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySkipUnknown:
		return PolicySkipUnknown, nil
	case PolicyRunUnknown:
		return PolicyRunUnknown, nil
	default:
		return "", fmt.Errorf("unknown frequency policy %q (want skip|run)", s)
	}
}

var dailyTokens = map[string]bool{
	"DIARIO":         true,
	"DIARIA":         true,
	"DAILY":          true,
	"TODOS_LOS_DIAS": true,
}

var weekdayTokens = map[string]bool{
	"LUNES_VIERNES":   true,
	"LUNES_A_VIERNES": true,
	"WEEKDAYS":        true,
}

var weekendTokens = map[string]bool{
	"FINDE":           true,
	"FIN_DE_SEMANA":   true,
	"FINES_DE_SEMANA": true,
	"WEEKEND":         true,
}

// 西语 + 英语星期名称（已去重音、大写）
var dayNames = map[time.Weekday][]string{
	time.Monday:    {"LUNES", "MONDAY"},
	time.Tuesday:   {"MARTES", "TUESDAY"},
	time.Wednesday: {"MIERCOLES", "WEDNESDAY"},
	time.Thursday:  {"JUEVES", "THURSDAY"},
	time.Friday:    {"VIERNES", "FRIDAY"},
	time.Saturday:  {"SABADO", "SATURDAY"},
	time.Sunday:    {"DOMINGO", "SUNDAY"},
}

// CanonicalFrequency 大写、去重音，空白和连字符统一为下划线
// 例："Lunes a Viernes" -> "LUNES_A_VIERNES"，"sábado" -> "SABADO"
func CanonicalFrequency(frequency string) string {
	f := strings.ToUpper(strings.TrimSpace(foldAccents(frequency)))
	f = strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, f)
	for strings.Contains(f, "__") {
		f = strings.ReplaceAll(f, "__", "_")
	}
	return f
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// MatchesFrequencyToday 判断频率是否包含 dateKey 那一天；dateKey 非法时返回 false
func MatchesFrequencyToday(frequency, dateKey string, policy FrequencyPolicy) bool {
	day, err := time.Parse(DateKeyLayout, dateKey)
	if err != nil {
		return false
	}
	return MatchesFrequency(frequency, day.Weekday(), policy)
}

// MatchesFrequency 频率匹配规则：
//   - 每日令牌 -> 始终匹配
//   - 工作日令牌 -> 周一至周五
//   - 周末令牌 -> 周六、周日
//   - 其它 -> 当天星期名作为子串出现即匹配（支持 "LUNES,MIERCOLES" 这类列表）
//
// 空值或不含任何星期名的未知值按 policy 处理
func MatchesFrequency(frequency string, weekday time.Weekday, policy FrequencyPolicy) bool {
	f := CanonicalFrequency(frequency)
	if f == "" {
		return policy == PolicyRunUnknown
	}
	if dailyTokens[f] {
		return true
	}
	if weekdayTokens[f] {
		return weekday >= time.Monday && weekday <= time.Friday
	}
	if weekendTokens[f] {
		return weekday == time.Saturday || weekday == time.Sunday
	}

	for _, name := range dayNames[weekday] {
		if strings.Contains(f, name) {
			return true
		}
	}
	if mentionsAnyDay(f) {
		return false
	}
	return policy == PolicyRunUnknown
}

func mentionsAnyDay(f string) bool {
	for _, names := range dayNames {
		for _, name := range names {
			if strings.Contains(f, name) {
				return true
			}
		}
	}
	return false
}
