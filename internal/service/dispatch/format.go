package dispatch

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func printer() *message.Printer {
	return message.NewPrinter(language.BrazilianPortuguese)
}

// FormatBRL 按巴西格式输出金额：R$ 1.234,56
func FormatBRL(v float64) string {
	amount := math.Round(math.Abs(v)*100) / 100
	sign := ""
	if v < 0 && amount > 0 {
		sign = "-"
	}
	return sign + "R$ " + printer().Sprintf("%.2f", amount)
}

// formatMetric 整数不带小数，其余保留两位
func formatMetric(v float64) string {
	if v == math.Trunc(v) {
		return printer().Sprintf("%d", int64(v))
	}
	return printer().Sprintf("%.2f", v)
}

// FormatDate 将 YYYY-MM-DD 转为 DD/MM/YYYY，无法解析时原样返回
func FormatDate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006")
}

// formatTime 日期输出 DD/MM/YYYY
func formatTime(t time.Time) string {
	return t.Format("02/01/2006")
}

// plural 简单复数
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
