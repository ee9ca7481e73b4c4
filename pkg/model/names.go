package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldDiacritics 去除变音符号, ä → a, é → e
func FoldDiacritics(s string) string {
	// transform.Chain 有状态, 每次调用单独构造
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeText 小写、去变音、ß → ss、合并空白
func NormalizeText(s string) string {
	s = strings.ToLower(FoldDiacritics(s))
	s = strings.ReplaceAll(s, "ß", "ss")
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalName 生成用于规则匹配的姓名键
// 只保留 a-z0-9, 其余字符折叠为单个空格
func CanonicalName(s string) string {
	s = strings.ToLower(FoldDiacritics(s))
	s = strings.ReplaceAll(s, "ß", "ss")

	var b strings.Builder
	pendingSpace := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}
