package core

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength 玩家名最大长度
const MaxNameLength = 20

// DefaultPlayerName 名字不合法时的替代名
const DefaultPlayerName = "Player"

var (
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	validNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]{1,20}$`)
)

// SanitizeName 去除 HTML 标签、首尾空白并截断，不合法时返回 DefaultPlayerName
func SanitizeName(name string) string {
	s := strings.TrimSpace(htmlTagPattern.ReplaceAllString(name, ""))
	if utf8.RuneCountInString(s) > MaxNameLength {
		s = string([]rune(s)[:MaxNameLength])
	}
	if !validNamePattern.MatchString(s) {
		return DefaultPlayerName
	}
	return s
}
