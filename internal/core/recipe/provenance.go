package recipe

import (
	"net/url"
	"strings"
)

// DefaultSourceName 來源名稱為空時使用 URL 的主機名稱
// URL 無法解析時保持原值，不影響儲存
func DefaultSourceName(sourceName, sourceURL string) string {
	if name := strings.TrimSpace(sourceName); name != "" {
		return name
	}
	u, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || u.Hostname() == "" {
		return strings.TrimSpace(sourceName)
	}
	return u.Hostname()
}

// DefaultSourceNotes 匯入的食譜沒有備註時記錄原始網址
func DefaultSourceNotes(sourceNotes, sourceURL string) string {
	if notes := strings.TrimSpace(sourceNotes); notes != "" {
		return notes
	}
	if u := strings.TrimSpace(sourceURL); u != "" {
		return "Imported from: " + u
	}
	return ""
}

// ValidateSourceURL 只接受 http/https 絕對網址
func ValidateSourceURL(raw string) (*url.URL, error) {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return nil, WrapError(ErrInvalidURL, "validate url", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, WrapError(ErrInvalidURL, "validate url", nil)
	}
	return u, nil
}
