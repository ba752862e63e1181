// Package securelink builds expiring download URLs compatible with the
// nginx secure_link module: md5(expires + path + secret), base64url without padding.
package securelink

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"strings"
)

type Signer struct {
	secret     string
	baseFolder string
	baseURL    string
}

func NewSigner(secret, baseFolder, baseURL string) *Signer {
	if baseFolder != "" && !strings.HasSuffix(baseFolder, "/") {
		baseFolder += "/"
	}
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Signer{secret: secret, baseFolder: baseFolder, baseURL: baseURL}
}

// DownloadLink returns an empty string for an empty filename: media whose
// resource is an embed snippet or external URL has nothing to sign.
func (s *Signer) DownloadLink(filename string, expires int64) string {
	if filename == "" {
		return ""
	}
	input := fmt.Sprintf("%d%s %s", expires, s.baseFolder+filename, s.secret)
	sum := md5.Sum([]byte(input))
	token := base64.RawURLEncoding.EncodeToString(sum[:])
	return fmt.Sprintf("%s%s?md5=%s&expires=%d", s.baseURL, filename, token, expires)
}
