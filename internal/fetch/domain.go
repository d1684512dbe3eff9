package fetch

import (
	"net/url"
	"strings"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
)

// checkDomain implements §4.C domain gating: a configured blocklist
// pre-empts the allowlist; a non-empty allowlist requires an exact
// hostname match.
func checkDomain(rawURL string, allow, block []string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ierrors.New(ierrors.CodeFetchFailed, "invalid URL: "+rawURL, err)
	}
	host := strings.ToLower(u.Hostname())

	for _, b := range block {
		if strings.EqualFold(host, b) {
			return ierrors.New(ierrors.CodeDomainBlocked, "domain is blocked: "+host, nil).
				WithDetail("host", host)
		}
	}

	if len(allow) == 0 {
		return nil
	}
	for _, a := range allow {
		if strings.EqualFold(host, a) {
			return nil
		}
	}
	return ierrors.New(ierrors.CodeDomainBlocked, "domain not in allowlist: "+host, nil).
		WithDetail("host", host)
}
